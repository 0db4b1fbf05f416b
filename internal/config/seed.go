package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"zilswap-dashboard/internal/domain"
)

type seedFile struct {
	Tokens []seedToken `yaml:"tokens"`
}

type seedToken struct {
	Blockchain string `yaml:"blockchain"`
	Address    string `yaml:"address"`
	Symbol     string `yaml:"symbol"`
	Name       string `yaml:"name"`
	Decimals   int    `yaml:"decimals"`
	Registered *bool  `yaml:"registered"` // defaults to true
}

// LoadTokenSeed reads the token seed file.
func LoadTokenSeed(path string) ([]domain.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token seed: %w", err)
	}
	return ParseTokenSeed(data)
}

// ParseTokenSeed parses and validates seed YAML. Blockchain defaults to zil.
func ParseTokenSeed(data []byte) ([]domain.Token, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse token seed: %w", err)
	}

	tokens := make([]domain.Token, 0, len(f.Tokens))
	seen := make(map[string]int, len(f.Tokens))
	for i, st := range f.Tokens {
		chain := domain.Blockchain(strings.ToLower(strings.TrimSpace(st.Blockchain)))
		if chain == "" {
			chain = domain.BlockchainZilliqa
		}
		if !chain.IsValid() {
			return nil, fmt.Errorf("token %d: unknown blockchain %q", i, st.Blockchain)
		}
		address := strings.TrimSpace(st.Address)
		if address == "" {
			return nil, fmt.Errorf("token %d: address is required", i)
		}
		if st.Decimals < 0 {
			return nil, fmt.Errorf("token %d: negative decimals", i)
		}

		t := domain.Token{
			Blockchain: chain,
			Address:    address,
			Symbol:     strings.TrimSpace(st.Symbol),
			Name:       strings.TrimSpace(st.Name),
			Decimals:   st.Decimals,
			Registered: st.Registered == nil || *st.Registered,
		}
		if prev, dup := seen[t.Key()]; dup {
			return nil, fmt.Errorf("token %d: duplicate of token %d (%s)", i, prev, t.Key())
		}
		seen[t.Key()] = i
		tokens = append(tokens, t)
	}
	return tokens, nil
}
