package refresh

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/state"
	"zilswap-dashboard/internal/storage"
)

// BootstrapOptions configures registry bootstrap.
type BootstrapOptions struct {
	Store  *state.Store
	Tokens storage.TokenStore
	Bridge storage.BridgeStore // optional
	Seed   []domain.Token
	Logger *logrus.Entry
}

// Bootstrap upserts the seed tokens, then loads the persisted registry and
// bridge mappings into the state store. The token slice is marked initialized
// even when the registry is empty.
func Bootstrap(ctx context.Context, opts BootstrapOptions) error {
	if opts.Store == nil || opts.Tokens == nil {
		return fmt.Errorf("bootstrap: store and token store are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	if len(opts.Seed) > 0 {
		seed := make([]*domain.Token, len(opts.Seed))
		for i := range opts.Seed {
			t := opts.Seed[i]
			seed[i] = &t
		}
		if err := opts.Tokens.UpsertBulk(ctx, seed); err != nil {
			return fmt.Errorf("upsert seed tokens: %w", err)
		}
	}

	persisted, err := opts.Tokens.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}
	tokens := make([]domain.Token, 0, len(persisted))
	for _, t := range persisted {
		tokens = append(tokens, *t)
	}
	opts.Store.InitTokens(tokens)

	var mappings []domain.BridgeMapping
	if opts.Bridge != nil {
		mappings, err = opts.Bridge.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("load bridge mappings: %w", err)
		}
		if len(mappings) > 0 {
			opts.Store.SetBridgeMappings(mappings)
		}
	}

	logger.WithFields(logrus.Fields{
		"seed":     len(opts.Seed),
		"tokens":   len(tokens),
		"mappings": len(mappings),
	}).Info("registry bootstrapped")
	return nil
}
