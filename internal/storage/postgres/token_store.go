package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const upsertTokenQuery = `
	INSERT INTO tokens (
		blockchain, address_key, address, symbol, name, decimals, registered, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (blockchain, address_key) DO UPDATE SET
		address    = EXCLUDED.address,
		symbol     = EXCLUDED.symbol,
		name       = EXCLUDED.name,
		decimals   = EXCLUDED.decimals,
		registered = EXCLUDED.registered,
		updated_at = now()
`

// Upsert inserts or replaces a token.
func (s *TokenStore) Upsert(ctx context.Context, t *domain.Token) (err error) {
	if !validToken(t) {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { s.pool.observe("tokens_upsert", start, err) }(time.Now())

	_, err = s.pool.Exec(ctx, upsertTokenQuery, tokenArgs(t)...)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// UpsertBulk upserts all tokens in one transaction.
func (s *TokenStore) UpsertBulk(ctx context.Context, tokens []*domain.Token) (err error) {
	if len(tokens) == 0 {
		return nil
	}
	for _, t := range tokens {
		if !validToken(t) {
			return storage.ErrInvalidInput
		}
	}
	defer func(start time.Time) { s.pool.observe("tokens_upsert_bulk", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range tokens {
		batch.Queue(upsertTokenQuery, tokenArgs(t)...)
	}

	br := tx.SendBatch(ctx, batch)
	for range tokens {
		if _, err = br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert token batch: %w", err)
		}
	}
	if err = br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetAll returns every token ordered by blockchain, then address.
func (s *TokenStore) GetAll(ctx context.Context) (result []*domain.Token, err error) {
	defer func(start time.Time) { s.pool.observe("tokens_get_all", start, err) }(time.Now())

	query := `
		SELECT blockchain, address, symbol, name, decimals, registered
		FROM tokens
		ORDER BY blockchain ASC, address_key ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return result, nil
}

// GetByAddress retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByAddress(ctx context.Context, chain domain.Blockchain, address string) (*domain.Token, error) {
	query := `
		SELECT blockchain, address, symbol, name, decimals, registered
		FROM tokens
		WHERE blockchain = $1 AND address_key = $2
	`

	start := time.Now()
	t, err := scanToken(s.pool.QueryRow(ctx, query, string(chain), addressKey(address)))
	if err != nil {
		if isNotFoundError(err) {
			s.pool.observe("tokens_get_by_address", start, nil)
			return nil, storage.ErrNotFound
		}
		s.pool.observe("tokens_get_by_address", start, err)
		return nil, fmt.Errorf("get token by address: %w", err)
	}
	s.pool.observe("tokens_get_by_address", start, nil)
	return t, nil
}

func validToken(t *domain.Token) bool {
	return t != nil && t.Blockchain != "" && strings.TrimSpace(t.Address) != ""
}

func addressKey(address string) string {
	return domain.NormalizeAddress(address)
}

func tokenArgs(t *domain.Token) []any {
	return []any{
		string(t.Blockchain),
		addressKey(t.Address),
		strings.TrimSpace(t.Address),
		t.Symbol,
		t.Name,
		t.Decimals,
		t.Registered,
	}
}

// scanToken scans a single row into Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token
	var chain string

	err := row.Scan(
		&chain,
		&t.Address,
		&t.Symbol,
		&t.Name,
		&t.Decimals,
		&t.Registered,
	)
	if err != nil {
		return nil, err
	}

	t.Blockchain = domain.Blockchain(chain)
	return &t, nil
}
