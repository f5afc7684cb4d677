package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cuonglevan23/ybproject/core"
)

// DefaultTable holds the persisted key-value state
const DefaultTable = "yb_kv"

// Store persists session state in a Postgres key-value table
type Store struct {
	pool  *pgxpool.Pool
	table string
}

var _ core.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:  pool,
		table: DefaultTable,
	}
}

// Connect opens a pool for databaseURL and makes sure the table exists
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	store := New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the key-value table when missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS public.%s (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.table)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.table, err)
	}
	return nil
}

// Close releases the pool
func (s *Store) Close() {
	s.pool.Close()
}
