package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cuonglevan23/ybproject/core"
)

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	q := fmt.Sprintf(`SELECT value FROM public.%s WHERE key = $1`, s.table)

	var value []byte
	err := s.pool.QueryRow(ctx, q, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	q := fmt.Sprintf(`INSERT INTO public.%s (key, value) VALUES ($1, $2)
	          ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, s.table)

	_, err := s.pool.Exec(ctx, q, key, value)
	return err
}

func (s *Store) Remove(ctx context.Context, key string) error {
	q := fmt.Sprintf(`DELETE FROM public.%s WHERE key = $1`, s.table)

	_, err := s.pool.Exec(ctx, q, key)
	return err
}
