package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS snippets (
    seq        BIGSERIAL PRIMARY KEY,
    id         TEXT        NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL,
    origin     TEXT        NOT NULL,
    text       TEXT        NOT NULL
);
CREATE INDEX IF NOT EXISTS snippets_created_at_idx ON snippets (created_at DESC, seq DESC);
`

type PostgresStore struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

func OpenPostgres(ctx context.Context, dsn string, loc *time.Location) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &PostgresStore{pool: pool, loc: loc}, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO snippets (id, created_at, origin, text) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.Timestamp, string(rec.Origin), rec.Text)
	if err != nil {
		return fmt.Errorf("insert snippet: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, origin, text FROM snippets ORDER BY created_at DESC, seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snippets: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec    Record
			at     time.Time
			origin string
		)
		if err := rows.Scan(&rec.ID, &at, &origin, &rec.Text); err != nil {
			return nil, fmt.Errorf("scan snippet: %w", err)
		}
		if s.loc != nil {
			at = at.In(s.loc)
		}
		rec.Timestamp = at
		rec.Origin = Origin(origin)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
