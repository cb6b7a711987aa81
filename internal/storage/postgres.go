package storage

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
)

type PostgresStore struct {
	conn *pgx.Conn
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{conn: conn}, nil
}

func (p *PostgresStore) Close(ctx context.Context) {
	if p.conn != nil {
		_ = p.conn.Close(ctx)
	}
}

func (p *PostgresStore) EnsureTables(ctx context.Context) error {
	_, err := p.conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
`)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.conn.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

func (p *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := p.conn.Exec(ctx, `INSERT INTO kv (key, value, updated_at)
VALUES ($1, $2, NOW()) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, key, value)
	if err != nil {
		log.Printf("failed to store %s: %v", key, err)
	}
	return err
}

func (p *PostgresStore) Del(ctx context.Context, key string) error {
	_, err := p.conn.Exec(ctx, `DELETE FROM kv WHERE key = $1`, key)
	return err
}
