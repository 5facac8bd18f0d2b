package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/streetpass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KVStore = (*KVRepo)(nil)

// KVRepo is the SQLite implementation of the KVStore port. Each key is one
// row holding the raw JSON value.
type KVRepo struct {
	db *DB
}

// NewKVRepo creates a new KVRepo.
func NewKVRepo(db *DB) *KVRepo {
	return &KVRepo{db: db}
}

// Get returns the raw value for key, or (nil, nil) if the key is absent.
func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM kv WHERE key = ?`

	var value string
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get kv %q: %w", key, err)
	}
	return []byte(value), nil
}

// Set stores or replaces the raw value for key.
func (r *KVRepo) Set(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.Writer.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("set kv %q: %w", key, err)
	}
	return nil
}
