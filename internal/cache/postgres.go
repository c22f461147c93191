package cache

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCache is the persistent LookupCache backend, storing entries in a
// cache table alongside the marker data.
type PostgresCache struct {
	db *pgxpool.Pool
}

// NewPostgresCache creates a cache over the given pool. The cache table is
// created by the importer or the deployment's migrations.
func NewPostgresCache(db *pgxpool.Pool) *PostgresCache {
	return &PostgresCache{db: db}
}

// Schema is the DDL for the cache table.
const Schema = `
CREATE TABLE IF NOT EXISTS locator_cache (
	cache_id VARCHAR(127) PRIMARY KEY,
	expires BIGINT NOT NULL,
	tags TEXT[] NOT NULL DEFAULT '{}',
	data BYTEA
);
`

// Set upserts the entry with an absolute expiry.
func (c *PostgresCache) Set(key string, data []byte, tags []string, ttlMinutes int) error {
	sql := `
		INSERT INTO locator_cache (cache_id, expires, tags, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_id)
		DO UPDATE SET expires = $2, tags = $3, data = $4
	`
	_, err := c.db.Exec(context.Background(), sql,
		MakeKey(key), expiry(ttlMinutes).Unix(), withBaseTag(tags), data)
	if err != nil {
		return fmt.Errorf("cache: failed to store entry: %w", err)
	}
	return nil
}

// Get returns the data for key. Expiry is enforced in the query, so stale
// rows still physically present are reported as misses.
func (c *PostgresCache) Get(key string) ([]byte, bool) {
	sql := `
		SELECT data FROM locator_cache
		WHERE cache_id = $1 AND expires > EXTRACT(EPOCH FROM NOW())
	`
	var data []byte
	err := c.db.QueryRow(context.Background(), sql, MakeKey(key)).Scan(&data)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Delete removes a single entry.
func (c *PostgresCache) Delete(key string) error {
	_, err := c.db.Exec(context.Background(),
		`DELETE FROM locator_cache WHERE cache_id = $1`, MakeKey(key))
	if err != nil {
		return fmt.Errorf("cache: failed to delete entry: %w", err)
	}
	return nil
}

// Clear removes every entry carrying all of the given tags.
func (c *PostgresCache) Clear(tags ...string) error {
	_, err := c.db.Exec(context.Background(),
		`DELETE FROM locator_cache WHERE tags @> $1`, withBaseTag(tags))
	if err != nil {
		return fmt.Errorf("cache: failed to clear entries: %w", err)
	}
	return nil
}
