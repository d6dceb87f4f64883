// Package postgres implements the store's durable backend over
// jackc/pgx/v5: the connection pool, OTel span/metric instrumentation,
// and backoff-bounded retry on top of it, then the ontology/entity/
// subgraph operations built from that foundation.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coregraph/typegraph/internal/config"
)

// Store wraps a pgxpool.Pool. Single statements issued through
// execContext, queryContext and queryRowContext (tracing.go) get tracing
// and retry; the transactions that CreateType, entity writes, restore,
// snapshot streams and EnsureSchema's DDL open use the pool directly.
type Store struct {
	pool *pgxpool.Pool
}

// Open parses cfg into a pgxpool.Config and establishes the pool.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening connection pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.pool.Close()
}
