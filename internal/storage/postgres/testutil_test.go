package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/coregraph/typegraph/internal/config"
)

// testTimeout bounds any single test operation against a real database.
const testTimeout = 30 * time.Second

// testContext returns a context with timeout for test operations.
func testContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), testTimeout)
}

// skipIfNoPostgres skips the test unless a live Postgres instance answers
// at the PG* environment settings config.Load reads.
func skipIfNoPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	cfg := config.Load("", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	probe, err := Open(ctx, cfg)
	if err != nil {
		t.Skipf("postgres not reachable at %s:%d, skipping: %v", cfg.Host, cfg.Port, err)
	}
	defer probe.Close()

	if err := probe.pool.Ping(ctx); err != nil {
		t.Skipf("postgres not reachable at %s:%d, skipping: %v", cfg.Host, cfg.Port, err)
	}
	return cfg
}

// setupTestStore opens a Store against the configured Postgres instance,
// ensures its schema exists, and returns a cleanup that truncates every
// table this package touches so the next test starts from empty.
// Tests share one database rather than provisioning one per run, since
// CREATE DATABASE can't run inside the pool's transaction machinery;
// truncation between tests gives the same isolation the teacher's
// uniqueTestDBName gives Dolt, without requiring a superuser connection.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	cfg := skipIfNoPostgres(t)

	ctx, cancel := testContext(t)
	defer cancel()

	s, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		s.Close()
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if err := truncateAll(ctx, s); err != nil {
		s.Close()
		t.Fatalf("truncateAll failed: %v", err)
	}

	cleanup := func() {
		cleanCtx, cleanCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanCancel()
		_ = truncateAll(cleanCtx, s)
		s.Close()
	}
	return s, cleanup
}

func truncateAll(ctx context.Context, s *Store) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE TABLE
		Entities, EntityIsOfType, EntityHasLeftEntity, EntityHasRightEntity,
		DataTypes, PropertyTypes, EntityTypes,
		DataTypeInheritsFrom, PropertyTypeConstrainsValuesOn, PropertyTypeConstrainsPropertiesOn,
		EntityTypeInheritsFrom, EntityTypeConstrainsPropertiesOn,
		EntityTypeConstrainsLinksOn, EntityTypeConstrainsLinkDestinationsOn,
		OntologyTemporalMetadata, OntologyIds_owned, OntologyIds_external, OntologyIds,
		Roles, Policies, Actors, Webs`)
	return err
}
