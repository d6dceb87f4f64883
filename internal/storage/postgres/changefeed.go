package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/coregraph/typegraph/internal/sqlcompiler"
	"github.com/coregraph/typegraph/internal/storage"
)

// lastModifiedQuery takes the most recent transaction-time event out of
// a table: a row's lower bound for a still-open (created) edition, or its
// upper bound for a closed (updated/archived) one, since closing an
// edition narrows transaction_time's upper end without moving its lower
// end.
func lastModifiedQuery(table sqlcompiler.Table) string {
	return `SELECT MAX(CASE WHEN upper_inf(transaction_time) THEN lower(transaction_time) ELSE upper(transaction_time) END) FROM ` + table.String()
}

// LastModified reports the wall-clock time of the most recent ontology
// or entity mutation accepted by this store, implementing
// storage.ChangeFeed. It returns the zero Time if the store has never
// been written to.
func (s *Store) LastModified(ctx context.Context) (time.Time, error) {
	var ontologyTime, entityTime *time.Time
	err := s.queryRowContext(ctx, func(row pgx.Row) error {
		return row.Scan(&ontologyTime, &entityTime)
	}, `SELECT (`+lastModifiedQuery(sqlcompiler.TableOntologyTemporalMetadata)+`), (`+lastModifiedQuery(sqlcompiler.TableEntities)+`)`)
	if err != nil {
		return time.Time{}, storage.Wrap(storage.KindFatal, "last_modified", err)
	}

	var latest time.Time
	if ontologyTime != nil && ontologyTime.After(latest) {
		latest = *ontologyTime
	}
	if entityTime != nil && entityTime.After(latest) {
		latest = *entityTime
	}
	return latest, nil
}
