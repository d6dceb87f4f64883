package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/coregraph/typegraph/internal/storage"
)

// pgTracer is the OTel tracer for SQL-level spans, scoped to this package
// per the ambient tracing convention; it uses the global provider, which
// is a no-op until the caller configures one.
var pgTracer = otel.Tracer("github.com/coregraph/typegraph/storage/postgres")

// pgMetrics holds the OTel metric instruments every Store shares.
var pgMetrics struct {
	retryCount metric.Int64Counter
	lockWaitMs metric.Float64Histogram
}

func init() {
	m := otel.Meter("github.com/coregraph/typegraph/storage/postgres")
	pgMetrics.retryCount, _ = m.Int64Counter("typegraph.db.retry_count",
		metric.WithDescription("SQL operations retried due to transient driver errors"),
		metric.WithUnit("{retry}"),
	)
	pgMetrics.lockWaitMs, _ = m.Float64Histogram("typegraph.db.lock_wait_ms",
		metric.WithDescription("Time spent waiting to acquire a row lock before a deadlock retry"),
		metric.WithUnit("ms"),
	)
}

// spanAttrs returns the fixed attributes shared by every SQL span.
func spanAttrs() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
	}
}

// spanSQL truncates a SQL string to keep spans readable.
func spanSQL(q string) string {
	if len(q) > 300 {
		return q[:300] + "…"
	}
	return q
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// execContext wraps pool.Exec with a span and transient-error retry.
func (s *Store) execContext(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	ctx, span := pgTracer.Start(ctx, "postgres.exec",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(spanAttrs(),
			attribute.String("db.operation", "exec"),
			attribute.String("db.statement", spanSQL(query)),
		)...),
	)
	var tag pgconn.CommandTag
	err := s.withRetry(ctx, func() error {
		var execErr error
		tag, execErr = s.pool.Exec(ctx, query, args...)
		return execErr
	})
	endSpan(span, err)
	return tag, err
}

// queryContext wraps pool.Query with a span and transient-error retry.
func (s *Store) queryContext(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	ctx, span := pgTracer.Start(ctx, "postgres.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(spanAttrs(),
			attribute.String("db.operation", "query"),
			attribute.String("db.statement", spanSQL(query)),
		)...),
	)
	var rows pgx.Rows
	err := s.withRetry(ctx, func() error {
		var queryErr error
		rows, queryErr = s.pool.Query(ctx, query, args...)
		return queryErr
	})
	endSpan(span, err)
	return rows, err
}

// queryRowContext wraps pool.QueryRow with a span and transient-error
// retry. scan receives the pgx.Row and should call .Scan() on it.
func (s *Store) queryRowContext(ctx context.Context, scan func(pgx.Row) error, query string, args ...any) error {
	ctx, span := pgTracer.Start(ctx, "postgres.query_row",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(spanAttrs(),
			attribute.String("db.operation", "query_row"),
			attribute.String("db.statement", spanSQL(query)),
		)...),
	)
	err := s.withRetry(ctx, func() error {
		return scan(s.pool.QueryRow(ctx, query, args...))
	})
	endSpan(span, err)
	return err
}

// withRetry runs op through storage.WithRetry, classifying pgx/pgconn
// errors and recording the retry-count metric.
func (s *Store) withRetry(ctx context.Context, op func() error) error {
	attempts := 0
	err := storage.WithRetry(ctx, isRetryableError, func(attempt int, _ error) {
		attempts = attempt
	}, op)
	if attempts > 0 {
		pgMetrics.retryCount.Add(ctx, int64(attempts))
	}
	return err
}
