package storage

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// MaxRetries bounds deadlock/serialization retries per spec.md §5's
// locking discipline ("deadlock retries are bounded to N=5"), unlike the
// teacher's time-bounded dolt retry policy.
const MaxRetries = 5

// RetryClassifier reports whether err is a transient driver error worth
// retrying (connection reset, serialization failure, deadlock) as opposed
// to a logical error (constraint violation, missing reference) that must
// be surfaced immediately.
type RetryClassifier func(error) bool

// OnRetry is called once per retried attempt, before the backoff sleep;
// backends use it to increment their retry-count metric.
type OnRetry func(attempt int, err error)

// WithRetry runs op, retrying with exponential backoff up to MaxRetries
// times while classify reports the error as transient. A non-transient
// error is returned immediately via backoff.Permanent, short-circuiting
// the retry loop.
func WithRetry(ctx context.Context, classify RetryClassifier, onRetry OnRetry, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), MaxRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !classify(err) {
			return backoff.Permanent(err)
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		return err
	}, policy)
}
