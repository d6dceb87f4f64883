// Package temporal implements the bitemporal primitives the store is built
// on: axis-tagged timestamps, half-open intervals with a canonical bound
// comparator, and the codec that maps an interval onto a Postgres range
// column.
package temporal

import "time"

// Axis tags a Timestamp/Interval with the time dimension it measures.
// Axis carries no data; it exists purely so the compiler keeps a
// transaction-time value from being compared against a decision-time one.
type Axis interface {
	axisTag()
}

// DecisionTime is the axis recording when a fact was true in the world,
// as asserted by the client.
type DecisionTime struct{}

// TransactionTime is the axis recording when a fact was visible in the
// store, i.e. when the database committed it.
type TransactionTime struct{}

// VariableAxis is used where a timestamp or interval is pinned to
// whichever axis a query resolved against (a subgraph vertex revision,
// for instance, which may have been materialized along either axis).
type VariableAxis struct{}

func (DecisionTime) axisTag()    {}
func (TransactionTime) axisTag() {}
func (VariableAxis) axisTag()    {}

// Timestamp is an RFC-3339 UTC instant tagged with its axis. It is
// operationally opaque: callers compare and serialize it, never inspect the
// axis tag at runtime (the tag exists only at compile time).
type Timestamp[A Axis] struct {
	t time.Time
}

// Now returns the current instant tagged with axis A, truncated to
// microsecond precision to match Postgres' timestamptz resolution.
func Now[A Axis]() Timestamp[A] {
	return Timestamp[A]{t: time.Now().UTC().Truncate(time.Microsecond)}
}

// FromTime tags an existing time.Time with axis A, normalizing to UTC.
func FromTime[A Axis](t time.Time) Timestamp[A] {
	return Timestamp[A]{t: t.UTC().Truncate(time.Microsecond)}
}

// Time returns the underlying UTC time.Time.
func (ts Timestamp[A]) Time() time.Time { return ts.t }

// Compare returns -1, 0, or 1 per time.Time.Compare, satisfying the
// Ordered constraint used by Bound/Interval.
func (ts Timestamp[A]) Compare(other Timestamp[A]) int {
	return ts.t.Compare(other.t)
}

// String renders the timestamp in RFC-3339 with nanosecond precision
// trimmed, matching the wire format used by the snapshot encoder.
func (ts Timestamp[A]) String() string {
	return ts.t.Format(time.RFC3339Nano)
}

// MarshalJSON renders the timestamp as an RFC-3339 JSON string.
func (ts Timestamp[A]) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.t.Format(time.RFC3339Nano) + `"`), nil
}

// UnmarshalJSON parses an RFC-3339 JSON string into the timestamp.
func (ts *Timestamp[A]) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	ts.t = parsed.UTC()
	return nil
}

// Cast reinterprets a timestamp under a different axis tag with no change
// in value. Used when a variable-axis result is pinned to a concrete axis
// after a query resolves which axis it was materialized along.
func Cast[A2 Axis, A1 Axis](ts Timestamp[A1]) Timestamp[A2] {
	return Timestamp[A2]{t: ts.t}
}
