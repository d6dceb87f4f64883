package temporal

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// CastInterval reinterprets a timestamp interval under a different axis
// tag, as Cast does for a single Timestamp. No values change.
func CastInterval[A2 Axis, A1 Axis](iv Interval[Timestamp[A1]]) Interval[Timestamp[A2]] {
	return Interval[Timestamp[A2]]{
		Start: recastBound[A2](iv.Start),
		End:   recastBound[A2](iv.End),
	}
}

func recastBound[A2 Axis, A1 Axis](b Bound[Timestamp[A1]]) Bound[Timestamp[A2]] {
	switch b.Kind {
	case Unbounded:
		return UnboundedBound[Timestamp[A2]]()
	case Included:
		return IncludedBound(Cast[A2](b.Value))
	default:
		return ExcludedBound(Cast[A2](b.Value))
	}
}

// sentinel timestamps FromRange treats as an open end: a bound at or
// beyond either of them decodes as Unbounded. ToRange never writes them;
// it encodes an open end as an unbounded range bound, so "+infinity" is
// stored as unbounded rather than as an extreme timestamp.
var (
	negativeInfinitySentinel = time.Date(-4712, time.January, 1, 0, 0, 0, 0, time.UTC)
	positiveInfinitySentinel = time.Date(294276, time.January, 1, 0, 0, 0, 0, time.UTC)
)

func isInfinitySentinel(t time.Time) bool {
	return t.Equal(negativeInfinitySentinel) || t.Equal(positiveInfinitySentinel) ||
		t.Year() <= -4712 || t.Year() >= 294276
}

// ToRange converts a Timestamp interval into the pgtype.Range value the
// pgx driver encodes as a `tstzrange` column.
func ToRange[A Axis](iv Interval[Timestamp[A]]) (pgtype.Range[time.Time], error) {
	r := pgtype.Range[time.Time]{Valid: true}

	switch iv.Start.Kind {
	case Unbounded:
		r.LowerType = pgtype.Unbounded
	case Included:
		r.LowerType = pgtype.Inclusive
		r.Lower = iv.Start.Value.Time()
	case Excluded:
		r.LowerType = pgtype.Exclusive
		r.Lower = iv.Start.Value.Time()
	}

	switch iv.End.Kind {
	case Unbounded:
		r.UpperType = pgtype.Unbounded
	case Included:
		return pgtype.Range[time.Time]{}, fmt.Errorf("temporal: cannot encode an Included end bound into a left-closed tstzrange column")
	case Excluded:
		r.UpperType = pgtype.Exclusive
		r.Upper = iv.End.Value.Time()
	}

	return r, nil
}

// FromRange decodes a pgtype.Range read back from a `tstzrange` column
// into a Timestamp interval. It rejects empty ranges (fatal per the
// store's invariants: the compiler never produces one and the schema
// never stores one) and maps ±infinity sentinels back to Unbounded.
func FromRange[A Axis](r pgtype.Range[time.Time]) (Interval[Timestamp[A]], error) {
	if !r.Valid {
		return Interval[Timestamp[A]]{}, fmt.Errorf("temporal: null range value")
	}
	if r.LowerType == pgtype.Empty || r.UpperType == pgtype.Empty {
		return Interval[Timestamp[A]]{}, fmt.Errorf("temporal: empty ranges are not supported")
	}

	var start Bound[Timestamp[A]]
	switch r.LowerType {
	case pgtype.Unbounded:
		start = UnboundedBound[Timestamp[A]]()
	case pgtype.Inclusive:
		if isInfinitySentinel(r.Lower) {
			start = UnboundedBound[Timestamp[A]]()
		} else {
			start = IncludedBound(FromTime[A](r.Lower))
		}
	case pgtype.Exclusive:
		if isInfinitySentinel(r.Lower) {
			start = UnboundedBound[Timestamp[A]]()
		} else {
			start = ExcludedBound(FromTime[A](r.Lower))
		}
	}

	var end Bound[Timestamp[A]]
	switch r.UpperType {
	case pgtype.Unbounded:
		end = UnboundedBound[Timestamp[A]]()
	case pgtype.Inclusive:
		if isInfinitySentinel(r.Upper) {
			end = UnboundedBound[Timestamp[A]]()
		} else {
			end = IncludedBound(FromTime[A](r.Upper))
		}
	case pgtype.Exclusive:
		if isInfinitySentinel(r.Upper) {
			end = UnboundedBound[Timestamp[A]]()
		} else {
			end = ExcludedBound(FromTime[A](r.Upper))
		}
	}

	return NewUnchecked(start, end), nil
}
