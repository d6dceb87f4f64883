package temporal

import "fmt"

// InvalidBoundsError is returned by New when start > end or the requested
// bounds describe an empty range.
type InvalidBoundsError struct {
	Reason string
}

func (e *InvalidBoundsError) Error() string {
	return "temporal: invalid interval bounds: " + e.Reason
}

// Interval is a possibly-unbounded range over an Ordered value. The start
// bound is conventionally Included for the "left-closed" intervals this
// store uses everywhere (transaction time, decision time); New still
// accepts any combination and validates it, since the general algebra
// (Contains/Overlaps/...) doesn't require a closed start.
type Interval[T Ordered[T]] struct {
	Start Bound[T]
	End   Bound[T]
}

// New validates and constructs an Interval. It rejects start > end and
// empty ranges (an Excluded end equal to an Included start, or vice versa,
// at the same value).
func New[T Ordered[T]](start, end Bound[T]) (Interval[T], error) {
	iv := Interval[T]{Start: start, End: end}
	c := compareBounds(start, end, roleStart, roleEnd)
	if c > 0 {
		return Interval[T]{}, &InvalidBoundsError{Reason: "start is after end"}
	}
	if c == 0 && (start.Kind == Excluded || end.Kind == Excluded) && start.Kind != Unbounded && end.Kind != Unbounded {
		return Interval[T]{}, &InvalidBoundsError{Reason: "range is empty"}
	}
	return iv, nil
}

// NewUnchecked constructs an Interval without validation, for callers (the
// DB codec, internal compilers) that have already established the
// invariant by construction.
func NewUnchecked[T Ordered[T]](start, end Bound[T]) Interval[T] {
	return Interval[T]{Start: start, End: end}
}

// LeftClosed builds the standard `[start, end)` encoding: start is always
// Included, end is Excluded(v) or Unbounded.
func LeftClosed[T Ordered[T]](start T, end Bound[T]) (Interval[T], error) {
	if end.Kind == Included {
		return Interval[T]{}, &InvalidBoundsError{Reason: "left-closed interval end must be excluded or unbounded"}
	}
	return New(IncludedBound(start), end)
}

// Contains reports whether t falls inside the interval.
func (iv Interval[T]) Contains(t T) bool {
	point := IncludedBound(t)
	return compareBounds(iv.Start, point, roleStart, roleStart) <= 0 &&
		compareBounds(point, iv.End, roleEnd, roleEnd) <= 0
}

// StartValue returns the start bound's value and whether that bound is
// Included (false when Excluded or Unbounded — callers should not treat
// the returned value as meaningful in the Unbounded case).
func (iv Interval[T]) StartValue() (value T, included bool) {
	return iv.Start.Value, iv.Start.Kind == Included
}

// EndValue mirrors StartValue for the end bound.
func (iv Interval[T]) EndValue() (value T, included bool) {
	return iv.End.Value, iv.End.Kind == Included
}

// Overlaps reports whether iv and other share at least one point.
func (iv Interval[T]) Overlaps(other Interval[T]) bool {
	return compareBounds(iv.Start, other.End, roleStart, roleEnd) <= 0 &&
		compareBounds(other.Start, iv.End, roleStart, roleEnd) <= 0
}

// Meets reports whether iv ends exactly where other begins with no gap
// and no overlap: iv.End and other.Start share a value and exactly one of
// the two bounds is Included. It does not check the reverse order.
func (iv Interval[T]) Meets(other Interval[T]) bool {
	if iv.End.Kind == Unbounded || other.Start.Kind == Unbounded {
		return false
	}
	if iv.End.Value.Compare(other.Start.Value) != 0 {
		return false
	}
	return (iv.End.Kind == Included) != (other.Start.Kind == Included)
}

// Precedes reports whether iv ends strictly before other starts, with no
// adjacency.
func (iv Interval[T]) Precedes(other Interval[T]) bool {
	return compareBounds(iv.End, other.Start, roleEnd, roleStart) < 0 && !iv.Meets(other)
}

// AdjacentOrOverlaps reports whether iv and other overlap or meet with no
// gap between them — the condition under which two intervals can be
// merged into one contiguous interval.
func (iv Interval[T]) AdjacentOrOverlaps(other Interval[T]) bool {
	return iv.Overlaps(other) || iv.Meets(other) || other.Meets(iv)
}

// IsUnboundedEnd reports whether the interval's end extends to infinity.
func (iv Interval[T]) IsUnboundedEnd() bool { return iv.End.Kind == Unbounded }

// IsUnboundedStart reports whether the interval's start extends to -infinity.
func (iv Interval[T]) IsUnboundedStart() bool { return iv.Start.Kind == Unbounded }

func (iv Interval[T]) String() string {
	var start string
	switch iv.Start.Kind {
	case Unbounded:
		start = "(-inf"
	case Included:
		start = fmt.Sprintf("[%v", iv.Start.Value)
	case Excluded:
		start = fmt.Sprintf("(%v", iv.Start.Value)
	}
	var end string
	switch iv.End.Kind {
	case Unbounded:
		end = "+inf)"
	case Included:
		end = fmt.Sprintf("%v]", iv.End.Value)
	case Excluded:
		end = fmt.Sprintf("%v)", iv.End.Value)
	}
	return start + ", " + end
}
