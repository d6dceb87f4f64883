package temporal

import (
	"testing"
	"time"
)

func ts(sec int64) Timestamp[TransactionTime] {
	return FromTime[TransactionTime](time.Unix(sec, 0))
}

func TestIntervalContains(t *testing.T) {
	tests := []struct {
		name  string
		iv    Interval[Timestamp[TransactionTime]]
		point int64
		want  bool
	}{
		{
			name: "inside left-closed range",
			iv:   NewUnchecked(IncludedBound(ts(10)), ExcludedBound(ts(20))),
			point: 10,
			want:  true,
		},
		{
			name:  "excluded end is not contained",
			iv:    NewUnchecked(IncludedBound(ts(10)), ExcludedBound(ts(20))),
			point: 20,
			want:  false,
		},
		{
			name:  "unbounded end contains far future",
			iv:    NewUnchecked(IncludedBound(ts(10)), UnboundedBound[Timestamp[TransactionTime]]()),
			point: 1 << 40,
			want:  true,
		},
		{
			name:  "before start is not contained",
			iv:    NewUnchecked(IncludedBound(ts(10)), UnboundedBound[Timestamp[TransactionTime]]()),
			point: 9,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.iv.Contains(ts(tt.point)); got != tt.want {
				t.Errorf("Contains(%d) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

// TestIntervalContainsStartEndProperty exercises the universal invariant
// from the spec: i.Contains(i.start_value()) iff the start is Included,
// and the symmetric claim for the end.
func TestIntervalContainsStartEndProperty(t *testing.T) {
	cases := []struct {
		name string
		iv   Interval[Timestamp[TransactionTime]]
	}{
		{"left-closed finite", NewUnchecked(IncludedBound(ts(5)), ExcludedBound(ts(15)))},
		{"left-closed unbounded end", NewUnchecked(IncludedBound(ts(5)), UnboundedBound[Timestamp[TransactionTime]]())},
		{"excluded start", NewUnchecked(ExcludedBound(ts(5)), ExcludedBound(ts(15)))},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.iv.Start.Kind != Unbounded {
				gotStart := c.iv.Contains(c.iv.Start.Value)
				wantStart := c.iv.Start.Kind == Included
				if gotStart != wantStart {
					t.Errorf("Contains(start) = %v, want %v", gotStart, wantStart)
				}
			}
			if c.iv.End.Kind != Unbounded {
				gotEnd := c.iv.Contains(c.iv.End.Value)
				wantEnd := c.iv.End.Kind == Included
				if gotEnd != wantEnd {
					t.Errorf("Contains(end) = %v, want %v", gotEnd, wantEnd)
				}
			}
		})
	}
}

func TestNewRejectsInvertedBounds(t *testing.T) {
	_, err := New(IncludedBound(ts(20)), ExcludedBound(ts(10)))
	if err == nil {
		t.Fatal("expected error for start after end")
	}
}

func TestNewRejectsEmptyRange(t *testing.T) {
	_, err := New(IncludedBound(ts(10)), ExcludedBound(ts(10)))
	if err == nil {
		t.Fatal("expected error for empty range [10, 10)")
	}
}

func TestLeftClosedRejectsIncludedEnd(t *testing.T) {
	_, err := LeftClosed[Timestamp[TransactionTime]](ts(10), IncludedBound(ts(20)))
	if err == nil {
		t.Fatal("expected error: left-closed intervals cannot have an Included end")
	}
}

func TestOverlapsAndMeets(t *testing.T) {
	a := NewUnchecked(IncludedBound(ts(0)), ExcludedBound(ts(10)))
	b := NewUnchecked(IncludedBound(ts(10)), ExcludedBound(ts(20)))
	c := NewUnchecked(IncludedBound(ts(5)), ExcludedBound(ts(15)))

	if a.Overlaps(b) {
		t.Error("[0,10) and [10,20) should not overlap")
	}
	if !a.Meets(b) {
		t.Error("[0,10) should meet [10,20)")
	}
	if !a.Overlaps(c) {
		t.Error("[0,10) and [5,15) should overlap")
	}
	if !a.AdjacentOrOverlaps(b) {
		t.Error("[0,10) and [10,20) should be adjacent-or-overlapping")
	}
}

func TestPrecedes(t *testing.T) {
	a := NewUnchecked(IncludedBound(ts(0)), ExcludedBound(ts(10)))
	b := NewUnchecked(IncludedBound(ts(20)), ExcludedBound(ts(30)))
	if !a.Precedes(b) {
		t.Error("[0,10) should precede [20,30)")
	}
	if b.Precedes(a) {
		t.Error("[20,30) should not precede [0,10)")
	}
}

func TestCompareBoundsUnboundedOrdering(t *testing.T) {
	unboundedStart := UnboundedBound[Timestamp[TransactionTime]]()
	finiteStart := IncludedBound(ts(0))
	if compareBounds(unboundedStart, finiteStart, roleStart, roleStart) >= 0 {
		t.Error("an unbounded start must sort before any finite start")
	}

	unboundedEnd := UnboundedBound[Timestamp[TransactionTime]]()
	finiteEnd := ExcludedBound(ts(0))
	if compareBounds(unboundedEnd, finiteEnd, roleEnd, roleEnd) <= 0 {
		t.Error("an unbounded end must sort after any finite end")
	}
}

func TestCompareBoundsExcludedTieBreak(t *testing.T) {
	// end of [.., v) vs start of (v, ..] at the same value v: the end
	// must sort before the start, i.e. they describe adjacent, non-
	// overlapping intervals.
	excludedEnd := ExcludedBound(ts(5))
	excludedStart := ExcludedBound(ts(5))
	if compareBounds(excludedEnd, excludedStart, roleEnd, roleStart) >= 0 {
		t.Error("an excluded end must sort before an excluded start at the same value")
	}
}
