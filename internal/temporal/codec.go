package temporal

import (
	"encoding/json"
	"fmt"
)

func (k BoundKind) wireName() string {
	switch k {
	case Unbounded:
		return "unbounded"
	case Included:
		return "included"
	case Excluded:
		return "excluded"
	default:
		return "unbounded"
	}
}

func parseBoundKind(s string) (BoundKind, error) {
	switch s {
	case "unbounded":
		return Unbounded, nil
	case "included":
		return Included, nil
	case "excluded":
		return Excluded, nil
	default:
		return Unbounded, fmt.Errorf("temporal: unknown bound kind %q", s)
	}
}

// MarshalJSON renders the bound as {"kind":"unbounded"|"included"|"excluded"}
// plus a "value" member when Kind isn't Unbounded.
func (b Bound[T]) MarshalJSON() ([]byte, error) {
	if b.Kind == Unbounded {
		return json.Marshal(struct {
			Kind string `json:"kind"`
		}{b.Kind.wireName()})
	}
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value T      `json:"value"`
	}{b.Kind.wireName(), b.Value})
}

// UnmarshalJSON parses the {"kind":...,"value":...} bound form.
func (b *Bound[T]) UnmarshalJSON(data []byte) error {
	var j struct {
		Kind  string          `json:"kind"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	kind, err := parseBoundKind(j.Kind)
	if err != nil {
		return err
	}
	b.Kind = kind
	if kind == Unbounded {
		return nil
	}
	return json.Unmarshal(j.Value, &b.Value)
}

// MarshalJSON renders the interval as its {"start":Bound,"end":Bound} form.
func (iv Interval[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start Bound[T] `json:"start"`
		End   Bound[T] `json:"end"`
	}{iv.Start, iv.End})
}

// UnmarshalJSON parses the {"start":Bound,"end":Bound} interval form
// without re-running the invariant checks New/LeftClosed perform; callers
// reading back a snapshot are expected to have written a valid interval.
func (iv *Interval[T]) UnmarshalJSON(data []byte) error {
	var j struct {
		Start Bound[T] `json:"start"`
		End   Bound[T] `json:"end"`
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	iv.Start, iv.End = j.Start, j.End
	return nil
}
