package storage

import "fmt"

// ErrorKind is spec.md §7's error taxonomy: a small closed set of kinds,
// not types, each with its own propagation policy at the API boundary.
type ErrorKind int

const (
	// KindValidation: a schema, value, or constraint failed.
	KindValidation ErrorKind = iota
	// KindReference: an unresolved VersionedUrl or missing foreign key target.
	KindReference
	// KindConflict: duplicate identifier, version clash, lost update.
	KindConflict
	// KindTransient: driver I/O, serialization failure, deadlock — retried
	// with backoff up to storage.MaxRetries before surfacing.
	KindTransient
	// KindCancellation: caller-initiated; propagates without log noise.
	KindCancellation
	// KindFatal: an internal invariant broke. Surfaced with an opaque
	// incident id and logged at error level.
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindReference:
		return "reference"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	case KindCancellation:
		return "cancellation"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// StoreError is the single error type every backend wraps its failures
// into, carrying the taxonomy kind, the offending id(s) for the
// user-visible kinds, a JSON-pointer location for validation failures,
// and the underlying cause.
type StoreError struct {
	Kind     ErrorKind
	Op       string
	ID       string // offending identifier, when one applies (Reference/Conflict)
	Location string // JSON pointer, set only for KindValidation
	Err      error
}

func (e *StoreError) Error() string {
	switch {
	case e.Location != "":
		return fmt.Sprintf("storage: %s: %s at %s: %v", e.Op, e.Kind, e.Location, e.Err)
	case e.ID != "":
		return fmt.Sprintf("storage: %s: %s %q: %v", e.Op, e.Kind, e.ID, e.Err)
	default:
		return fmt.Sprintf("storage: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is supports errors.Is(err, KindSentinel) via the kind-tagged sentinels
// below: two *StoreError values match if their Kind matches.
func (e *StoreError) Is(target error) bool {
	other, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// kindSentinel builds the zero-cause *StoreError used purely as an
// errors.Is() match target for one kind (see Is above).
func kindSentinel(kind ErrorKind) *StoreError { return &StoreError{Kind: kind} }

// Sentinels for errors.Is(err, storage.ErrXxx) comparisons against any
// *StoreError of the matching kind, regardless of Op/ID/cause.
var (
	ErrValidation   = kindSentinel(KindValidation)
	ErrReference    = kindSentinel(KindReference)
	ErrConflict     = kindSentinel(KindConflict)
	ErrTransient    = kindSentinel(KindTransient)
	ErrCancellation = kindSentinel(KindCancellation)
	ErrFatal        = kindSentinel(KindFatal)
)

// Named conflict/reference cases create_type/update_type/archive_type
// distinguish in their documented failure modes.
var (
	ErrBaseUrlAlreadyExists = &StoreError{Kind: KindConflict, Op: "create_type", Err: fmt.Errorf("base URL already exists")}
	ErrVersionAlreadyExists = &StoreError{Kind: KindConflict, Op: "update_type", Err: fmt.Errorf("version already exists")}
	ErrReferenceMissing     = &StoreError{Kind: KindReference, Op: "create_type", Err: fmt.Errorf("referenced ontology URL does not resolve")}
	ErrLiveReferencesExist  = &StoreError{Kind: KindConflict, Op: "archive_type", Err: fmt.Errorf("live references exist, refusing to archive without cascade")}
	ErrNotFound             = &StoreError{Kind: KindReference, Op: "lookup", Err: fmt.Errorf("not found")}
)

// Wrap builds a *StoreError of kind, tagging it with op and cause.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Kind: kind, Op: op, Err: err}
}

// WrapID is Wrap plus the offending identifier, for Reference/Conflict
// errors the caller layer surfaces alongside the id.
func WrapID(kind ErrorKind, op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Kind: kind, Op: op, ID: id, Err: err}
}
