// Package ontology implements the store's type system: data types,
// property types, and entity types, with per-kind constraint validation
// and entity-type closure over inherits_from.
package ontology

import (
	"fmt"
	"math"
	"regexp"

	"github.com/coregraph/typegraph/internal/ident"
)

// JSONValueKind is the JSON Schema primitive kind a DataType's value must
// match.
type JSONValueKind string

const (
	KindNull    JSONValueKind = "null"
	KindBoolean JSONValueKind = "boolean"
	KindNumber  JSONValueKind = "number"
	KindString  JSONValueKind = "string"
	KindArray   JSONValueKind = "array"
	KindObject  JSONValueKind = "object"
)

// ConstraintError describes one failed constraint check, carrying enough
// context to report which rule and value were involved.
type ConstraintError struct {
	Rule    string
	Message string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("ontology: constraint %q: %s", e.Rule, e.Message)
}

// NumberConstraints bounds a numeric value. Textual representation of the
// bounds is preserved by the caller (the JSON decoder keeps the original
// literal); only the parsed float64 is used for comparison.
type NumberConstraints struct {
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64
}

// Validate checks v against the constraint set. NaN is always rejected,
// matching IEEE-754 total-order comparison with NaN excluded as a value.
func (c NumberConstraints) Validate(v float64) error {
	if math.IsNaN(v) {
		return &ConstraintError{Rule: "number", Message: "NaN is not a valid value"}
	}
	if c.Minimum != nil {
		if c.ExclusiveMinimum && v <= *c.Minimum {
			return &ConstraintError{Rule: "exclusiveMinimum", Message: fmt.Sprintf("%v must be > %v", v, *c.Minimum)}
		}
		if !c.ExclusiveMinimum && v < *c.Minimum {
			return &ConstraintError{Rule: "minimum", Message: fmt.Sprintf("%v must be >= %v", v, *c.Minimum)}
		}
	}
	if c.Maximum != nil {
		if c.ExclusiveMaximum && v >= *c.Maximum {
			return &ConstraintError{Rule: "exclusiveMaximum", Message: fmt.Sprintf("%v must be < %v", v, *c.Maximum)}
		}
		if !c.ExclusiveMaximum && v > *c.Maximum {
			return &ConstraintError{Rule: "maximum", Message: fmt.Sprintf("%v must be <= %v", v, *c.Maximum)}
		}
	}
	if c.MultipleOf != nil && *c.MultipleOf != 0 {
		q := v / *c.MultipleOf
		if math.Abs(q-math.Round(q)) > 1e-9 {
			return &ConstraintError{Rule: "multipleOf", Message: fmt.Sprintf("%v is not a multiple of %v", v, *c.MultipleOf)}
		}
	}
	return nil
}

// StringFormat is a known format tag for StringConstraints.Format.
type StringFormat string

const (
	FormatDateTime StringFormat = "date-time"
	FormatDate     StringFormat = "date"
	FormatEmail    StringFormat = "email"
	FormatURI      StringFormat = "uri"
	FormatUUID     StringFormat = "uuid"
	FormatHostname StringFormat = "hostname"
)

// StringConstraints bounds a string value by length, anchored pattern,
// and a known format tag.
type StringConstraints struct {
	MinLength *int
	MaxLength *int
	Pattern   *regexp.Regexp
	Format    *StringFormat
}

func (c StringConstraints) Validate(s string) error {
	n := len([]rune(s))
	if c.MinLength != nil && n < *c.MinLength {
		return &ConstraintError{Rule: "minLength", Message: fmt.Sprintf("length %d is below minLength %d", n, *c.MinLength)}
	}
	if c.MaxLength != nil && n > *c.MaxLength {
		return &ConstraintError{Rule: "maxLength", Message: fmt.Sprintf("length %d exceeds maxLength %d", n, *c.MaxLength)}
	}
	if c.Pattern != nil && !c.Pattern.MatchString(s) {
		return &ConstraintError{Rule: "pattern", Message: fmt.Sprintf("%q does not match pattern %q", s, c.Pattern.String())}
	}
	if c.Format != nil {
		if err := validateFormat(*c.Format, s); err != nil {
			return err
		}
	}
	return nil
}

func validateFormat(format StringFormat, s string) error {
	var ok bool
	switch format {
	case FormatUUID:
		ok = uuidFormatRE.MatchString(s)
	case FormatEmail:
		ok = emailFormatRE.MatchString(s)
	case FormatURI:
		ok = uriFormatRE.MatchString(s)
	case FormatDateTime, FormatDate, FormatHostname:
		ok = true // delegated to a richer parser at a higher layer
	default:
		ok = true
	}
	if !ok {
		return &ConstraintError{Rule: "format", Message: fmt.Sprintf("%q is not a valid %s", s, format)}
	}
	return nil
}

var (
	uuidFormatRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	emailFormatRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	uriFormatRE   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

// ArrayConstraints bounds an array's length and, optionally, fixed
// "tuple" prefix item schemas distinct from the trailing items schema.
type ArrayConstraints struct {
	MinItems     *int
	MaxItems     *int
	PrefixItems  []ValueConstraints
	Items        *ValueConstraints
}

func (c ArrayConstraints) Validate(n int) error {
	if c.MinItems != nil && n < *c.MinItems {
		return &ConstraintError{Rule: "minItems", Message: fmt.Sprintf("length %d is below minItems %d", n, *c.MinItems)}
	}
	if c.MaxItems != nil && n > *c.MaxItems {
		return &ConstraintError{Rule: "maxItems", Message: fmt.Sprintf("length %d exceeds maxItems %d", n, *c.MaxItems)}
	}
	return nil
}

// ObjectConstraints validates a property bag: known property schemas,
// which of them are required, and whether unlisted properties are
// permitted.
type ObjectConstraints struct {
	Properties           map[string]ValueConstraints
	Required             []string
	AdditionalProperties bool
}

func (c ObjectConstraints) Validate(present map[string]struct{}) error {
	for _, r := range c.Required {
		if _, ok := present[r]; !ok {
			return &ConstraintError{Rule: "required", Message: fmt.Sprintf("missing required property %q", r)}
		}
	}
	if !c.AdditionalProperties {
		for name := range present {
			if _, known := c.Properties[name]; !known {
				return &ConstraintError{Rule: "additionalProperties", Message: fmt.Sprintf("unexpected property %q", name)}
			}
		}
	}
	return nil
}

// ValueConstraints is the per-kind constraint set attached to one
// DataType or nested schema position. Exactly the field matching Kind is
// meaningful.
type ValueConstraints struct {
	Kind   JSONValueKind
	Number NumberConstraints
	String StringConstraints
	Array  ArrayConstraints
	Object ObjectConstraints
	Enum   []any
	AnyOf  []ValueConstraints
	// Ref, when set, means this branch is an alias for another data
	// type rather than a constructor of its own; it participates in the
	// contractive-type check the same way an unwrapped union variant
	// does.
	Ref *ident.VersionedUrl
}
