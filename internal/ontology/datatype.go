package ontology

import "github.com/coregraph/typegraph/internal/ident"

// DataType is the foundation of the type system: a primitive JSON value
// kind plus its per-kind constraints.
type DataType struct {
	ID          ident.VersionedUrl
	Title       string
	Description string
	Constraints ValueConstraints
}

// DataTypeReference names a DataType by its versioned URL, as a property
// type or nested schema refers to it.
type DataTypeReference struct {
	URL ident.VersionedUrl
}

// ClosedDataType is a DataType with every AnyOf branch's own referenced
// data types resolved inline, so validation never has to chase a
// reference mid-check.
type ClosedDataType struct {
	Schemas map[ident.VersionedUrl]DataType
	DataType
}

// Validate checks a decoded JSON value against the data type's
// constraints. v is one of nil, bool, float64, string, []any, map[string]any
// as produced by encoding/json.
func (dt DataType) Validate(v any) error {
	return validateAgainstConstraints(dt.Constraints, v)
}

func validateAgainstConstraints(c ValueConstraints, v any) error {
	if len(c.AnyOf) > 0 {
		var last error
		for _, alt := range c.AnyOf {
			if err := validateAgainstConstraints(alt, v); err == nil {
				return nil
			} else {
				last = err
			}
		}
		return last
	}

	switch val := v.(type) {
	case nil:
		if c.Kind != KindNull {
			return &ConstraintError{Rule: "type", Message: "expected " + string(c.Kind) + ", got null"}
		}
	case bool:
		if c.Kind != KindBoolean {
			return &ConstraintError{Rule: "type", Message: "expected " + string(c.Kind) + ", got boolean"}
		}
	case float64:
		if c.Kind != KindNumber {
			return &ConstraintError{Rule: "type", Message: "expected " + string(c.Kind) + ", got number"}
		}
		if err := c.Number.Validate(val); err != nil {
			return err
		}
	case string:
		if c.Kind != KindString {
			return &ConstraintError{Rule: "type", Message: "expected " + string(c.Kind) + ", got string"}
		}
		if err := c.String.Validate(val); err != nil {
			return err
		}
	case []any:
		if c.Kind != KindArray {
			return &ConstraintError{Rule: "type", Message: "expected " + string(c.Kind) + ", got array"}
		}
		if err := c.Array.Validate(len(val)); err != nil {
			return err
		}
		for i, item := range val {
			itemConstraints := c.Array.Items
			if i < len(c.Array.PrefixItems) {
				itemConstraints = &c.Array.PrefixItems[i]
			}
			if itemConstraints != nil {
				if err := validateAgainstConstraints(*itemConstraints, item); err != nil {
					return err
				}
			}
		}
	case map[string]any:
		if c.Kind != KindObject {
			return &ConstraintError{Rule: "type", Message: "expected " + string(c.Kind) + ", got object"}
		}
		present := make(map[string]struct{}, len(val))
		for k := range val {
			present[k] = struct{}{}
		}
		if err := c.Object.Validate(present); err != nil {
			return err
		}
		for name, propConstraints := range c.Object.Properties {
			if pv, ok := val[name]; ok {
				if err := validateAgainstConstraints(propConstraints, pv); err != nil {
					return err
				}
			}
		}
	}

	if len(c.Enum) > 0 {
		ok := false
		for _, e := range c.Enum {
			if e == v {
				ok = true
				break
			}
		}
		if !ok {
			return &ConstraintError{Rule: "enum", Message: "value is not one of the enumerated constants"}
		}
	}

	return nil
}
