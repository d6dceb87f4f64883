package ontology

import (
	"encoding/json"
	"fmt"

	"github.com/coregraph/typegraph/internal/ident"
)

// PropertyValidationError reports one property, identified by its
// BaseUrl, that failed validation against its declared property type.
type PropertyValidationError struct {
	Property ident.BaseUrl
	Cause    error
}

func (e *PropertyValidationError) Error() string {
	return fmt.Sprintf("ontology: property %q: %v", e.Property.String(), e.Cause)
}

func (e *PropertyValidationError) Unwrap() error { return e.Cause }

// ValidateProperties checks a decoded property bag against a closed
// entity type: every required property must be present, every present
// property must resolve to a declared PropertyTypeReference for its
// BaseUrl, and its JSON value must validate against that property
// type's OneOf alternatives. An undeclared property (not present in
// closed.Properties at all) is also rejected — the property bag is
// closed under the entity type's declared shape, matching the object
// constraint's default additionalProperties=false posture applied at
// the whole-entity level.
func ValidateProperties(resolver TypeResolver, closed ClosedEntityType, props map[ident.BaseUrl]json.RawMessage) []error {
	var errs []error

	for base := range props {
		if _, declared := closed.Properties[base]; !declared {
			errs = append(errs, &PropertyValidationError{Property: base, Cause: fmt.Errorf("property is not declared on this entity type")})
		}
	}

	for base := range closed.Required {
		if _, present := props[base]; !present {
			errs = append(errs, &PropertyValidationError{Property: base, Cause: fmt.Errorf("required property is missing")})
		}
	}

	for base, voa := range closed.Properties {
		raw, present := props[base]
		if !present {
			continue
		}

		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			errs = append(errs, &PropertyValidationError{Property: base, Cause: err})
			continue
		}

		if voa.IsArray() {
			items, ok := decoded.([]any)
			if !ok {
				errs = append(errs, &PropertyValidationError{Property: base, Cause: fmt.Errorf("expected an array of values")})
				continue
			}
			if err := voa.Array.Validate(len(items)); err != nil {
				errs = append(errs, &PropertyValidationError{Property: base, Cause: err})
				continue
			}
			for _, item := range items {
				if err := validateOnePropertyValue(resolver, voa.Array.Items.URL, item); err != nil {
					errs = append(errs, &PropertyValidationError{Property: base, Cause: err})
				}
			}
			continue
		}

		if err := validateOnePropertyValue(resolver, voa.Value.URL, decoded); err != nil {
			errs = append(errs, &PropertyValidationError{Property: base, Cause: err})
		}
	}

	return errs
}

// validateOnePropertyValue resolves url's PropertyType and checks that
// v matches at least one of its OneOf alternatives.
func validateOnePropertyValue(resolver TypeResolver, url ident.VersionedUrl, v any) error {
	pt, err := resolver.ResolvePropertyType(url)
	if err != nil {
		return &UnresolvedReferenceError{URL: url, Cause: err}
	}

	var last error
	for _, alt := range pt.OneOf {
		if err := validatePropertyValues(resolver, alt, v); err == nil {
			return nil
		} else {
			last = err
		}
	}
	if last == nil {
		last = fmt.Errorf("property type %s has no alternatives to validate against", url.String())
	}
	return last
}

func validatePropertyValues(resolver TypeResolver, pv PropertyValues, v any) error {
	switch {
	case pv.DataTypeRef != nil:
		dt, err := resolver.ResolveDataType(pv.DataTypeRef.URL)
		if err != nil {
			return &UnresolvedReferenceError{URL: pv.DataTypeRef.URL, Cause: err}
		}
		return dt.Validate(v)

	case pv.Object != nil:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("expected an object")
		}
		for baseStr, nestedVal := range obj {
			base, err := ident.ParseBaseUrl(baseStr)
			if err != nil {
				return fmt.Errorf("invalid property key %q: %w", baseStr, err)
			}
			voa, declared := pv.Object[base]
			if !declared {
				return fmt.Errorf("nested property %q is not declared", baseStr)
			}
			if voa.IsArray() {
				items, ok := nestedVal.([]any)
				if !ok {
					return fmt.Errorf("nested property %q: expected an array", baseStr)
				}
				for _, item := range items {
					if err := validateOnePropertyValue(resolver, voa.Array.Items.URL, item); err != nil {
						return err
					}
				}
				continue
			}
			if err := validateOnePropertyValue(resolver, voa.Value.URL, nestedVal); err != nil {
				return err
			}
		}
		return nil

	case pv.ArrayOf != nil:
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("expected an array")
		}
		for _, item := range items {
			if err := validatePropertyValues(resolver, *pv.ArrayOf, item); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("property values schema has no alternatives set")
}
