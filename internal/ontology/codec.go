package ontology

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/coregraph/typegraph/internal/ident"
)

// The wire/storage representation of every ontology record uses
// camelCase field names, per spec.md §6: "value bodies follow the
// structures in §3 (bit-exact field names in camelCase)". These jsonXxx
// mirror types carry encoding/json tags; the exported Marshal/Unmarshal
// methods below translate to and from the domain types in this package.

type jsonValueConstraints struct {
	Type                 JSONValueKind           `json:"type,omitempty"`
	Minimum              *float64                `json:"minimum,omitempty"`
	Maximum              *float64                `json:"maximum,omitempty"`
	ExclusiveMinimum     bool                    `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum     bool                    `json:"exclusiveMaximum,omitempty"`
	MultipleOf           *float64                `json:"multipleOf,omitempty"`
	MinLength            *int                    `json:"minLength,omitempty"`
	MaxLength            *int                    `json:"maxLength,omitempty"`
	Pattern              string                  `json:"pattern,omitempty"`
	Format               *StringFormat           `json:"format,omitempty"`
	MinItems             *int                    `json:"minItems,omitempty"`
	MaxItems             *int                    `json:"maxItems,omitempty"`
	PrefixItems          []jsonValueConstraints  `json:"prefixItems,omitempty"`
	Items                *jsonValueConstraints   `json:"items,omitempty"`
	Properties           map[string]jsonValueConstraints `json:"properties,omitempty"`
	Required             []string                `json:"required,omitempty"`
	AdditionalProperties *bool                   `json:"additionalProperties,omitempty"`
	Enum                 []any                   `json:"enum,omitempty"`
	AnyOf                []jsonValueConstraints  `json:"anyOf,omitempty"`
	Ref                  string                  `json:"$ref,omitempty"`
}

func toJSONConstraints(c ValueConstraints) jsonValueConstraints {
	j := jsonValueConstraints{Type: c.Kind}
	switch c.Kind {
	case KindNumber:
		j.Minimum, j.Maximum = c.Number.Minimum, c.Number.Maximum
		j.ExclusiveMinimum, j.ExclusiveMaximum = c.Number.ExclusiveMinimum, c.Number.ExclusiveMaximum
		j.MultipleOf = c.Number.MultipleOf
	case KindString:
		j.MinLength, j.MaxLength = c.String.MinLength, c.String.MaxLength
		if c.String.Pattern != nil {
			j.Pattern = c.String.Pattern.String()
		}
		j.Format = c.String.Format
	case KindArray:
		j.MinItems, j.MaxItems = c.Array.MinItems, c.Array.MaxItems
		for _, p := range c.Array.PrefixItems {
			j.PrefixItems = append(j.PrefixItems, toJSONConstraints(p))
		}
		if c.Array.Items != nil {
			items := toJSONConstraints(*c.Array.Items)
			j.Items = &items
		}
	case KindObject:
		if len(c.Object.Properties) > 0 {
			j.Properties = make(map[string]jsonValueConstraints, len(c.Object.Properties))
			for name, p := range c.Object.Properties {
				j.Properties[name] = toJSONConstraints(p)
			}
		}
		j.Required = c.Object.Required
		additional := c.Object.AdditionalProperties
		j.AdditionalProperties = &additional
	}
	j.Enum = c.Enum
	for _, alt := range c.AnyOf {
		j.AnyOf = append(j.AnyOf, toJSONConstraints(alt))
	}
	if c.Ref != nil {
		j.Ref = c.Ref.String()
	}
	return j
}

func fromJSONConstraints(j jsonValueConstraints) (ValueConstraints, error) {
	c := ValueConstraints{Kind: j.Type, Enum: j.Enum}
	switch j.Type {
	case KindNumber:
		c.Number = NumberConstraints{
			Minimum: j.Minimum, Maximum: j.Maximum,
			ExclusiveMinimum: j.ExclusiveMinimum, ExclusiveMaximum: j.ExclusiveMaximum,
			MultipleOf: j.MultipleOf,
		}
	case KindString:
		c.String = StringConstraints{MinLength: j.MinLength, MaxLength: j.MaxLength, Format: j.Format}
		if j.Pattern != "" {
			re, err := regexp.Compile(j.Pattern)
			if err != nil {
				return ValueConstraints{}, fmt.Errorf("ontology: invalid pattern %q: %w", j.Pattern, err)
			}
			c.String.Pattern = re
		}
	case KindArray:
		c.Array = ArrayConstraints{MinItems: j.MinItems, MaxItems: j.MaxItems}
		for _, p := range j.PrefixItems {
			item, err := fromJSONConstraints(p)
			if err != nil {
				return ValueConstraints{}, err
			}
			c.Array.PrefixItems = append(c.Array.PrefixItems, item)
		}
		if j.Items != nil {
			item, err := fromJSONConstraints(*j.Items)
			if err != nil {
				return ValueConstraints{}, err
			}
			c.Array.Items = &item
		}
	case KindObject:
		if len(j.Properties) > 0 {
			c.Object.Properties = make(map[string]ValueConstraints, len(j.Properties))
			for name, p := range j.Properties {
				prop, err := fromJSONConstraints(p)
				if err != nil {
					return ValueConstraints{}, err
				}
				c.Object.Properties[name] = prop
			}
		}
		c.Object.Required = j.Required
		if j.AdditionalProperties != nil {
			c.Object.AdditionalProperties = *j.AdditionalProperties
		}
	}
	for _, alt := range j.AnyOf {
		parsed, err := fromJSONConstraints(alt)
		if err != nil {
			return ValueConstraints{}, err
		}
		c.AnyOf = append(c.AnyOf, parsed)
	}
	if j.Ref != "" {
		url, err := ident.ParseVersionedUrl(j.Ref)
		if err != nil {
			return ValueConstraints{}, err
		}
		c.Ref = &url
	}
	return c, nil
}

type jsonDataType struct {
	ID          ident.VersionedUrl `json:"$id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	jsonValueConstraints
}

// MarshalJSON renders the data type as its JSON Schema subset form.
func (dt DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonDataType{
		ID:                   dt.ID,
		Title:                dt.Title,
		Description:          dt.Description,
		jsonValueConstraints: toJSONConstraints(dt.Constraints),
	})
}

// UnmarshalJSON parses the JSON Schema subset form back into a DataType.
func (dt *DataType) UnmarshalJSON(data []byte) error {
	var j jsonDataType
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	constraints, err := fromJSONConstraints(j.jsonValueConstraints)
	if err != nil {
		return err
	}
	dt.ID, dt.Title, dt.Description, dt.Constraints = j.ID, j.Title, j.Description, constraints
	return nil
}

type jsonValueOrArray struct {
	Ref      string            `json:"$ref,omitempty"`
	Items    *jsonValueOrArray `json:"items,omitempty"`
	MinItems *int              `json:"minItems,omitempty"`
	MaxItems *int              `json:"maxItems,omitempty"`
}

func toJSONValueOrArray(v ValueOrArray[PropertyTypeReference]) jsonValueOrArray {
	if v.IsArray() {
		inner := jsonValueOrArray{Ref: v.Array.Items.URL.String()}
		return jsonValueOrArray{Items: &inner, MinItems: v.Array.MinItems, MaxItems: v.Array.MaxItems}
	}
	return jsonValueOrArray{Ref: v.Value.URL.String()}
}

func fromJSONValueOrArray(j jsonValueOrArray) (ValueOrArray[PropertyTypeReference], error) {
	if j.Items != nil {
		url, err := ident.ParseVersionedUrl(j.Items.Ref)
		if err != nil {
			return ValueOrArray[PropertyTypeReference]{}, err
		}
		return ValueOrArray[PropertyTypeReference]{
			Array: &Array[PropertyTypeReference]{
				Items: PropertyTypeReference{URL: url}, MinItems: j.MinItems, MaxItems: j.MaxItems,
			},
		}, nil
	}
	url, err := ident.ParseVersionedUrl(j.Ref)
	if err != nil {
		return ValueOrArray[PropertyTypeReference]{}, err
	}
	value := PropertyTypeReference{URL: url}
	return ValueOrArray[PropertyTypeReference]{Value: &value}, nil
}

type jsonPropertyValues struct {
	DataTypeRef string                      `json:"$ref,omitempty"`
	Object      map[string]jsonValueOrArray `json:"properties,omitempty"`
	ArrayOf     *jsonPropertyValues         `json:"items,omitempty"`
}

func toJSONPropertyValues(v PropertyValues) jsonPropertyValues {
	j := jsonPropertyValues{}
	switch {
	case v.DataTypeRef != nil:
		j.DataTypeRef = v.DataTypeRef.URL.String()
	case v.ArrayOf != nil:
		inner := toJSONPropertyValues(*v.ArrayOf)
		j.ArrayOf = &inner
	default:
		j.Object = make(map[string]jsonValueOrArray, len(v.Object))
		for base, slot := range v.Object {
			j.Object[base.String()] = toJSONValueOrArray(slot)
		}
	}
	return j
}

func fromJSONPropertyValues(j jsonPropertyValues) (PropertyValues, error) {
	switch {
	case j.DataTypeRef != "":
		url, err := ident.ParseVersionedUrl(j.DataTypeRef)
		if err != nil {
			return PropertyValues{}, err
		}
		return PropertyValues{DataTypeRef: &DataTypeReference{URL: url}}, nil
	case j.ArrayOf != nil:
		inner, err := fromJSONPropertyValues(*j.ArrayOf)
		if err != nil {
			return PropertyValues{}, err
		}
		return PropertyValues{ArrayOf: &inner}, nil
	default:
		obj := make(map[ident.BaseUrl]ValueOrArray[PropertyTypeReference], len(j.Object))
		for baseStr, slot := range j.Object {
			base, err := ident.ParseBaseUrl(baseStr)
			if err != nil {
				return PropertyValues{}, err
			}
			parsed, err := fromJSONValueOrArray(slot)
			if err != nil {
				return PropertyValues{}, err
			}
			obj[base] = parsed
		}
		return PropertyValues{Object: obj}, nil
	}
}

type jsonPropertyType struct {
	ID          ident.VersionedUrl   `json:"$id"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	OneOf       []jsonPropertyValues `json:"oneOf"`
}

// MarshalJSON renders the property type in its camelCase wire form.
func (pt PropertyType) MarshalJSON() ([]byte, error) {
	j := jsonPropertyType{ID: pt.ID, Title: pt.Title, Description: pt.Description}
	for _, alt := range pt.OneOf {
		j.OneOf = append(j.OneOf, toJSONPropertyValues(alt))
	}
	return json.Marshal(j)
}

// UnmarshalJSON parses the camelCase wire form back into a PropertyType.
func (pt *PropertyType) UnmarshalJSON(data []byte) error {
	var j jsonPropertyType
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	pt.ID, pt.Title, pt.Description = j.ID, j.Title, j.Description
	pt.OneOf = nil
	for _, alt := range j.OneOf {
		parsed, err := fromJSONPropertyValues(alt)
		if err != nil {
			return err
		}
		pt.OneOf = append(pt.OneOf, parsed)
	}
	return nil
}

type jsonEntityType struct {
	ID           ident.VersionedUrl          `json:"$id"`
	Title        string                      `json:"title"`
	Description  string                      `json:"description,omitempty"`
	Properties   map[string]jsonValueOrArray `json:"properties,omitempty"`
	Required     []string                    `json:"required,omitempty"`
	Links        map[string]jsonLinkEntry    `json:"links,omitempty"`
	InheritsFrom []string                    `json:"allOf,omitempty"`
}

type jsonLinkEntry struct {
	OneOf    []string `json:"oneOf,omitempty"`
	Ordered  bool     `json:"ordered,omitempty"`
	MinItems *int     `json:"minItems,omitempty"`
	MaxItems *int     `json:"maxItems,omitempty"`
}

// MarshalJSON renders the entity type in its camelCase wire form.
func (et EntityType) MarshalJSON() ([]byte, error) {
	j := jsonEntityType{ID: et.ID, Title: et.Title, Description: et.Description}
	if len(et.Properties) > 0 {
		j.Properties = make(map[string]jsonValueOrArray, len(et.Properties))
		for base, slot := range et.Properties {
			j.Properties[base.String()] = toJSONValueOrArray(slot)
		}
	}
	for base := range et.Required {
		j.Required = append(j.Required, base.String())
	}
	if len(et.Links) > 0 {
		j.Links = make(map[string]jsonLinkEntry, len(et.Links))
		for linkType, dest := range et.Links {
			entry := jsonLinkEntry{Ordered: dest.Ordered, MinItems: dest.Array.MinItems, MaxItems: dest.Array.MaxItems}
			for _, poss := range dest.Array.Items.Possibilities {
				entry.OneOf = append(entry.OneOf, poss.URL.String())
			}
			j.Links[linkType.String()] = entry
		}
	}
	for _, ref := range et.InheritsFrom {
		j.InheritsFrom = append(j.InheritsFrom, ref.URL.String())
	}
	return json.Marshal(j)
}

// UnmarshalJSON parses the camelCase wire form back into an EntityType.
func (et *EntityType) UnmarshalJSON(data []byte) error {
	var j jsonEntityType
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	et.ID, et.Title, et.Description = j.ID, j.Title, j.Description

	if len(j.Properties) > 0 {
		et.Properties = make(map[ident.BaseUrl]ValueOrArray[PropertyTypeReference], len(j.Properties))
		for baseStr, slot := range j.Properties {
			base, err := ident.ParseBaseUrl(baseStr)
			if err != nil {
				return err
			}
			parsed, err := fromJSONValueOrArray(slot)
			if err != nil {
				return err
			}
			et.Properties[base] = parsed
		}
	}

	if len(j.Required) > 0 {
		et.Required = make(map[ident.BaseUrl]struct{}, len(j.Required))
		for _, baseStr := range j.Required {
			base, err := ident.ParseBaseUrl(baseStr)
			if err != nil {
				return err
			}
			et.Required[base] = struct{}{}
		}
	}

	if len(j.Links) > 0 {
		et.Links = make(Links, len(j.Links))
		for linkTypeStr, entry := range j.Links {
			linkType, err := ident.ParseVersionedUrl(linkTypeStr)
			if err != nil {
				return err
			}
			var possibilities []EntityTypeReference
			for _, possStr := range entry.OneOf {
				url, err := ident.ParseVersionedUrl(possStr)
				if err != nil {
					return err
				}
				possibilities = append(possibilities, EntityTypeReference{URL: url})
			}
			et.Links[linkType] = MaybeOrderedArray[OneOf[EntityTypeReference]]{
				Ordered: entry.Ordered,
				Array: Array[OneOf[EntityTypeReference]]{
					Items:    OneOf[EntityTypeReference]{Possibilities: possibilities},
					MinItems: entry.MinItems,
					MaxItems: entry.MaxItems,
				},
			}
		}
	}

	for _, refStr := range j.InheritsFrom {
		url, err := ident.ParseVersionedUrl(refStr)
		if err != nil {
			return err
		}
		et.InheritsFrom = append(et.InheritsFrom, EntityTypeReference{URL: url})
	}
	return nil
}
