// Package graphquery implements the query AST and path language that
// structural queries are built from: filters over typed paths, and the
// JsonPath sublanguage used to address into an entity's JSON property
// bag.
package graphquery

import (
	"encoding/json"
	"strconv"
	"strings"
)

// PathToken is one step of a JsonPath: either a field access by name or
// an array index. Exactly one of Field/Index is set.
type PathToken struct {
	Field *string
	Index *int
}

// FieldToken returns a PathToken addressing a JSON object field.
func FieldToken(name string) PathToken {
	return PathToken{Field: &name}
}

// IndexToken returns a PathToken addressing a JSON array element.
func IndexToken(index int) PathToken {
	return PathToken{Index: &index}
}

func (t PathToken) write(b *strings.Builder) {
	if t.Field != nil {
		b.WriteString(`."`)
		b.WriteString(strings.ReplaceAll(*t.Field, `"`, `\"`))
		b.WriteByte('"')
		return
	}
	b.WriteByte('[')
	b.WriteString(strconv.Itoa(*t.Index))
	b.WriteByte(']')
}

// JsonPath is an ordered list of PathToken, addressing a location within
// a JSON document the way a Postgres jsonpath literal would.
type JsonPath struct {
	path []PathToken
}

// NewJsonPath returns an empty JsonPath.
func NewJsonPath() JsonPath {
	return JsonPath{}
}

// FromPathTokens builds a JsonPath from an already-ordered token list.
func FromPathTokens(tokens []PathToken) JsonPath {
	return JsonPath{path: tokens}
}

// Push appends one token to the end of the path.
func (p *JsonPath) Push(token PathToken) {
	p.path = append(p.path, token)
}

// PathTokens returns the path's tokens in order.
func (p JsonPath) PathTokens() []PathToken {
	return p.path
}

// String renders the canonical serialization: $."field"[index]..., with
// `"` escaped as `\"` inside field names.
func (p JsonPath) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, tok := range p.path {
		tok.write(&b)
	}
	return b.String()
}

// MarshalJSON serializes a JsonPath as its canonical string form.
func (p JsonPath) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}
