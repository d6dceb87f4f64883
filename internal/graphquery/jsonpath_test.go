package graphquery

import "testing"

func TestJsonPathString(t *testing.T) {
	tests := []struct {
		name   string
		tokens []PathToken
		want   string
	}{
		{
			name: "field then index then field",
			tokens: []PathToken{
				FieldToken("users"),
				IndexToken(0),
				FieldToken("name"),
			},
			want: `$."users"[0]."name"`,
		},
		{
			name:   "empty path",
			tokens: nil,
			want:   "$",
		},
		{
			name:   "field with embedded quote is escaped",
			tokens: []PathToken{FieldToken(`a"b`)},
			want:   `$."a\"b"`,
		},
		{
			name:   "negative index",
			tokens: []PathToken{FieldToken("items"), IndexToken(-1)},
			want:   `$."items"[-1]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromPathTokens(tt.tokens)
			if got := p.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJsonPathPushAppendsInOrder(t *testing.T) {
	p := NewJsonPath()
	p.Push(FieldToken("a"))
	p.Push(IndexToken(2))

	if got := p.String(); got != `$."a"[2]` {
		t.Errorf("String() = %q, want %q", got, `$."a"[2]`)
	}
	if len(p.PathTokens()) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(p.PathTokens()))
	}
}

func TestJsonPathMarshalJSON(t *testing.T) {
	p := FromPathTokens([]PathToken{FieldToken("title")})
	data, err := p.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `"$.\"title\""`
	if string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}
}
