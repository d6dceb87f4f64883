package graphquery

import "testing"

func TestFilterVariantsImplementInterface(t *testing.T) {
	var filters = []Filter{
		All{Operands: []Filter{}},
		Any{Operands: []Filter{}},
		Not{Operand: All{}},
		Equal{LHS: PathExpression{Path: EntityTypeTitle()}, RHS: ParameterExpression{Parameter: TextParam("person")}},
		NotEqual{LHS: PathExpression{Path: DataTypeTitle()}, RHS: ParameterExpression{Parameter: TextParam("x")}},
		StartsWith{LHS: PathExpression{Path: EntityTypeBaseUrl()}, RHS: ParameterExpression{Parameter: TextParam("https://")}},
		EndsWith{LHS: PathExpression{Path: EntityTypeBaseUrl()}, RHS: ParameterExpression{Parameter: TextParam("/")}},
		ContainsSegment{LHS: PathExpression{Path: EntityTypeBaseUrl()}, RHS: ParameterExpression{Parameter: TextParam("person")}},
		CosineDistance{
			LHS:       PathExpression{Path: EntityProperties(FromPathTokens([]PathToken{FieldToken("embedding")}))},
			RHS:       ParameterExpression{Parameter: JSONParam([]float64{0.1, 0.2})},
			Threshold: ParameterExpression{Parameter: NumberParam(0.2)},
		},
	}
	if len(filters) == 0 {
		t.Fatal("expected at least one filter variant under test")
	}
}

func TestRecordTypeString(t *testing.T) {
	tests := []struct {
		rt   RecordType
		want string
	}{
		{RecordDataType, "DataType"},
		{RecordPropertyType, "PropertyType"},
		{RecordEntityType, "EntityType"},
		{RecordEntity, "Entity"},
	}
	for _, tt := range tests {
		if got := tt.rt.String(); got != tt.want {
			t.Errorf("RecordType(%d).String() = %q, want %q", tt.rt, got, tt.want)
		}
	}
}

func TestParameterListExpression(t *testing.T) {
	expr := ParameterListExpression{Parameters: []Parameter{TextParam("a"), TextParam("b")}}
	if len(expr.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(expr.Parameters))
	}
}
