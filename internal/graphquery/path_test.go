package graphquery

import "testing"

func TestPathRecordTypes(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want RecordType
	}{
		{"data type title", DataTypeTitle(), RecordDataType},
		{"property type data types", PropertyTypeDataTypes(DataTypeBaseUrl()), RecordPropertyType},
		{"entity type inherits from", EntityTypeInheritsFrom(EntityTypeTitle()), RecordEntityType},
		{"entity properties", EntityProperties(FromPathTokens([]PathToken{FieldToken("name")})), RecordEntity},
		{"entity left entity", EntityLeftEntity(EntityUuid()), RecordEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.RecordType(); got != tt.want {
				t.Errorf("RecordType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntityTypeRecursivePath(t *testing.T) {
	leaf := EntityTypeTitle()
	recursive := EntityTypeInheritsFrom(leaf)
	if recursive.inherits == nil {
		t.Fatal("expected inherits_from path to retain its nested path")
	}
	if recursive.inherits.variant != entityTypePathTitle {
		t.Errorf("expected nested path to be Title, got variant %d", recursive.inherits.variant)
	}
}
