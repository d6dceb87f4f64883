package sqlcompiler

import "testing"

func TestJoinTypeForNullability(t *testing.T) {
	tests := []struct {
		name             string
		join, on         bool
		want             JoinType
	}{
		{"neither nullable", false, false, JoinInner},
		{"join side nullable", true, false, JoinLeftOuter},
		{"on side nullable", false, true, JoinRightOuter},
		{"both nullable", true, true, JoinFullOuter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinTypeFor(tt.join, tt.on); got != tt.want {
				t.Errorf("JoinTypeFor(%v, %v) = %v, want %v", tt.join, tt.on, got, tt.want)
			}
		})
	}
}

func TestFromForeignKeySingle(t *testing.T) {
	ref := Single{
		Join:         Column{Name: "entity_type_base_url"},
		On:           Column{Name: "entity_uuid"},
		JoinNullable: false,
		OnNullable:   false,
	}
	alias := Alias{ConditionIndex: 0, ChainDepth: 0, Number: 0}
	expr := FromForeignKey(ref, TableEntityIsOfType, alias, RootAlias)

	if expr.Type != JoinInner {
		t.Errorf("expected inner join, got %v", expr.Type)
	}
	if len(expr.Conditions) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(expr.Conditions))
	}
}

func TestFromForeignKeyDouble(t *testing.T) {
	ref := Double{
		Join: [2]Column{{Name: "target_base_url"}, {Name: "target_version"}},
		On:   [2]Column{{Name: "source_base_url"}, {Name: "source_version"}},
	}
	expr := FromForeignKey(ref, TableEntityTypeInheritsFrom, Alias{}, RootAlias)
	if len(expr.Conditions) != 2 {
		t.Fatalf("expected 2 ANDed conditions for a composite key, got %d", len(expr.Conditions))
	}
}
