package sqlcompiler

import "testing"

func TestAliasString(t *testing.T) {
	a := Alias{ConditionIndex: 0, ChainDepth: 1, Number: 2}
	got := a.String(TableEntityTypes)
	want := "EntityTypes_0_1_2"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestAliasedTableString(t *testing.T) {
	at := AliasedTable{Table: TableEntities, Alias: RootAlias}
	want := "Entities AS Entities_0_0_0"
	if got := at.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTableStaging(t *testing.T) {
	staging := TableEntities.Staging()
	if staging.String() != "Entities_tmp" {
		t.Errorf("Staging().String() = %q, want %q", staging.String(), "Entities_tmp")
	}
	if TableEntities.String() != "Entities" {
		t.Errorf("original table must be unaffected by Staging(), got %q", TableEntities.String())
	}
}
