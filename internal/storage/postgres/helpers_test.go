package postgres

import (
	"testing"

	"github.com/google/uuid"

	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
)

// mustBaseURL parses s into a BaseUrl, failing the test on error.
func mustBaseURL(t *testing.T, s string) ident.BaseUrl {
	t.Helper()
	u, err := ident.ParseBaseUrl(s)
	if err != nil {
		t.Fatalf("ParseBaseUrl(%q) failed: %v", s, err)
	}
	return u
}

func versioned(base ident.BaseUrl, v ident.OntologyTypeVersion) ident.VersionedUrl {
	return ident.VersionedUrl{BaseURL: base, Version: v}
}

func testActor() ident.ActorId {
	return ident.NewActorId(ident.ActorUser, uuid.New())
}

func textDataType(base ident.BaseUrl) *ontology.DataType {
	return &ontology.DataType{
		ID:          versioned(base, 1),
		Title:       "Text",
		Description: "A plain string",
		Constraints: ontology.ValueConstraints{Kind: ontology.KindString},
	}
}
