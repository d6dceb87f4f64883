// Package memory implements storage.Store entirely in process memory, for
// fast unit tests that don't need a live Postgres instance.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/storage"
)

// ontologyEdition is one stored edition of a data/property/entity type,
// carrying whichever schema pointer matches its kind plus the metadata
// CreateType/UpdateType/ArchiveType track.
type ontologyEdition struct {
	kind     storage.TypeKind
	data     *ontology.DataType
	property *ontology.PropertyType
	entity   *ontology.EntityType
	meta     storage.OntologyMetadata
}

// entityEdition is one stored edition of an entity.
type entityEdition = entity.Entity

// Store is an in-memory storage.Store. Every ontology map is keyed by
// base URL then version, mirroring the edition-per-row shape the Postgres backend
// persists, so the two implementations can share the same test suite.
type Store struct {
	mu sync.RWMutex

	dataTypes     map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition
	propertyTypes map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition
	entityTypes   map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition

	// entities is keyed by canonical entity id; each slice holds every
	// edition ever written, latest last, so Archive/Update can close the
	// tail edition without a separate index.
	entities map[ident.EntityId][]entityEdition

	// webs/actors/roles/policies back the snapshot pipeline's passthrough
	// principal/policy streams (storage.WebRecord et al.); this store
	// never interprets them.
	webs     map[ident.WebId]storage.WebRecord
	actors   map[ident.ActorId]storage.ActorRecord
	roles    []storage.RoleRecord
	policies map[string]storage.PolicyRecord

	// lastModified is the wall-clock time of the most recent type or
	// entity mutation, the in-process equivalent of the teacher's
	// dirty_issues marked_at column, generalized to a single watermark
	// rather than a per-record dirty set.
	lastModified time.Time
}

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{
		dataTypes:     make(map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition),
		propertyTypes: make(map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition),
		entityTypes:   make(map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition),
		entities:      make(map[ident.EntityId][]entityEdition),
		webs:          make(map[ident.WebId]storage.WebRecord),
		actors:        make(map[ident.ActorId]storage.ActorRecord),
		policies:      make(map[string]storage.PolicyRecord),
	}
}

// touchLocked stamps lastModified with the current time. Caller must
// already hold s.mu for writing.
func (s *Store) touchLocked() {
	s.lastModified = time.Now()
}

// LastModified reports the wall-clock time of the most recent type or
// entity mutation this store has accepted, so a watcher can poll for
// changes without re-scanning the whole store.
func (s *Store) LastModified(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastModified, nil
}

func (s *Store) tableFor(kind storage.TypeKind) map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition {
	switch kind {
	case storage.DataTypeKind:
		return s.dataTypes
	case storage.PropertyTypeKind:
		return s.propertyTypes
	case storage.EntityTypeKind:
		return s.entityTypes
	default:
		panic("memory: unknown type kind")
	}
}

