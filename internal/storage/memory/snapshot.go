package memory

import (
	"context"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/storage"
)

// streamLocked runs emit while holding s.mu for reading, pushing
// whatever it sends on out, and closes both channels once emit returns
// or ctx is cancelled. It is the shared shape behind every All* method:
// the teacher's own ListSpecRegistry reads the whole map under one
// RLock; here the read is paired with a channel send so the snapshot
// pipeline can consume it as a stream instead of a slice.
func streamLocked[T any](ctx context.Context, s *Store, emit func(send func(T) bool)) (<-chan T, <-chan error) {
	out := make(chan T)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		s.mu.RLock()
		defer s.mu.RUnlock()
		emit(func(v T) bool {
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				errc <- ctx.Err()
				return false
			}
		})
	}()
	return out, errc
}

func (s *Store) AllDataTypes(ctx context.Context) (<-chan storage.DataTypeWithMetadata, <-chan error) {
	return streamLocked(ctx, s, func(send func(storage.DataTypeWithMetadata) bool) {
		for _, editions := range s.dataTypes {
			for _, ed := range editions {
				if !send(storage.DataTypeWithMetadata{Schema: *ed.data, Metadata: ed.meta}) {
					return
				}
			}
		}
	})
}

func (s *Store) AllPropertyTypes(ctx context.Context) (<-chan storage.PropertyTypeWithMetadata, <-chan error) {
	return streamLocked(ctx, s, func(send func(storage.PropertyTypeWithMetadata) bool) {
		for _, editions := range s.propertyTypes {
			for _, ed := range editions {
				if !send(storage.PropertyTypeWithMetadata{Schema: *ed.property, Metadata: ed.meta}) {
					return
				}
			}
		}
	})
}

func (s *Store) AllEntityTypes(ctx context.Context) (<-chan storage.EntityTypeWithMetadata, <-chan error) {
	return streamLocked(ctx, s, func(send func(storage.EntityTypeWithMetadata) bool) {
		for _, editions := range s.entityTypes {
			for _, ed := range editions {
				if !send(storage.EntityTypeWithMetadata{Schema: *ed.entity, Metadata: ed.meta}) {
					return
				}
			}
		}
	})
}

func (s *Store) AllWebs(ctx context.Context) (<-chan storage.WebRecord, <-chan error) {
	return streamLocked(ctx, s, func(send func(storage.WebRecord) bool) {
		for _, w := range s.webs {
			if !send(w) {
				return
			}
		}
	})
}

func (s *Store) AllActors(ctx context.Context) (<-chan storage.ActorRecord, <-chan error) {
	return streamLocked(ctx, s, func(send func(storage.ActorRecord) bool) {
		for _, a := range s.actors {
			if !send(a) {
				return
			}
		}
	})
}

func (s *Store) AllRoles(ctx context.Context) (<-chan storage.RoleRecord, <-chan error) {
	return streamLocked(ctx, s, func(send func(storage.RoleRecord) bool) {
		for _, r := range s.roles {
			if !send(r) {
				return
			}
		}
	})
}

func (s *Store) AllPolicies(ctx context.Context) (<-chan storage.PolicyRecord, <-chan error) {
	return streamLocked(ctx, s, func(send func(storage.PolicyRecord) bool) {
		for _, p := range s.policies {
			if !send(p) {
				return
			}
		}
	})
}

// AllEntities streams every edition of every entity, live and closed
// alike, since a snapshot dump moves the store's full history, not just
// its current state.
func (s *Store) AllEntities(ctx context.Context) (<-chan entity.Entity, <-chan error) {
	return streamLocked(ctx, s, func(send func(entity.Entity) bool) {
		for _, editions := range s.entities {
			for _, e := range editions {
				if !send(e) {
					return
				}
			}
		}
	})
}

// restoreTx stages restored records in plain slices until Commit, the
// in-memory analog of the Postgres backend's `X_tmp` staging tables.
// Nothing staged is visible to readers until Commit merges it in under
// s.mu.
type restoreTx struct {
	store *Store
	done  bool

	dataTypes     []storage.DataTypeWithMetadata
	propertyTypes []storage.PropertyTypeWithMetadata
	entityTypes   []storage.EntityTypeWithMetadata
	webs          []storage.WebRecord
	actors        []storage.ActorRecord
	roles         []storage.RoleRecord
	entities      []entity.Entity
	policies      []storage.PolicyRecord
}

// BeginRestore stages a fresh snapshot restore. Nothing written through
// the returned RestoreTx is visible until Commit.
func (s *Store) BeginRestore(_ context.Context) (storage.RestoreTx, error) {
	return &restoreTx{store: s}, nil
}

func (t *restoreTx) WriteDataTypes(_ context.Context, batch []storage.DataTypeWithMetadata) error {
	t.dataTypes = append(t.dataTypes, batch...)
	return nil
}

func (t *restoreTx) WritePropertyTypes(_ context.Context, batch []storage.PropertyTypeWithMetadata) error {
	t.propertyTypes = append(t.propertyTypes, batch...)
	return nil
}

func (t *restoreTx) WriteEntityTypes(_ context.Context, batch []storage.EntityTypeWithMetadata) error {
	t.entityTypes = append(t.entityTypes, batch...)
	return nil
}

func (t *restoreTx) WriteWebs(_ context.Context, batch []storage.WebRecord) error {
	t.webs = append(t.webs, batch...)
	return nil
}

func (t *restoreTx) WriteActors(_ context.Context, batch []storage.ActorRecord) error {
	t.actors = append(t.actors, batch...)
	return nil
}

func (t *restoreTx) WriteRoles(_ context.Context, batch []storage.RoleRecord) error {
	t.roles = append(t.roles, batch...)
	return nil
}

func (t *restoreTx) WriteEntities(_ context.Context, batch []entity.Entity) error {
	t.entities = append(t.entities, batch...)
	return nil
}

func (t *restoreTx) WritePolicies(_ context.Context, batch []storage.PolicyRecord) error {
	t.policies = append(t.policies, batch...)
	return nil
}

// Commit merges every staged batch into the live store in one locked
// pass. When validate is true, link endpoints are checked against the
// fully-merged picture before anything is kept; a failure leaves the
// store untouched. Required properties are not checked.
func (t *restoreTx) Commit(_ context.Context, validate bool) error {
	if t.done {
		return nil
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if validate {
		if err := t.validateLocked(); err != nil {
			return storage.Wrap(storage.KindValidation, "restore_commit", err)
		}
	}

	for _, dt := range t.dataTypes {
		id := dt.Schema.ID
		table := s.tableFor(storage.DataTypeKind)
		if _, ok := table[id.BaseURL]; !ok {
			table[id.BaseURL] = make(map[ident.OntologyTypeVersion]ontologyEdition)
		}
		schema := dt.Schema
		table[id.BaseURL][id.Version] = ontologyEdition{kind: storage.DataTypeKind, data: &schema, meta: dt.Metadata}
	}
	for _, pt := range t.propertyTypes {
		id := pt.Schema.ID
		table := s.tableFor(storage.PropertyTypeKind)
		if _, ok := table[id.BaseURL]; !ok {
			table[id.BaseURL] = make(map[ident.OntologyTypeVersion]ontologyEdition)
		}
		schema := pt.Schema
		table[id.BaseURL][id.Version] = ontologyEdition{kind: storage.PropertyTypeKind, property: &schema, meta: pt.Metadata}
	}
	for _, et := range t.entityTypes {
		id := et.Schema.ID
		table := s.tableFor(storage.EntityTypeKind)
		if _, ok := table[id.BaseURL]; !ok {
			table[id.BaseURL] = make(map[ident.OntologyTypeVersion]ontologyEdition)
		}
		schema := et.Schema
		table[id.BaseURL][id.Version] = ontologyEdition{kind: storage.EntityTypeKind, entity: &schema, meta: et.Metadata}
	}
	for _, w := range t.webs {
		s.webs[w.ID] = w
	}
	for _, a := range t.actors {
		s.actors[a.ID] = a
	}
	s.roles = append(s.roles, t.roles...)
	for _, e := range t.entities {
		s.entities[e.ID.EntityID] = append(s.entities[e.ID.EntityID], e)
	}
	for _, p := range t.policies {
		s.policies[p.ID] = p
	}

	t.done = true
	return nil
}

// Rollback discards every staged batch. It is a no-op after a
// successful Commit, so callers can defer it unconditionally.
func (t *restoreTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	*t = restoreTx{store: t.store, done: true}
	return nil
}

// validateLocked checks link endpoints across the union of the store's
// existing entities and this transaction's staged ones, mirroring the
// check the Postgres backend runs after committing its staging tables.
// Required properties are not checked. Caller must hold s.mu.
func (t *restoreTx) validateLocked() error {
	live := make(map[ident.EntityId]entity.Entity, len(t.store.entities)+len(t.entities))
	for _, editions := range t.store.entities {
		if e, _, err := t.store.currentEditionLocked(id); err == nil {
			live[id] = e
		}
	}
	for _, e := range t.entities {
		if e.Metadata.Temporal.TransactionTime.IsUnboundedEnd() && !e.Metadata.Archived {
			live[e.ID.EntityID] = e
		}
	}
	for id, e := range live {
		if e.LinkData == nil {
			continue
		}
		if _, ok := live[e.LinkData.LeftEntityID]; !ok {
			return &validationError{"entity " + id.EntityUUID.String() + " links to a missing left endpoint"}
		}
		if _, ok := live[e.LinkData.RightEntityID]; !ok {
			return &validationError{"entity " + id.EntityUUID.String() + " links to a missing right endpoint"}
		}
	}
	return nil
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return "memory: " + e.msg }
