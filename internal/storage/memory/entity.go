package memory

import (
	"context"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/temporal"
)

// resolver implements ontology.TypeResolver against the in-memory
// ontology tables, the fake's equivalent of the Postgres backend's
// dbResolver. It does no locking of its own: every caller reaches it
// while already holding s.mu, and sync.RWMutex isn't reentrant, so a
// resolver method taking the lock itself would deadlock against its
// own caller.
type resolver struct{ store *Store }

func (r resolver) ResolveDataType(id ident.VersionedUrl) (ontology.DataType, error) {
	editions, ok := r.store.dataTypes[id.BaseURL]
	if !ok {
		return ontology.DataType{}, storage.WrapID(storage.KindReference, "resolve_data_type", id.String(), storage.ErrNotFound)
	}
	ed, ok := editions[id.Version]
	if !ok {
		return ontology.DataType{}, storage.WrapID(storage.KindReference, "resolve_data_type", id.String(), storage.ErrNotFound)
	}
	return *ed.data, nil
}

func (r resolver) ResolvePropertyType(id ident.VersionedUrl) (ontology.PropertyType, error) {
	editions, ok := r.store.propertyTypes[id.BaseURL]
	if !ok {
		return ontology.PropertyType{}, storage.WrapID(storage.KindReference, "resolve_property_type", id.String(), storage.ErrNotFound)
	}
	ed, ok := editions[id.Version]
	if !ok {
		return ontology.PropertyType{}, storage.WrapID(storage.KindReference, "resolve_property_type", id.String(), storage.ErrNotFound)
	}
	return *ed.property, nil
}

func (r resolver) ResolveEntityType(id ident.VersionedUrl) (ontology.EntityType, error) {
	editions, ok := r.store.entityTypes[id.BaseURL]
	if !ok {
		return ontology.EntityType{}, storage.WrapID(storage.KindReference, "resolve_entity_type", id.String(), storage.ErrNotFound)
	}
	ed, ok := editions[id.Version]
	if !ok {
		return ontology.EntityType{}, storage.WrapID(storage.KindReference, "resolve_entity_type", id.String(), storage.ErrNotFound)
	}
	return *ed.entity, nil
}

// closedEntityTypes resolves and closes every type in ids, mirroring the
// Postgres backend's shared preparation step.
func (s *Store) closedEntityTypes(ids []ident.VersionedUrl) (map[ident.VersionedUrl]ontology.ClosedEntityType, error) {
	r := resolver{store: s}
	closed := make(map[ident.VersionedUrl]ontology.ClosedEntityType, len(ids))
	for _, id := range ids {
		et, err := r.ResolveEntityType(id)
		if err != nil {
			return nil, storage.WrapID(storage.KindReference, "create_entity", id.String(), err)
		}
		c, err := ontology.ResolveEntityType(r, et)
		if err != nil {
			return nil, storage.Wrap(storage.KindValidation, "create_entity", err)
		}
		closed[id] = c
	}
	return closed, nil
}

// CreateEntity validates params against its entity types' closed property
// sets, then appends the first edition to id's in-memory edition list.
func (s *Store) CreateEntity(_ context.Context, params entity.CreateParams) (entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	closed, err := s.closedEntityTypes(params.EntityTypeIDs)
	if err != nil {
		return entity.Entity{}, err
	}

	entityID := ident.EntityId{WebID: ownerWebID(params.Owner), EntityUUID: ident.NewEntityUuid()}
	now := temporal.Now[temporal.TransactionTime]()

	checkLinkEndpoints := func(linkType ident.VersionedUrl, left, right ident.EntityId) error {
		return s.checkLinkEndpointsLocked(left, right)
	}

	e, err := entity.Create(resolver{store: s}, closed, checkLinkEndpoints, params, entityID, now)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindValidation, "create_entity", err)
	}

	s.entities[entityID] = append(s.entities[entityID], e)
	s.touchLocked()
	return e, nil
}

// UpdateEntity fetches id's current edition, closes it, and appends patch
// as the next edition.
func (s *Store) UpdateEntity(_ context.Context, id ident.EntityId, patch entity.Properties, actorID ident.ActorId, provided ident.ProvidedEditionProvenance) (entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, idx, err := s.currentEditionLocked(id)
	if err != nil {
		return entity.Entity{}, err
	}

	closed, err := s.closedEntityTypes(prev.Metadata.EntityTypeIDs)
	if err != nil {
		return entity.Entity{}, err
	}

	now := temporal.Now[temporal.TransactionTime]()
	closedPrev, next, err := entity.Update(resolver{store: s}, closed, prev, patch, actorID, now, provided)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindValidation, "update_entity", err)
	}

	s.entities[id][idx] = closedPrev
	s.entities[id] = append(s.entities[id], next)
	s.touchLocked()
	return next, nil
}

// ArchiveEntity closes id's current edition and stamps it archived,
// without appending a replacement.
func (s *Store) ArchiveEntity(_ context.Context, id ident.EntityId, actorID ident.ActorId) (entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, idx, err := s.currentEditionLocked(id)
	if err != nil {
		return entity.Entity{}, err
	}

	now := temporal.Now[temporal.TransactionTime]()
	archived, err := entity.Archive(prev, actorID, now)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindFatal, "archive_entity", err)
	}

	s.entities[id][idx] = archived
	s.touchLocked()
	return archived, nil
}

// currentEditionLocked returns id's live (unarchived, transaction-time-open)
// edition and its index in s.entities[id]. Caller must hold s.mu.
func (s *Store) currentEditionLocked(id ident.EntityId) (entity.Entity, int, error) {
	editions := s.entities[id]
	for i := len(editions) - 1; i >= 0; i-- {
		if editions[i].Metadata.Temporal.TransactionTime.IsUnboundedEnd() {
			return editions[i], i, nil
		}
	}
	return entity.Entity{}, -1, storage.WrapID(storage.KindReference, "update_entity", id.EntityUUID.String(), storage.ErrNotFound)
}

// checkLinkEndpointsLocked verifies that both link endpoints currently
// exist as live entities. Caller must hold s.mu.
func (s *Store) checkLinkEndpointsLocked(left, right ident.EntityId) error {
	for _, id := range []ident.EntityId{left, right} {
		if _, _, err := s.currentEditionLocked(id); err != nil {
			return storage.WrapID(storage.KindReference, "create_entity", id.EntityUUID.String(), storage.ErrNotFound)
		}
	}
	return nil
}

func ownerWebID(owner ident.Ownership) ident.WebId {
	if owner.Owned != nil {
		return *owner.Owned
	}
	return ident.WebId{}
}
