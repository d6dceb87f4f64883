package memory

import (
	"context"
	"fmt"

	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/temporal"
)

func schemaAndID(params storage.CreateTypeParams) (id ident.VersionedUrl, ed ontologyEdition, err error) {
	switch params.Kind {
	case storage.DataTypeKind:
		if params.DataType == nil {
			return id, ed, fmt.Errorf("memory: CreateType(DataTypeKind) requires DataType")
		}
		return params.DataType.ID, ontologyEdition{kind: params.Kind, data: params.DataType}, nil
	case storage.PropertyTypeKind:
		if params.PropertyType == nil {
			return id, ed, fmt.Errorf("memory: CreateType(PropertyTypeKind) requires PropertyType")
		}
		return params.PropertyType.ID, ontologyEdition{kind: params.Kind, property: params.PropertyType}, nil
	case storage.EntityTypeKind:
		if params.EntityType == nil {
			return id, ed, fmt.Errorf("memory: CreateType(EntityTypeKind) requires EntityType")
		}
		return params.EntityType.ID, ontologyEdition{kind: params.Kind, entity: params.EntityType}, nil
	default:
		return id, ed, fmt.Errorf("memory: unknown type kind %v", params.Kind)
	}
}

// CreateType inserts the first edition of an ontology type into the
// in-memory table matching params.Kind.
func (s *Store) CreateType(_ context.Context, params storage.CreateTypeParams) (storage.OntologyMetadata, error) {
	id, ed, err := schemaAndID(params)
	if err != nil {
		return storage.OntologyMetadata{}, storage.Wrap(storage.KindValidation, "create_type", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.tableFor(params.Kind)
	editions, ok := table[id.BaseURL]
	if !ok {
		editions = make(map[ident.OntologyTypeVersion]ontologyEdition)
		table[id.BaseURL] = editions
	} else if _, exists := editions[id.Version]; exists {
		return storage.OntologyMetadata{}, storage.WrapID(storage.KindConflict, "create_type", id.BaseURL.String(), storage.ErrVersionAlreadyExists)
	}

	now := temporal.Now[temporal.TransactionTime]()
	validity, err := temporal.LeftClosed[temporal.Timestamp[temporal.TransactionTime]](now, temporal.UnboundedBound[temporal.Timestamp[temporal.TransactionTime]]())
	if err != nil {
		return storage.OntologyMetadata{}, storage.Wrap(storage.KindFatal, "create_type", err)
	}

	ed.meta = storage.OntologyMetadata{
		RecordID:        id,
		Ownership:       params.Owner,
		TransactionTime: validity,
		Provenance:      ident.EditionProvenance{CreatedByID: params.ActorID, Provided: params.Provided},
	}
	editions[id.Version] = ed
	s.touchLocked()
	return ed.meta, nil
}

// UpdateType assigns BaseURL its next version and otherwise follows the
// same insert shape as CreateType.
func (s *Store) UpdateType(ctx context.Context, params storage.UpdateTypeParams) (storage.OntologyMetadata, error) {
	s.mu.RLock()
	table := s.tableFor(params.Kind)
	editions, ok := table[params.BaseURL]
	var nextVersion ident.OntologyTypeVersion
	if ok {
		var max ident.OntologyTypeVersion
		for v := range editions {
			if v > max {
				max = v
			}
		}
		nextVersion = max + 1
	}
	s.mu.RUnlock()
	if !ok {
		return storage.OntologyMetadata{}, storage.WrapID(storage.KindReference, "update_type", params.BaseURL.String(), fmt.Errorf("base URL does not exist"))
	}

	create := storage.CreateTypeParams{
		Kind: params.Kind, DataType: params.DataType, PropertyType: params.PropertyType, EntityType: params.EntityType,
		ActorID: params.ActorID, Provided: params.Provided,
	}
	switch params.Kind {
	case storage.DataTypeKind:
		create.DataType.ID.Version = nextVersion
	case storage.PropertyTypeKind:
		create.PropertyType.ID.Version = nextVersion
	case storage.EntityTypeKind:
		create.EntityType.ID.Version = nextVersion
	}
	return s.CreateType(ctx, create)
}

// ArchiveType closes id's transaction_time interval, refusing if other
// live editions still reference it unless cascade is set.
func (s *Store) ArchiveType(_ context.Context, id ident.VersionedUrl, actorID ident.ActorId, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind, ed, ok := s.findEdition(id)
	if !ok {
		return storage.WrapID(storage.KindReference, "archive_type", id.String(), storage.ErrNotFound)
	}

	if !cascade && s.hasLiveReferences(kind, id) {
		return storage.WrapID(storage.KindConflict, "archive_type", id.String(), storage.ErrLiveReferencesExist)
	}

	now := temporal.Now[temporal.TransactionTime]()
	closed, err := temporal.LeftClosed[temporal.Timestamp[temporal.TransactionTime]](
		ed.meta.TransactionTime.Start.Value, temporal.ExcludedBound(now),
	)
	if err != nil {
		return storage.Wrap(storage.KindFatal, "archive_type", err)
	}
	ed.meta.TransactionTime = closed
	ed.meta.Provenance.ArchivedByID = &actorID
	s.tableFor(kind)[id.BaseURL][id.Version] = ed
	s.touchLocked()
	return nil
}

func (s *Store) findEdition(id ident.VersionedUrl) (storage.TypeKind, ontologyEdition, bool) {
	for _, kind := range []storage.TypeKind{storage.DataTypeKind, storage.PropertyTypeKind, storage.EntityTypeKind} {
		if editions, ok := s.tableFor(kind)[id.BaseURL]; ok {
			if ed, ok := editions[id.Version]; ok {
				return kind, ed, true
			}
		}
	}
	return 0, ontologyEdition{}, false
}

// hasLiveReferences reports whether id is still referenced: a data type
// by any stored property type, a property type by any stored entity
// type, an entity type by an entity type's inherits_from or by an
// unarchived entity. It is the in-memory equivalent of the join-table scan the
// Postgres backend performs before archiving without cascade.
func (s *Store) hasLiveReferences(kind storage.TypeKind, id ident.VersionedUrl) bool {
	switch kind {
	case storage.DataTypeKind:
		for _, editions := range s.propertyTypes {
			for _, ed := range editions {
				for _, alt := range ed.property.OneOf {
					if alt.DataTypeRef != nil && alt.DataTypeRef.URL == id {
						return true
					}
				}
			}
		}
	case storage.PropertyTypeKind:
		for _, editions := range s.entityTypes {
			for _, ed := range editions {
				for _, voa := range ed.entity.Properties {
					if voaReferences(voa, id) {
						return true
					}
				}
			}
		}
	case storage.EntityTypeKind:
		for _, editions := range s.entityTypes {
			for _, ed := range editions {
				for _, ancestor := range ed.entity.InheritsFrom {
					if ancestor.URL == id {
						return true
					}
				}
			}
		}
		for _, eds := range s.entities {
			for _, e := range eds {
				if e.Metadata.Archived {
					continue
				}
				for _, t := range e.Metadata.EntityTypeIDs {
					if t == id {
						return true
					}
				}
			}
		}
	}
	return false
}

func voaReferences(voa ontology.ValueOrArray[ontology.PropertyTypeReference], id ident.VersionedUrl) bool {
	if voa.IsArray() {
		return voa.Array.Items.URL == id
	}
	return voa.Value.URL == id
}
