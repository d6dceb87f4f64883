package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/sqlcompiler"
	"github.com/coregraph/typegraph/internal/storage"
)

// dbResolver implements ontology.TypeResolver against the live schema
// tables, so closure and property validation can chase references
// without the ontology package depending on this package.
type dbResolver struct {
	store *Store
	ctx   context.Context
}

func (s *Store) resolver(ctx context.Context) dbResolver {
	return dbResolver{store: s, ctx: ctx}
}

func (r dbResolver) ResolveDataType(id ident.VersionedUrl) (ontology.DataType, error) {
	var schema []byte
	err := r.store.queryRowContext(r.ctx, func(row pgx.Row) error {
		return row.Scan(&schema)
	}, `SELECT schema FROM `+sqlcompiler.TableDataTypes.String()+` WHERE base_url = $1 AND version = $2`,
		id.BaseURL.String(), id.Version,
	)
	if err != nil {
		return ontology.DataType{}, wrapPgError("resolve_data_type", err)
	}
	var dt ontology.DataType
	if err := dt.UnmarshalJSON(schema); err != nil {
		return ontology.DataType{}, storage.Wrap(storage.KindFatal, "resolve_data_type", err)
	}
	return dt, nil
}

func (r dbResolver) ResolvePropertyType(id ident.VersionedUrl) (ontology.PropertyType, error) {
	var schema []byte
	err := r.store.queryRowContext(r.ctx, func(row pgx.Row) error {
		return row.Scan(&schema)
	}, `SELECT schema FROM `+sqlcompiler.TablePropertyTypes.String()+` WHERE base_url = $1 AND version = $2`,
		id.BaseURL.String(), id.Version,
	)
	if err != nil {
		return ontology.PropertyType{}, wrapPgError("resolve_property_type", err)
	}
	var pt ontology.PropertyType
	if err := pt.UnmarshalJSON(schema); err != nil {
		return ontology.PropertyType{}, storage.Wrap(storage.KindFatal, "resolve_property_type", err)
	}
	return pt, nil
}

func (r dbResolver) ResolveEntityType(id ident.VersionedUrl) (ontology.EntityType, error) {
	var schema []byte
	err := r.store.queryRowContext(r.ctx, func(row pgx.Row) error {
		return row.Scan(&schema)
	}, `SELECT schema FROM `+sqlcompiler.TableEntityTypes.String()+` WHERE base_url = $1 AND version = $2`,
		id.BaseURL.String(), id.Version,
	)
	if err != nil {
		return ontology.EntityType{}, wrapPgError("resolve_entity_type", err)
	}
	var et ontology.EntityType
	if err := et.UnmarshalJSON(schema); err != nil {
		return ontology.EntityType{}, storage.Wrap(storage.KindFatal, "resolve_entity_type", err)
	}
	return et, nil
}

// closedEntityTypes resolves and closes every type in ids, the shared
// preparation step CreateEntity and UpdateEntity both need before they
// can validate a property bag.
func (s *Store) closedEntityTypes(ctx context.Context, ids []ident.VersionedUrl) (map[ident.VersionedUrl]ontology.ClosedEntityType, error) {
	resolver := s.resolver(ctx)
	closed := make(map[ident.VersionedUrl]ontology.ClosedEntityType, len(ids))
	for _, id := range ids {
		et, err := resolver.ResolveEntityType(id)
		if err != nil {
			return nil, storage.WrapID(storage.KindReference, "create_entity", id.String(), err)
		}
		c, err := ontology.ResolveEntityType(resolver, et)
		if err != nil {
			return nil, storage.Wrap(storage.KindValidation, "create_entity", err)
		}
		closed[id] = c
	}
	return closed, nil
}
