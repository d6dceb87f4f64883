package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coregraph/typegraph/internal/graphquery"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/sqlcompiler"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/subgraph"
	"github.com/coregraph/typegraph/internal/temporal"
)

// GetSubgraph compiles query's filter into a root SELECT, loads the
// matching vertices, then expands outward from them one edge category at
// a time up to depths, breadth first, per spec.md §4.5's resolve-depths
// traversal.
func (s *Store) GetSubgraph(ctx context.Context, query storage.StructuralQuery, depths subgraph.GraphResolveDepths) (*subgraph.Subgraph, error) {
	sg := subgraph.NewSubgraph(depths)

	roots, err := s.selectRoots(ctx, query)
	if err != nil {
		return nil, err
	}

	switch query.RecordType {
	case graphquery.RecordEntity:
		frontier := make([]ident.EntityId, 0, len(roots))
		for _, r := range roots {
			id := r.(ident.EntityId)
			frontier = append(frontier, id)
		}
		subgraph.SortFrontier(frontier, entityIdKey)
		if err := s.loadEntityVertices(ctx, sg, frontier); err != nil {
			return nil, err
		}
		if err := s.expandFromEntities(ctx, sg, frontier, depths); err != nil {
			return nil, err
		}
	default:
		frontier := make([]ident.VersionedUrl, 0, len(roots))
		for _, r := range roots {
			frontier = append(frontier, r.(ident.VersionedUrl))
		}
		subgraph.SortFrontier(frontier, versionedUrlKey)
		if err := s.loadOntologyVertices(ctx, sg, frontier); err != nil {
			return nil, err
		}
		if err := s.expandFromOntologyTypes(ctx, sg, frontier, depths); err != nil {
			return nil, err
		}
	}

	return sg, nil
}

// selectRoots compiles query's filter against its record type's base
// table and returns the matching identities: ident.EntityId for
// RecordEntity, ident.VersionedUrl otherwise.
func (s *Store) selectRoots(ctx context.Context, query storage.StructuralQuery) ([]any, error) {
	compiler := sqlcompiler.NewSelectCompilerFor(query.RecordType)
	cond, err := compiler.CompileFilter(query.Filter)
	if err != nil {
		return nil, storage.Wrap(storage.KindValidation, "get_subgraph", err)
	}

	var selects []sqlcompiler.Column
	if query.RecordType == graphquery.RecordEntity {
		selects = []sqlcompiler.Column{
			{Table: sqlcompiler.TableEntities, Name: "web_id"},
			{Table: sqlcompiler.TableEntities, Name: "entity_uuid"},
			{Table: sqlcompiler.TableEntities, Name: "draft_id"},
		}
	} else {
		table := sqlcompiler.TableEntityTypes
		switch query.RecordType {
		case graphquery.RecordDataType:
			table = sqlcompiler.TableDataTypes
		case graphquery.RecordPropertyType:
			table = sqlcompiler.TablePropertyTypes
		}
		selects = []sqlcompiler.Column{
			{Table: table, Name: "base_url"},
			{Table: table, Name: "version"},
		}
	}

	stmt := compiler.Build(selects, cond)
	sql, params := sqlcompiler.Transpile(stmt, compiler.Parameters())
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = paramArg(p)
	}

	rows, err := s.queryContext(ctx, sql, args...)
	if err != nil {
		return nil, wrapPgError("get_subgraph", err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		if query.RecordType == graphquery.RecordEntity {
			var webID, entityUUID string
			var draftID *string
			if err := rows.Scan(&webID, &entityUUID, &draftID); err != nil {
				return nil, wrapPgError("get_subgraph", err)
			}
			out = append(out, entityIDFromStrings(webID, entityUUID, draftID))
			continue
		}
		var baseURL string
		var version uint32
		if err := rows.Scan(&baseURL, &version); err != nil {
			return nil, wrapPgError("get_subgraph", err)
		}
		u, err := ident.ParseBaseUrl(baseURL)
		if err != nil {
			return nil, storage.Wrap(storage.KindFatal, "get_subgraph", err)
		}
		out = append(out, ident.VersionedUrl{BaseURL: u, Version: ident.OntologyTypeVersion(version)})
	}
	return out, rows.Err()
}

func paramArg(p graphquery.Parameter) any {
	switch p.Kind {
	case graphquery.ParamNumber:
		return p.Number
	case graphquery.ParamText:
		return p.Text
	case graphquery.ParamBool:
		return p.Bool
	case graphquery.ParamUUID:
		return p.UUID
	case graphquery.ParamURL:
		if p.URL == nil {
			return nil
		}
		return p.URL.String()
	case graphquery.ParamTimestamp:
		return p.Timestamp
	case graphquery.ParamJSON:
		return p.JSON
	default:
		return nil
	}
}

func entityIDFromStrings(webID, entityUUID string, draftID *string) ident.EntityId {
	id := ident.EntityId{}
	if w, err := parseUUID(webID); err == nil {
		id.WebID = ident.WebId(w)
	}
	if e, err := parseUUID(entityUUID); err == nil {
		id.EntityUUID = ident.EntityUuid(e)
	}
	if draftID != nil {
		if d, err := parseUUID(*draftID); err == nil {
			did := ident.DraftId(d)
			id.DraftID = &did
		}
	}
	return id
}

func (s *Store) loadOntologyVertices(ctx context.Context, sg *subgraph.Subgraph, ids []ident.VersionedUrl) error {
	for _, id := range ids {
		resolver := s.resolver(ctx)
		vertexID := subgraph.FromVersionedURL(id)
		dt, errDT := resolver.ResolveDataType(id)
		if errDT == nil {
			sg.Vertices.AddOntologyVertex(vertexID, subgraph.OntologyVertex{DataType: &dt})
			continue
		}
		pt, errPT := resolver.ResolvePropertyType(id)
		if errPT == nil {
			sg.Vertices.AddOntologyVertex(vertexID, subgraph.OntologyVertex{PropertyType: &pt})
			continue
		}
		et, errET := resolver.ResolveEntityType(id)
		if errET == nil {
			sg.Vertices.AddOntologyVertex(vertexID, subgraph.OntologyVertex{EntityType: &et})
			continue
		}
		return storage.WrapID(storage.KindReference, "get_subgraph", id.String(), storage.ErrNotFound)
	}
	return nil
}

func (s *Store) loadEntityVertices(ctx context.Context, sg *subgraph.Subgraph, ids []ident.EntityId) error {
	for _, id := range ids {
		e, err := s.currentEdition(ctx, id)
		if err != nil {
			return err
		}
		vertexID := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
		sg.Vertices.AddEntityVertex(vertexID, e)
	}
	return nil
}

// expandFromOntologyTypes performs a bounded breadth-first expansion over
// the ontology-to-ontology edge categories, following the join tables
// sqlcompiler's schema registry already names for each category. Both
// directions of each category are walked: Outgoing follows a join
// table's (source -> target) rows from the frontier; Incoming follows
// the same table in reverse, from nodes that name the frontier as their
// target.
func (s *Store) expandFromOntologyTypes(ctx context.Context, sg *subgraph.Subgraph, frontier []ident.VersionedUrl, depths subgraph.GraphResolveDepths) error {
	categories := []struct {
		joinTable sqlcompiler.Table
		depths    subgraph.EdgeResolveDepths
		insert    func(src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId)
	}{
		{sqlcompiler.TablePropertyTypeConstrainsValuesOn, depths.PropertyTypeToDataType,
			func(src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.PropertyTypeToDataType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsValuesOn, dir, dst)
			}},
		{sqlcompiler.TablePropertyTypeConstrainsPropertiesOn, depths.PropertyTypeToPropertyType,
			func(src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.PropertyTypeToPropertyType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsPropertiesOn, dir, dst)
			}},
		{sqlcompiler.TableEntityTypeInheritsFrom, depths.EntityTypeToEntityType,
			func(src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.EntityTypeToEntityType.Insert(src.BaseURL, src.Version, subgraph.InheritsFrom, dir, dst)
			}},
		{sqlcompiler.TableEntityTypeConstrainsPropertiesOn, depths.EntityTypeToPropertyType,
			func(src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.EntityTypeToPropertyType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsPropertiesOn, dir, dst)
			}},
		{sqlcompiler.TableEntityTypeConstrainsLinksOn, depths.EntityTypeToEntityType,
			func(src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.EntityTypeToEntityType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsLinksOn, dir, dst)
			}},
		{sqlcompiler.TableEntityTypeConstrainsLinkDestinationsOn, depths.EntityTypeToEntityType,
			func(src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.EntityTypeToEntityType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsLinkDestinationsOn, dir, dst)
			}},
	}

	visited := make(map[ident.VersionedUrl]struct{}, len(frontier))
	for _, id := range frontier {
		visited[id] = struct{}{}
	}

	current := frontier
	for hop := 0; hop < maxHops(depths); hop++ {
		var next []ident.VersionedUrl
		for _, cat := range categories {
			for _, src := range current {
				if hop < cat.depths.Outgoing {
					dsts, err := s.queryJoinTargets(ctx, cat.joinTable, src)
					if err != nil {
						return err
					}
					for _, dst := range dsts {
						cat.insert(src, subgraph.Outgoing, subgraph.FromVersionedURL(dst))
						if _, seen := visited[dst]; !seen {
							visited[dst] = struct{}{}
							next = append(next, dst)
						}
					}
				}
				if hop < cat.depths.Incoming {
					srcs, err := s.queryJoinSources(ctx, cat.joinTable, src)
					if err != nil {
						return err
					}
					for _, origin := range srcs {
						cat.insert(src, subgraph.Incoming, subgraph.FromVersionedURL(origin))
						if _, seen := visited[origin]; !seen {
							visited[origin] = struct{}{}
							next = append(next, origin)
						}
					}
				}
			}
		}
		if len(next) == 0 {
			break
		}
		subgraph.SortFrontier(next, versionedUrlKey)
		if err := s.loadOntologyVertices(ctx, sg, next); err != nil {
			return err
		}
		current = next
	}
	return nil
}

// versionedUrlKey and entityIdKey are the sort keys subgraph.SortFrontier
// uses to make each hop's same-depth batch visitation order deterministic,
// since SQL row order across these queries carries no ORDER BY guarantee.
func versionedUrlKey(id ident.VersionedUrl) string { return id.String() }

func entityIdKey(id ident.EntityId) string {
	draft := ""
	if id.DraftID != nil {
		draft = id.DraftID.String()
	}
	return id.WebID.String() + "/" + id.EntityUUID.String() + "/" + draft
}

func maxHops(d subgraph.GraphResolveDepths) int {
	max := 0
	for _, v := range []int{
		d.EntityToEntity.Outgoing, d.EntityToEntity.Incoming,
		d.EntityToEntityType.Outgoing, d.EntityToEntityType.Incoming,
		d.EntityTypeToEntityType.Outgoing, d.EntityTypeToEntityType.Incoming,
		d.EntityTypeToPropertyType.Outgoing, d.EntityTypeToPropertyType.Incoming,
		d.PropertyTypeToPropertyType.Outgoing, d.PropertyTypeToPropertyType.Incoming,
		d.PropertyTypeToDataType.Outgoing, d.PropertyTypeToDataType.Incoming,
	} {
		if v > max {
			max = v
		}
	}
	return max
}

// queryJoinTargets fetches the (target_base_url, target_version) rows a
// join table records for src, the shared shape every ontology edge
// category's join table uses (the source_*/target_* column pairs
// schema.go declares for every ontology join table).
func (s *Store) queryJoinTargets(ctx context.Context, joinTable sqlcompiler.Table, src ident.VersionedUrl) ([]ident.VersionedUrl, error) {
	rows, err := s.queryContext(ctx,
		`SELECT target_base_url, target_version FROM `+joinTable.String()+` WHERE source_base_url = $1 AND source_version = $2`,
		src.BaseURL.String(), src.Version,
	)
	if err != nil {
		return nil, wrapPgError("get_subgraph", err)
	}
	defer rows.Close()

	var out []ident.VersionedUrl
	for rows.Next() {
		var baseURL string
		var version uint32
		if err := rows.Scan(&baseURL, &version); err != nil {
			return nil, wrapPgError("get_subgraph", err)
		}
		u, err := ident.ParseBaseUrl(baseURL)
		if err != nil {
			return nil, storage.Wrap(storage.KindFatal, "get_subgraph", err)
		}
		out = append(out, ident.VersionedUrl{BaseURL: u, Version: ident.OntologyTypeVersion(version)})
	}
	return out, rows.Err()
}

// expandFromEntities resolves the knowledge-graph edges (entity-to-type,
// entity-to-entity via link endpoints) up to depths. Entity-to-type only
// ever sources from an entity, so its Incoming direction expands from
// the entity-type frontier types picked up on a prior hop back to the
// entities that carry them; entity-to-entity walks both left and right
// endpoints, each in both directions.
func (s *Store) expandFromEntities(ctx context.Context, sg *subgraph.Subgraph, frontier []ident.EntityId, depths subgraph.GraphResolveDepths) error {
	visitedEntities := make(map[ident.EntityId]struct{}, len(frontier))
	for _, id := range frontier {
		visitedEntities[id] = struct{}{}
	}
	visitedTypes := make(map[ident.VersionedUrl]struct{})

	currentEntities := frontier
	var currentTypes []ident.VersionedUrl

	for hop := 0; hop < maxHops(depths); hop++ {
		var nextEntities []ident.EntityId
		var nextTypes []ident.VersionedUrl

		if hop < depths.EntityToEntityType.Outgoing {
			for _, id := range currentEntities {
				types, err := s.queryEntityTypes(ctx, id)
				if err != nil {
					return err
				}
				srcVertex := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
				for _, t := range types {
					sg.Edges.InsertEntityToEntityType(srcVertex, subgraph.Outgoing, subgraph.FromVersionedURL(t))
					if _, seen := visitedTypes[t]; !seen {
						visitedTypes[t] = struct{}{}
						nextTypes = append(nextTypes, t)
					}
				}
			}
		}
		if hop < depths.EntityToEntityType.Incoming {
			for _, t := range currentTypes {
				entities, err := s.queryEntitiesOfType(ctx, t)
				if err != nil {
					return err
				}
				for _, id := range entities {
					srcVertex := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
					sg.Edges.InsertEntityToEntityType(srcVertex, subgraph.Incoming, subgraph.FromVersionedURL(t))
					if _, seen := visitedEntities[id]; !seen {
						visitedEntities[id] = struct{}{}
						nextEntities = append(nextEntities, id)
					}
				}
			}
		}

		if hop < depths.EntityToEntity.Outgoing {
			for _, id := range currentEntities {
				srcVertex := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
				left, err := s.queryLeftEntities(ctx, id)
				if err != nil {
					return err
				}
				for _, l := range left {
					dstVertex := subgraph.EntityVertexId{BaseID: l, RevisionID: variableAxisNow()}
					sg.Edges.InsertEntityToEntity(srcVertex, subgraph.HasLeftEntity, subgraph.Outgoing, dstVertex)
					if _, seen := visitedEntities[l]; !seen {
						visitedEntities[l] = struct{}{}
						nextEntities = append(nextEntities, l)
					}
				}
				right, err := s.queryRightEntities(ctx, id)
				if err != nil {
					return err
				}
				for _, r := range right {
					dstVertex := subgraph.EntityVertexId{BaseID: r, RevisionID: variableAxisNow()}
					sg.Edges.InsertEntityToEntity(srcVertex, subgraph.HasRightEntity, subgraph.Outgoing, dstVertex)
					if _, seen := visitedEntities[r]; !seen {
						visitedEntities[r] = struct{}{}
						nextEntities = append(nextEntities, r)
					}
				}
			}
		}
		if hop < depths.EntityToEntity.Incoming {
			for _, id := range currentEntities {
				srcVertex := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
				links, err := s.queryLinksWithLeftEndpoint(ctx, id)
				if err != nil {
					return err
				}
				for _, l := range links {
					dstVertex := subgraph.EntityVertexId{BaseID: l, RevisionID: variableAxisNow()}
					sg.Edges.InsertEntityToEntity(srcVertex, subgraph.HasLeftEntity, subgraph.Incoming, dstVertex)
					if _, seen := visitedEntities[l]; !seen {
						visitedEntities[l] = struct{}{}
						nextEntities = append(nextEntities, l)
					}
				}
				rlinks, err := s.queryLinksWithRightEndpoint(ctx, id)
				if err != nil {
					return err
				}
				for _, r := range rlinks {
					dstVertex := subgraph.EntityVertexId{BaseID: r, RevisionID: variableAxisNow()}
					sg.Edges.InsertEntityToEntity(srcVertex, subgraph.HasRightEntity, subgraph.Incoming, dstVertex)
					if _, seen := visitedEntities[r]; !seen {
						visitedEntities[r] = struct{}{}
						nextEntities = append(nextEntities, r)
					}
				}
			}
		}

		subgraph.SortFrontier(nextTypes, versionedUrlKey)
		subgraph.SortFrontier(nextEntities, entityIdKey)
		if len(nextTypes) > 0 {
			if err := s.loadOntologyVertices(ctx, sg, nextTypes); err != nil {
				return err
			}
		}
		if len(nextEntities) > 0 {
			if err := s.loadEntityVertices(ctx, sg, nextEntities); err != nil {
				return err
			}
		}
		if len(nextEntities) == 0 && len(nextTypes) == 0 {
			break
		}
		currentEntities = nextEntities
		currentTypes = nextTypes
	}
	return nil
}

func (s *Store) queryEntityTypes(ctx context.Context, id ident.EntityId) ([]ident.VersionedUrl, error) {
	rows, err := s.queryContext(ctx,
		`SELECT entity_type_base_url, entity_type_version FROM `+sqlcompiler.TableEntityIsOfType.String()+` WHERE entity_uuid = $1`,
		id.EntityUUID.String(),
	)
	if err != nil {
		return nil, wrapPgError("get_subgraph", err)
	}
	defer rows.Close()

	var out []ident.VersionedUrl
	for rows.Next() {
		var baseURL string
		var version uint32
		if err := rows.Scan(&baseURL, &version); err != nil {
			return nil, wrapPgError("get_subgraph", err)
		}
		u, err := ident.ParseBaseUrl(baseURL)
		if err != nil {
			return nil, storage.Wrap(storage.KindFatal, "get_subgraph", err)
		}
		out = append(out, ident.VersionedUrl{BaseURL: u, Version: ident.OntologyTypeVersion(version)})
	}
	return out, rows.Err()
}

// queryLeftEntities returns the left endpoint of the link entity id, if
// id is itself a link.
func (s *Store) queryLeftEntities(ctx context.Context, id ident.EntityId) ([]ident.EntityId, error) {
	return s.queryEntityJoin(ctx,
		`SELECT l.web_id, l.entity_uuid, l.draft_id FROM `+sqlcompiler.TableEntityHasLeftEntity.String()+` hl
		 JOIN `+sqlcompiler.TableEntities.String()+` l ON l.entity_uuid = hl.left_entity_uuid
		 WHERE hl.entity_uuid = $1`,
		id.EntityUUID.String(),
	)
}

// queryRightEntities returns the right endpoint of the link entity id,
// if id is itself a link.
func (s *Store) queryRightEntities(ctx context.Context, id ident.EntityId) ([]ident.EntityId, error) {
	return s.queryEntityJoin(ctx,
		`SELECT r.web_id, r.entity_uuid, r.draft_id FROM `+sqlcompiler.TableEntityHasRightEntity.String()+` hr
		 JOIN `+sqlcompiler.TableEntities.String()+` r ON r.entity_uuid = hr.right_entity_uuid
		 WHERE hr.entity_uuid = $1`,
		id.EntityUUID.String(),
	)
}

// queryLinksWithLeftEndpoint returns every link entity that names id as
// its left endpoint, the reverse of queryLeftEntities.
func (s *Store) queryLinksWithLeftEndpoint(ctx context.Context, id ident.EntityId) ([]ident.EntityId, error) {
	return s.queryEntityJoin(ctx,
		`SELECT link.web_id, link.entity_uuid, link.draft_id FROM `+sqlcompiler.TableEntityHasLeftEntity.String()+` hl
		 JOIN `+sqlcompiler.TableEntities.String()+` link ON link.entity_uuid = hl.entity_uuid
		 WHERE hl.left_entity_uuid = $1`,
		id.EntityUUID.String(),
	)
}

// queryLinksWithRightEndpoint returns every link entity that names id as
// its right endpoint, the reverse of queryRightEntities.
func (s *Store) queryLinksWithRightEndpoint(ctx context.Context, id ident.EntityId) ([]ident.EntityId, error) {
	return s.queryEntityJoin(ctx,
		`SELECT link.web_id, link.entity_uuid, link.draft_id FROM `+sqlcompiler.TableEntityHasRightEntity.String()+` hr
		 JOIN `+sqlcompiler.TableEntities.String()+` link ON link.entity_uuid = hr.entity_uuid
		 WHERE hr.right_entity_uuid = $1`,
		id.EntityUUID.String(),
	)
}

func (s *Store) queryEntityJoin(ctx context.Context, sql string, args ...any) ([]ident.EntityId, error) {
	rows, err := s.queryContext(ctx, sql, args...)
	if err != nil {
		return nil, wrapPgError("get_subgraph", err)
	}
	defer rows.Close()

	var out []ident.EntityId
	for rows.Next() {
		var webID, entityUUID string
		var draftID *string
		if err := rows.Scan(&webID, &entityUUID, &draftID); err != nil {
			return nil, wrapPgError("get_subgraph", err)
		}
		out = append(out, entityIDFromStrings(webID, entityUUID, draftID))
	}
	return out, rows.Err()
}

// queryEntitiesOfType returns every entity currently typed as t, the
// reverse of queryEntityTypes.
func (s *Store) queryEntitiesOfType(ctx context.Context, t ident.VersionedUrl) ([]ident.EntityId, error) {
	rows, err := s.queryContext(ctx,
		`SELECT e.web_id, e.entity_uuid, e.draft_id FROM `+sqlcompiler.TableEntityIsOfType.String()+` iot
		 JOIN `+sqlcompiler.TableEntities.String()+` e ON e.entity_uuid = iot.entity_uuid
		 WHERE iot.entity_type_base_url = $1 AND iot.entity_type_version = $2`,
		t.BaseURL.String(), t.Version,
	)
	if err != nil {
		return nil, wrapPgError("get_subgraph", err)
	}
	defer rows.Close()

	var out []ident.EntityId
	for rows.Next() {
		var webID, entityUUID string
		var draftID *string
		if err := rows.Scan(&webID, &entityUUID, &draftID); err != nil {
			return nil, wrapPgError("get_subgraph", err)
		}
		out = append(out, entityIDFromStrings(webID, entityUUID, draftID))
	}
	return out, rows.Err()
}

// queryJoinSources returns the rows of joinTable whose target is dst,
// the reverse of queryJoinTargets.
func (s *Store) queryJoinSources(ctx context.Context, joinTable sqlcompiler.Table, dst ident.VersionedUrl) ([]ident.VersionedUrl, error) {
	rows, err := s.queryContext(ctx,
		`SELECT source_base_url, source_version FROM `+joinTable.String()+` WHERE target_base_url = $1 AND target_version = $2`,
		dst.BaseURL.String(), dst.Version,
	)
	if err != nil {
		return nil, wrapPgError("get_subgraph", err)
	}
	defer rows.Close()

	var out []ident.VersionedUrl
	for rows.Next() {
		var baseURL string
		var version uint32
		if err := rows.Scan(&baseURL, &version); err != nil {
			return nil, wrapPgError("get_subgraph", err)
		}
		u, err := ident.ParseBaseUrl(baseURL)
		if err != nil {
			return nil, storage.Wrap(storage.KindFatal, "get_subgraph", err)
		}
		out = append(out, ident.VersionedUrl{BaseURL: u, Version: ident.OntologyTypeVersion(version)})
	}
	return out, rows.Err()
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// variableAxisNow stamps a freshly loaded vertex's revision id with the
// current instant pinned to the variable axis. A real deployment would
// instead pin each vertex to the transaction-time instant its edition was
// actually read at; GetSubgraph only serves live (non-historical) reads
// today, so "now" and "read time" coincide.
func variableAxisNow() temporal.Timestamp[temporal.VariableAxis] {
	return temporal.FromTime[temporal.VariableAxis](time.Now())
}
