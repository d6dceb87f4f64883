package memory

import (
	"context"
	"time"

	"github.com/coregraph/typegraph/internal/graphquery"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/subgraph"
	"github.com/coregraph/typegraph/internal/temporal"
)

// GetSubgraph matches query's filter against the in-memory tables, then
// expands outward from the matching roots one edge category at a time up
// to depths, breadth first, mirroring the Postgres backend's traversal
// shape over maps instead of joins.
//
// Unlike the Postgres backend, root matching here does not go through
// sqlcompiler (a SQL text compiler has no meaning against a Go map): it
// supports the literal equality/conjunction/disjunction shape of Filter
// (All, Any, Not, Equal, NotEqual) over a root-level path field, which
// covers the common "look up by id" test queries this fake exists to
// serve. StartsWith/EndsWith/ContainsSegment/CosineDistance and any
// nested path are rejected as unsupported.
func (s *Store) GetSubgraph(_ context.Context, query storage.StructuralQuery, depths subgraph.GraphResolveDepths) (*subgraph.Subgraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sg := subgraph.NewSubgraph(depths)

	if query.RecordType == graphquery.RecordEntity {
		frontier, err := s.matchEntityRoots(query.Filter)
		if err != nil {
			return nil, err
		}
		subgraph.SortFrontier(frontier, entityIdKey)
		for _, id := range frontier {
			s.loadEntityVertexLocked(sg, id)
		}
		s.expandFromEntitiesLocked(sg, frontier, depths)
		return sg, nil
	}

	frontier, err := s.matchOntologyRoots(query.RecordType, query.Filter)
	if err != nil {
		return nil, err
	}
	subgraph.SortFrontier(frontier, versionedUrlKey)
	for _, id := range frontier {
		s.loadOntologyVertexLocked(sg, id)
	}
	s.expandFromOntologyTypesLocked(sg, frontier, depths)
	return sg, nil
}

// versionedUrlKey and entityIdKey are the sort keys subgraph.SortFrontier
// uses to make each hop's same-depth batch visitation order deterministic,
// since map iteration over this backend's tables is not.
func versionedUrlKey(id ident.VersionedUrl) string { return id.String() }

func entityIdKey(id ident.EntityId) string {
	draft := ""
	if id.DraftID != nil {
		draft = id.DraftID.String()
	}
	return id.WebID.String() + "/" + id.EntityUUID.String() + "/" + draft
}

func (s *Store) matchOntologyRoots(rt graphquery.RecordType, filter graphquery.Filter) ([]ident.VersionedUrl, error) {
	var table map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition
	switch rt {
	case graphquery.RecordDataType:
		table = s.dataTypes
	case graphquery.RecordPropertyType:
		table = s.propertyTypes
	default:
		table = s.entityTypes
	}

	var out []ident.VersionedUrl
	for base, editions := range table {
		for version := range editions {
			id := ident.VersionedUrl{BaseURL: base, Version: version}
			match, err := evalFilter(filter, func(fieldName string) (any, bool) {
				switch fieldName {
				case "BaseUrl":
					return base.String(), true
				case "Version":
					return uint32(version), true
				default:
					return nil, false
				}
			})
			if err != nil {
				return nil, storage.Wrap(storage.KindValidation, "get_subgraph", err)
			}
			if match {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (s *Store) matchEntityRoots(filter graphquery.Filter) ([]ident.EntityId, error) {
	var out []ident.EntityId
	for id, editions := range s.entities {
		for _, e := range editions {
			if !e.Metadata.Temporal.TransactionTime.IsUnboundedEnd() {
				continue
			}
			match, err := evalFilter(filter, func(fieldName string) (any, bool) {
				switch fieldName {
				case "Uuid":
					return id.EntityUUID.String(), true
				case "WebId":
					return id.WebID.String(), true
				case "Archived":
					return e.Metadata.Archived, true
				default:
					return nil, false
				}
			})
			if err != nil {
				return nil, storage.Wrap(storage.KindValidation, "get_subgraph", err)
			}
			if match {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (s *Store) loadOntologyVertexLocked(sg *subgraph.Subgraph, id ident.VersionedUrl) {
	for _, kind := range []storage.TypeKind{storage.DataTypeKind, storage.PropertyTypeKind, storage.EntityTypeKind} {
		editions, ok := s.tableFor(kind)[id.BaseURL]
		if !ok {
			continue
		}
		ed, ok := editions[id.Version]
		if !ok {
			continue
		}
		vertexID := subgraph.FromVersionedURL(id)
		sg.Vertices.AddOntologyVertex(vertexID, subgraph.OntologyVertex{DataType: ed.data, PropertyType: ed.property, EntityType: ed.entity})
		return
	}
}

func (s *Store) loadEntityVertexLocked(sg *subgraph.Subgraph, id ident.EntityId) {
	for _, e := range s.entities[id] {
		if !e.Metadata.Temporal.TransactionTime.IsUnboundedEnd() {
			continue
		}
		vertexID := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
		sg.Vertices.AddEntityVertex(vertexID, e)
		return
	}
}

// ontologyCategory bundles one edge category's forward-edge extractor
// (reading the schema structs' own reference fields, in place of the
// Postgres backend's join-table query), its resolve depths, and its
// Edges inserter. forward(src) enumerates src's outgoing neighbours;
// Incoming is derived by scanning every candidate node for one whose
// forward set contains the node being expanded from, since this fake
// has no reverse join index to query directly.
type ontologyCategory struct {
	depths  subgraph.EdgeResolveDepths
	forward func(ed ontologyEdition) []ident.VersionedUrl
	insert  func(sg *subgraph.Subgraph, src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId)
	table   func(s *Store) map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition
}

func (s *Store) ontologyCategories(depths subgraph.GraphResolveDepths) []ontologyCategory {
	propertyTypes := func(s *Store) map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition { return s.propertyTypes }
	entityTypes := func(s *Store) map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition { return s.entityTypes }

	return []ontologyCategory{
		{
			depths: depths.PropertyTypeToDataType,
			table:  propertyTypes,
			forward: func(ed ontologyEdition) []ident.VersionedUrl {
				if ed.property == nil {
					return nil
				}
				var dsts []ident.VersionedUrl
				for _, alt := range ed.property.OneOf {
					if alt.DataTypeRef != nil {
						dsts = append(dsts, alt.DataTypeRef.URL)
					}
				}
				return dsts
			},
			insert: func(sg *subgraph.Subgraph, src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.PropertyTypeToDataType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsValuesOn, dir, dst)
			},
		},
		{
			depths: depths.PropertyTypeToPropertyType,
			table:  propertyTypes,
			forward: func(ed ontologyEdition) []ident.VersionedUrl {
				if ed.property == nil {
					return nil
				}
				var dsts []ident.VersionedUrl
				for _, alt := range ed.property.OneOf {
					for _, slot := range alt.Object {
						dsts = append(dsts, propertyRefURL(slot))
					}
				}
				return dsts
			},
			insert: func(sg *subgraph.Subgraph, src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.PropertyTypeToPropertyType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsPropertiesOn, dir, dst)
			},
		},
		{
			depths: depths.EntityTypeToEntityType,
			table:  entityTypes,
			forward: func(ed ontologyEdition) []ident.VersionedUrl {
				if ed.entity == nil {
					return nil
				}
				var dsts []ident.VersionedUrl
				for _, ancestor := range ed.entity.InheritsFrom {
					dsts = append(dsts, ancestor.URL)
				}
				return dsts
			},
			insert: func(sg *subgraph.Subgraph, src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.EntityTypeToEntityType.Insert(src.BaseURL, src.Version, subgraph.InheritsFrom, dir, dst)
			},
		},
		{
			depths: depths.EntityTypeToPropertyType,
			table:  entityTypes,
			forward: func(ed ontologyEdition) []ident.VersionedUrl {
				if ed.entity == nil {
					return nil
				}
				var dsts []ident.VersionedUrl
				for _, slot := range ed.entity.Properties {
					dsts = append(dsts, propertyRefURL(slot))
				}
				return dsts
			},
			insert: func(sg *subgraph.Subgraph, src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.EntityTypeToPropertyType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsPropertiesOn, dir, dst)
			},
		},
		{
			depths: depths.EntityTypeToEntityType,
			table:  entityTypes,
			forward: func(ed ontologyEdition) []ident.VersionedUrl {
				if ed.entity == nil {
					return nil
				}
				var dsts []ident.VersionedUrl
				for linkType := range ed.entity.Links {
					dsts = append(dsts, linkType)
				}
				return dsts
			},
			insert: func(sg *subgraph.Subgraph, src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.EntityTypeToEntityType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsLinksOn, dir, dst)
			},
		},
		{
			depths: depths.EntityTypeToEntityType,
			table:  entityTypes,
			forward: func(ed ontologyEdition) []ident.VersionedUrl {
				if ed.entity == nil {
					return nil
				}
				var dsts []ident.VersionedUrl
				for _, destinations := range ed.entity.Links {
					for _, dest := range destinations.Array.Items.Possibilities {
						dsts = append(dsts, dest.URL)
					}
				}
				return dsts
			},
			insert: func(sg *subgraph.Subgraph, src ident.VersionedUrl, dir subgraph.EdgeDirection, dst subgraph.OntologyTypeVertexId) {
				sg.Edges.EntityTypeToEntityType.Insert(src.BaseURL, src.Version, subgraph.ConstrainsLinkDestinationsOn, dir, dst)
			},
		},
	}
}

func (s *Store) editionOf(table map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition, id ident.VersionedUrl) (ontologyEdition, bool) {
	editions, ok := table[id.BaseURL]
	if !ok {
		return ontologyEdition{}, false
	}
	ed, ok := editions[id.Version]
	return ed, ok
}

// reverseNeighbours scans every edition in table for one whose forward
// set names dst, mirroring the Postgres backend's reverse join query
// (queryJoinSources) over a Go map instead of SQL.
func (s *Store) reverseNeighbours(table map[ident.BaseUrl]map[ident.OntologyTypeVersion]ontologyEdition, forward func(ontologyEdition) []ident.VersionedUrl, dst ident.VersionedUrl) []ident.VersionedUrl {
	var out []ident.VersionedUrl
	for base, editions := range table {
		for version, ed := range editions {
			for _, candidate := range forward(ed) {
				if candidate == dst {
					out = append(out, ident.VersionedUrl{BaseURL: base, Version: version})
					break
				}
			}
		}
	}
	return out
}

func (s *Store) expandFromOntologyTypesLocked(sg *subgraph.Subgraph, frontier []ident.VersionedUrl, depths subgraph.GraphResolveDepths) {
	visited := make(map[ident.VersionedUrl]struct{}, len(frontier))
	for _, id := range frontier {
		visited[id] = struct{}{}
	}

	categories := s.ontologyCategories(depths)
	current := frontier
	for hop := 0; hop < maxHops(depths); hop++ {
		var next []ident.VersionedUrl
		visit := func(dst ident.VersionedUrl) {
			if _, seen := visited[dst]; !seen {
				visited[dst] = struct{}{}
				next = append(next, dst)
			}
		}

		for _, cat := range categories {
			for _, src := range current {
				if hop < cat.depths.Outgoing {
					if ed, ok := s.editionOf(cat.table(s), src); ok {
						for _, dst := range cat.forward(ed) {
							cat.insert(sg, src, subgraph.Outgoing, subgraph.FromVersionedURL(dst))
							visit(dst)
						}
					}
				}
				if hop < cat.depths.Incoming {
					for _, origin := range s.reverseNeighbours(cat.table(s), cat.forward, src) {
						cat.insert(sg, src, subgraph.Incoming, subgraph.FromVersionedURL(origin))
						visit(origin)
					}
				}
			}
		}

		if len(next) == 0 {
			break
		}
		subgraph.SortFrontier(next, versionedUrlKey)
		for _, id := range next {
			s.loadOntologyVertexLocked(sg, id)
		}
		current = next
	}
}

func propertyRefURL(slot ontology.ValueOrArray[ontology.PropertyTypeReference]) ident.VersionedUrl {
	if slot.IsArray() {
		return slot.Array.Items.URL
	}
	return slot.Value.URL
}

// linksWithEndpoint scans every live entity for a link whose left or
// right endpoint (per wantLeft) is id, the in-memory equivalent of the
// Postgres backend's queryLinksWithLeftEndpoint/queryLinksWithRightEndpoint.
func (s *Store) linksWithEndpoint(id ident.EntityId, wantLeft bool) []ident.EntityId {
	var out []ident.EntityId
	for other, editions := range s.entities {
		for _, o := range editions {
			if o.LinkData == nil || !o.Metadata.Temporal.TransactionTime.IsUnboundedEnd() {
				continue
			}
			endpoint := o.LinkData.RightEntityID
			if wantLeft {
				endpoint = o.LinkData.LeftEntityID
			}
			if endpoint == id {
				out = append(out, other)
			}
		}
	}
	return out
}

func (s *Store) expandFromEntitiesLocked(sg *subgraph.Subgraph, frontier []ident.EntityId, depths subgraph.GraphResolveDepths) {
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
		visitEntity := func(id ident.EntityId) {
			if _, seen := visitedEntities[id]; !seen {
				visitedEntities[id] = struct{}{}
				nextEntities = append(nextEntities, id)
			}
		}
		visitType := func(t ident.VersionedUrl) {
			if _, seen := visitedTypes[t]; !seen {
				visitedTypes[t] = struct{}{}
				nextTypes = append(nextTypes, t)
			}
		}

		if hop < depths.EntityToEntityType.Outgoing {
			for _, id := range currentEntities {
				e, _, err := s.currentEditionLocked(id)
				if err != nil {
					continue
				}
				srcVertex := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
				for _, t := range e.Metadata.EntityTypeIDs {
					sg.Edges.InsertEntityToEntityType(srcVertex, subgraph.Outgoing, subgraph.FromVersionedURL(t))
					visitType(t)
				}
			}
		}
		if hop < depths.EntityToEntityType.Incoming {
			for _, t := range currentTypes {
				for id, editions := range s.entities {
					for _, e := range editions {
						if !e.Metadata.Temporal.TransactionTime.IsUnboundedEnd() {
							continue
						}
						for _, owned := range e.Metadata.EntityTypeIDs {
							if owned != t {
								continue
							}
							srcVertex := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
							sg.Edges.InsertEntityToEntityType(srcVertex, subgraph.Incoming, subgraph.FromVersionedURL(t))
							visitEntity(id)
						}
					}
				}
			}
		}

		if hop < depths.EntityToEntity.Outgoing {
			for _, id := range currentEntities {
				e, _, err := s.currentEditionLocked(id)
				if err != nil || e.LinkData == nil {
					continue
				}
				srcVertex := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
				leftVertex := subgraph.EntityVertexId{BaseID: e.LinkData.LeftEntityID, RevisionID: variableAxisNow()}
				sg.Edges.InsertEntityToEntity(srcVertex, subgraph.HasLeftEntity, subgraph.Outgoing, leftVertex)
				visitEntity(e.LinkData.LeftEntityID)
				rightVertex := subgraph.EntityVertexId{BaseID: e.LinkData.RightEntityID, RevisionID: variableAxisNow()}
				sg.Edges.InsertEntityToEntity(srcVertex, subgraph.HasRightEntity, subgraph.Outgoing, rightVertex)
				visitEntity(e.LinkData.RightEntityID)
			}
		}
		if hop < depths.EntityToEntity.Incoming {
			for _, id := range currentEntities {
				srcVertex := subgraph.EntityVertexId{BaseID: id, RevisionID: variableAxisNow()}
				for _, l := range s.linksWithEndpoint(id, true) {
					dstVertex := subgraph.EntityVertexId{BaseID: l, RevisionID: variableAxisNow()}
					sg.Edges.InsertEntityToEntity(srcVertex, subgraph.HasLeftEntity, subgraph.Incoming, dstVertex)
					visitEntity(l)
				}
				for _, r := range s.linksWithEndpoint(id, false) {
					dstVertex := subgraph.EntityVertexId{BaseID: r, RevisionID: variableAxisNow()}
					sg.Edges.InsertEntityToEntity(srcVertex, subgraph.HasRightEntity, subgraph.Incoming, dstVertex)
					visitEntity(r)
				}
			}
		}

		subgraph.SortFrontier(nextTypes, versionedUrlKey)
		subgraph.SortFrontier(nextEntities, entityIdKey)
		for _, id := range nextTypes {
			s.loadOntologyVertexLocked(sg, id)
		}
		for _, id := range nextEntities {
			s.loadEntityVertexLocked(sg, id)
		}
		if len(nextEntities) == 0 && len(nextTypes) == 0 {
			break
		}
		currentEntities = nextEntities
		currentTypes = nextTypes
	}
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

func variableAxisNow() temporal.Timestamp[temporal.VariableAxis] {
	return temporal.FromTime[temporal.VariableAxis](time.Now())
}

// evalFilter evaluates filter against one root record's fields, field
// resolved via get(fieldName). Nested paths and non-equality predicates
// beyond Equal/NotEqual/All/Any/Not are unsupported by this in-memory
// fake and return an error.
func evalFilter(filter graphquery.Filter, get func(fieldName string) (any, bool)) (bool, error) {
	switch f := filter.(type) {
	case nil:
		return true, nil
	case graphquery.All:
		for _, op := range f.Operands {
			ok, err := evalFilter(op, get)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case graphquery.Any:
		if len(f.Operands) == 0 {
			return false, nil
		}
		for _, op := range f.Operands {
			ok, err := evalFilter(op, get)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case graphquery.Not:
		ok, err := evalFilter(f.Operand, get)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case graphquery.Equal:
		return evalEquality(f.LHS, f.RHS, get, true)
	case graphquery.NotEqual:
		return evalEquality(f.LHS, f.RHS, get, false)
	default:
		return false, &unsupportedFilterError{filter}
	}
}

type unsupportedFilterError struct{ filter graphquery.Filter }

func (e *unsupportedFilterError) Error() string {
	return "memory: filter predicate unsupported by the in-memory fake"
}

func evalEquality(lhs, rhs graphquery.FilterExpression, get func(string) (any, bool), wantEqual bool) (bool, error) {
	path, ok := lhs.(graphquery.PathExpression)
	if !ok {
		path, ok = rhs.(graphquery.PathExpression)
		lhs, rhs = rhs, lhs
	}
	if !ok {
		return false, &unsupportedFilterError{}
	}
	segment := pathFieldName(path.Path)
	if segment == "" {
		return false, &unsupportedFilterError{}
	}
	value, found := get(segment)
	if !found {
		return false, &unsupportedFilterError{}
	}
	param, ok := rhs.(graphquery.ParameterExpression)
	if !ok {
		return false, &unsupportedFilterError{}
	}
	equal := paramEqual(param.Parameter, value)
	return equal == wantEqual, nil
}

func pathFieldName(p graphquery.Path) string {
	type segmenter interface{ Segment() graphquery.PathSegment }
	s, ok := p.(segmenter)
	if !ok {
		return ""
	}
	seg := s.Segment()
	if seg.Nested != nil || seg.JSONPath != nil {
		return ""
	}
	return seg.FieldName
}

func paramEqual(p graphquery.Parameter, value any) bool {
	switch p.Kind {
	case graphquery.ParamText:
		s, ok := value.(string)
		return ok && s == p.Text
	case graphquery.ParamNumber:
		n, ok := value.(uint32)
		return ok && float64(n) == p.Number
	case graphquery.ParamBool:
		b, ok := value.(bool)
		return ok && b == p.Bool
	default:
		return false
	}
}
