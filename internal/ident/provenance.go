package ident

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// SourceType classifies the material a SourceProvenance entry points at.
// New variants are expected over time; unknown values are rejected rather
// than silently accepted.
type SourceType string

const (
	SourceWebpage     SourceType = "webpage"
	SourceDocument    SourceType = "document"
	SourceIntegration SourceType = "integration"
)

// Location names where a piece of source material can be found.
type Location struct {
	Name        string
	URI         *url.URL
	Description string
}

// SourceProvenance records one piece of material used to produce a value:
// where it came from, who authored it, and when it was published, updated,
// and retrieved.
type SourceProvenance struct {
	Type          SourceType
	EntityID      *EntityId
	Authors       []string
	Location      *Location
	FirstPublished *time.Time
	LastUpdated    *time.Time
	LoadedAt       *time.Time
}

// OriginType classifies what produced an edition: a human through the API,
// a migration, an automated flow run, or some other actor.
type OriginType string

const (
	OriginAPI        OriginType = "api"
	OriginMigration  OriginType = "migration"
	OriginFlow       OriginType = "flow"
	OriginWebApp     OriginType = "web-app"
	OriginBrowserExt OriginType = "browser-extension"
)

// OriginProvenance names the subsystem that produced an edition and, where
// applicable, the id of the flow or request that drove it.
type OriginProvenance struct {
	Type OriginType
	ID   string
}

// ActorType is the coarse kind of principal that produced an edition,
// distinct from ActorKind: ActorKind tags an ActorId's identity, ActorType
// tags the role it was playing when producing this particular edition.
type ActorType string

const (
	ActorTypeHuman ActorType = "human"
	ActorTypeAI    ActorType = "ai"
	ActorTypeMachine ActorType = "machine"
)

// ProvidedEditionProvenance is the caller-supplied portion of an edition's
// provenance: the sources it draws from, the kind of actor that produced
// it, and the subsystem origin. The store fills in the rest (createdById,
// archivedById, timestamps) at write time.
type ProvidedEditionProvenance struct {
	Sources   []SourceProvenance
	ActorType ActorType
	Origin    OriginProvenance
}

// EditionProvenance is the full provenance stamp the store attaches to
// every entity and ontology-type edition row.
type EditionProvenance struct {
	CreatedByID  ActorId
	ArchivedByID *ActorId
	Provided     ProvidedEditionProvenance
}

type jsonLocation struct {
	Name        string `json:"name,omitempty"`
	URI         string `json:"uri,omitempty"`
	Description string `json:"description,omitempty"`
}

// MarshalJSON renders the location in camelCase, with its URI (if any)
// as a bare string.
func (l Location) MarshalJSON() ([]byte, error) {
	j := jsonLocation{Name: l.Name, Description: l.Description}
	if l.URI != nil {
		j.URI = l.URI.String()
	}
	return json.Marshal(j)
}

// UnmarshalJSON parses the camelCase location form.
func (l *Location) UnmarshalJSON(data []byte) error {
	var j jsonLocation
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	l.Name, l.Description = j.Name, j.Description
	l.URI = nil
	if j.URI != "" {
		u, err := url.Parse(j.URI)
		if err != nil {
			return err
		}
		l.URI = u
	}
	return nil
}

type jsonSourceProvenance struct {
	Type           SourceType `json:"type"`
	EntityID       *EntityId  `json:"entityId,omitempty"`
	Authors        []string   `json:"authors,omitempty"`
	Location       *Location  `json:"location,omitempty"`
	FirstPublished *time.Time `json:"firstPublished,omitempty"`
	LastUpdated    *time.Time `json:"lastUpdated,omitempty"`
	LoadedAt       *time.Time `json:"loadedAt,omitempty"`
}

// MarshalJSON renders the source provenance entry in camelCase.
func (s SourceProvenance) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSourceProvenance{
		Type: s.Type, EntityID: s.EntityID, Authors: s.Authors, Location: s.Location,
		FirstPublished: s.FirstPublished, LastUpdated: s.LastUpdated, LoadedAt: s.LoadedAt,
	})
}

// UnmarshalJSON parses the camelCase source provenance entry form.
func (s *SourceProvenance) UnmarshalJSON(data []byte) error {
	var j jsonSourceProvenance
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	switch j.Type {
	case SourceWebpage, SourceDocument, SourceIntegration:
	default:
		return fmt.Errorf("ident: unknown source type %q", j.Type)
	}
	s.Type, s.EntityID, s.Authors = j.Type, j.EntityID, j.Authors
	s.Location = j.Location
	s.FirstPublished, s.LastUpdated, s.LoadedAt = j.FirstPublished, j.LastUpdated, j.LoadedAt
	return nil
}

type jsonOriginProvenance struct {
	Type OriginType `json:"type"`
	ID   string      `json:"id,omitempty"`
}

// MarshalJSON renders the origin provenance in camelCase.
func (o OriginProvenance) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonOriginProvenance{Type: o.Type, ID: o.ID})
}

// UnmarshalJSON parses the camelCase origin provenance form.
func (o *OriginProvenance) UnmarshalJSON(data []byte) error {
	var j jsonOriginProvenance
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	o.Type, o.ID = j.Type, j.ID
	return nil
}

type jsonProvidedEditionProvenance struct {
	Sources   []SourceProvenance `json:"sources,omitempty"`
	ActorType ActorType          `json:"actorType,omitempty"`
	Origin    OriginProvenance   `json:"origin"`
}

// MarshalJSON renders the caller-supplied provenance in camelCase.
func (p ProvidedEditionProvenance) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonProvidedEditionProvenance{Sources: p.Sources, ActorType: p.ActorType, Origin: p.Origin})
}

// UnmarshalJSON parses the camelCase caller-supplied provenance form.
func (p *ProvidedEditionProvenance) UnmarshalJSON(data []byte) error {
	var j jsonProvidedEditionProvenance
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	p.Sources, p.ActorType, p.Origin = j.Sources, j.ActorType, j.Origin
	return nil
}

type jsonEditionProvenance struct {
	CreatedByID  ActorId                   `json:"createdById"`
	ArchivedByID *ActorId                  `json:"archivedById,omitempty"`
	Provided     ProvidedEditionProvenance `json:"provided"`
}

// MarshalJSON renders the full edition provenance stamp in camelCase.
func (p EditionProvenance) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonEditionProvenance{CreatedByID: p.CreatedByID, ArchivedByID: p.ArchivedByID, Provided: p.Provided})
}

// UnmarshalJSON parses the camelCase edition provenance form.
func (p *EditionProvenance) UnmarshalJSON(data []byte) error {
	var j jsonEditionProvenance
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	p.CreatedByID, p.ArchivedByID, p.Provided = j.CreatedByID, j.ArchivedByID, j.Provided
	return nil
}
