package ident

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// WebId identifies the "web" (workspace/account) that owns a record.
type WebId uuid.UUID

func (w WebId) String() string { return uuid.UUID(w).String() }

// MarshalJSON renders the web id as a bare UUID string.
func (w WebId) MarshalJSON() ([]byte, error) { return json.Marshal(w.String()) }

// UnmarshalJSON parses a bare UUID string into a WebId.
func (w *WebId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("ident: invalid web id %q: %w", s, err)
	}
	*w = WebId(id)
	return nil
}

// EntityUuid is the stable 128-bit identifier of one entity, constant
// across every edition and every draft of that entity.
type EntityUuid uuid.UUID

func (e EntityUuid) String() string { return uuid.UUID(e).String() }

// MarshalJSON renders the entity uuid as a bare UUID string.
func (e EntityUuid) MarshalJSON() ([]byte, error) { return json.Marshal(e.String()) }

// UnmarshalJSON parses a bare UUID string into an EntityUuid.
func (e *EntityUuid) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("ident: invalid entity uuid %q: %w", s, err)
	}
	*e = EntityUuid(id)
	return nil
}

// DraftId, when present, marks an EntityId as a draft of its canonical
// entity rather than the canonical entity itself.
type DraftId uuid.UUID

func (d DraftId) String() string { return uuid.UUID(d).String() }

// MarshalJSON renders the draft id as a bare UUID string.
func (d DraftId) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

// UnmarshalJSON parses a bare UUID string into a DraftId.
func (d *DraftId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("ident: invalid draft id %q: %w", s, err)
	}
	*d = DraftId(id)
	return nil
}

// EntityId identifies one entity (or one draft of an entity) within a
// web. Two EntityIds with equal WebId/EntityUuid but differing DraftId
// name distinct drafts of the same canonical entity: SameCanonicalEntity
// is true for them even though EntityId equality (plain ==) is false.
type EntityId struct {
	WebID      WebId
	EntityUUID EntityUuid
	DraftID    *DraftId
}

// SameCanonicalEntity reports whether a and b name the same canonical
// entity, ignoring any draft distinction. This resolves the spec's open
// question on draft_id identity: EntityId equality (==) is exact tuple
// equality including DraftId; this method is the separate "same
// canonical entity" check used when resolving the latest non-draft
// edition of an entity that has drafts.
func SameCanonicalEntity(a, b EntityId) bool {
	return a.WebID == b.WebID && a.EntityUUID == b.EntityUUID
}

// IsDraft reports whether this EntityId names a draft.
func (id EntityId) IsDraft() bool { return id.DraftID != nil }

// EntityEditionId identifies one edition row of an entity.
type EntityEditionId uuid.UUID

func (e EntityEditionId) String() string { return uuid.UUID(e).String() }

// MarshalJSON renders the edition id as a bare UUID string.
func (e EntityEditionId) MarshalJSON() ([]byte, error) { return json.Marshal(e.String()) }

// UnmarshalJSON parses a bare UUID string into an EntityEditionId.
func (e *EntityEditionId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("ident: invalid edition id %q: %w", s, err)
	}
	*e = EntityEditionId(id)
	return nil
}

type jsonEntityId struct {
	WebID      WebId      `json:"webId"`
	EntityUUID EntityUuid `json:"entityUuid"`
	DraftID    *DraftId   `json:"draftId,omitempty"`
}

// MarshalJSON renders the entity id in its camelCase wire form.
func (id EntityId) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonEntityId{WebID: id.WebID, EntityUUID: id.EntityUUID, DraftID: id.DraftID})
}

// UnmarshalJSON parses the camelCase wire form back into an EntityId.
func (id *EntityId) UnmarshalJSON(data []byte) error {
	var j jsonEntityId
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	id.WebID, id.EntityUUID, id.DraftID = j.WebID, j.EntityUUID, j.DraftID
	return nil
}

// EntityRecordId names one edition of one entity.
type EntityRecordId struct {
	EntityID  EntityId
	EditionID EntityEditionId
}

type jsonEntityRecordId struct {
	EntityID  EntityId        `json:"entityId"`
	EditionID EntityEditionId `json:"editionId"`
}

// MarshalJSON renders the entity record id in its camelCase wire form.
func (id EntityRecordId) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonEntityRecordId{EntityID: id.EntityID, EditionID: id.EditionID})
}

// UnmarshalJSON parses the camelCase wire form back into an EntityRecordId.
func (id *EntityRecordId) UnmarshalJSON(data []byte) error {
	var j jsonEntityRecordId
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	id.EntityID, id.EditionID = j.EntityID, j.EditionID
	return nil
}

// NewEntityUuid generates a fresh random EntityUuid.
func NewEntityUuid() EntityUuid { return EntityUuid(uuid.New()) }

// NewEntityEditionId generates a fresh random EntityEditionId.
func NewEntityEditionId() EntityEditionId { return EntityEditionId(uuid.New()) }

// NewWebId generates a fresh random WebId.
func NewWebId() WebId { return WebId(uuid.New()) }
