package ident

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/coregraph/typegraph/internal/temporal"
)

// ActorKind discriminates the three principal types the store attributes
// editions to.
type ActorKind int

const (
	ActorUser ActorKind = iota
	ActorMachine
	ActorAI
)

func (k ActorKind) String() string {
	switch k {
	case ActorUser:
		return "user"
	case ActorMachine:
		return "machine"
	case ActorAI:
		return "ai"
	default:
		return "unknown"
	}
}

// ActorId is a tagged union over {User, Machine, Ai}, stored in the
// database as a UUID column plus a principal_type tag column (§4.3).
type ActorId struct {
	Kind ActorKind
	UUID uuid.UUID
}

// NewActorId constructs a tagged ActorId.
func NewActorId(kind ActorKind, id uuid.UUID) ActorId {
	return ActorId{Kind: kind, UUID: id}
}

func (a ActorId) String() string {
	return fmt.Sprintf("%s:%s", a.Kind, a.UUID)
}

type jsonActorId struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// MarshalJSON renders {"type":"user"|"machine"|"ai","id":"<uuid>"}.
func (a ActorId) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonActorId{Type: a.Kind.String(), ID: a.UUID})
}

// UnmarshalJSON parses the tagged actor representation, rejecting
// unknown principal types.
func (a *ActorId) UnmarshalJSON(data []byte) error {
	var j jsonActorId
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	var kind ActorKind
	switch j.Type {
	case "user":
		kind = ActorUser
	case "machine":
		kind = ActorMachine
	case "ai":
		kind = ActorAI
	default:
		return fmt.Errorf("ident: unknown actor principal_type %q", j.Type)
	}
	a.Kind = kind
	a.UUID = j.ID
	return nil
}

// Ownership describes who owns an ontology or entity edition: either a
// live web, or an externally fetched record stamped with when it was
// last fetched.
type Ownership struct {
	Owned    *WebId
	External *ExternalOwnership
}

// ExternalOwnership marks a record fetched from outside the store.
type ExternalOwnership struct {
	FetchedAt temporal.Timestamp[temporal.TransactionTime]
}

type jsonExternalOwnership struct {
	FetchedAt temporal.Timestamp[temporal.TransactionTime] `json:"fetchedAt"`
}

// MarshalJSON renders the external ownership stamp in camelCase.
func (o ExternalOwnership) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonExternalOwnership{FetchedAt: o.FetchedAt})
}

// UnmarshalJSON parses the camelCase external ownership stamp.
func (o *ExternalOwnership) UnmarshalJSON(data []byte) error {
	var j jsonExternalOwnership
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	o.FetchedAt = j.FetchedAt
	return nil
}

type jsonOwnership struct {
	WebID    *WebId             `json:"webId,omitempty"`
	External *ExternalOwnership `json:"external,omitempty"`
}

// MarshalJSON renders ownership as a tagged {"webId":...} or
// {"external":{"fetchedAt":...}} object.
func (o Ownership) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonOwnership{WebID: o.Owned, External: o.External})
}

// UnmarshalJSON parses the tagged ownership representation.
func (o *Ownership) UnmarshalJSON(data []byte) error {
	var j jsonOwnership
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	o.Owned, o.External = j.WebID, j.External
	return nil
}

// IsOwned reports whether the ownership record names a live web.
func (o Ownership) IsOwned() bool { return o.Owned != nil }
