package entity

import (
	"encoding/json"

	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/temporal"
)

type jsonLinkData struct {
	LeftEntityID  ident.EntityId `json:"leftEntityId"`
	RightEntityID ident.EntityId `json:"rightEntityId"`
	LeftOrder     *float64       `json:"leftOrder,omitempty"`
	RightOrder    *float64       `json:"rightOrder,omitempty"`
}

func toJSONLinkData(l *LinkData) *jsonLinkData {
	if l == nil {
		return nil
	}
	return &jsonLinkData{
		LeftEntityID: l.LeftEntityID, RightEntityID: l.RightEntityID,
		LeftOrder: (*float64)(l.LeftOrder), RightOrder: (*float64)(l.RightOrder),
	}
}

func fromJSONLinkData(j *jsonLinkData) *LinkData {
	if j == nil {
		return nil
	}
	return &LinkData{
		LeftEntityID: j.LeftEntityID, RightEntityID: j.RightEntityID,
		LeftOrder: LinkOrder(j.LeftOrder), RightOrder: LinkOrder(j.RightOrder),
	}
}

type jsonTemporalMetadata struct {
	DecisionTime    temporal.Interval[temporal.Timestamp[temporal.DecisionTime]]    `json:"decisionTime"`
	TransactionTime temporal.Interval[temporal.Timestamp[temporal.TransactionTime]] `json:"transactionTime"`
}

type jsonInferredProvenance struct {
	CreatedByID                          ident.ActorId                                    `json:"createdById"`
	CreatedAtTransactionTime              temporal.Timestamp[temporal.TransactionTime]     `json:"createdAtTransactionTime"`
	CreatedAtDecisionTime                 temporal.Timestamp[temporal.DecisionTime]        `json:"createdAtDecisionTime"`
	FirstNonDraftCreatedAtTransactionTime *temporal.Timestamp[temporal.TransactionTime]    `json:"firstNonDraftCreatedAtTransactionTime,omitempty"`
	FirstNonDraftCreatedAtDecisionTime    *temporal.Timestamp[temporal.DecisionTime]       `json:"firstNonDraftCreatedAtDecisionTime,omitempty"`
}

type jsonMetadata struct {
	EntityTypeIDs     []ident.VersionedUrl         `json:"entityTypeIds"`
	Temporal          jsonTemporalMetadata         `json:"temporal"`
	Ownership         ident.Ownership              `json:"ownership"`
	Provenance        jsonInferredProvenance       `json:"provenance"`
	EditionProvenance ident.EditionProvenance      `json:"editionProvenance"`
	Archived          bool                         `json:"archived"`
}

func toJSONMetadata(m Metadata) jsonMetadata {
	return jsonMetadata{
		EntityTypeIDs: m.EntityTypeIDs,
		Temporal: jsonTemporalMetadata{
			DecisionTime:    m.Temporal.DecisionTime,
			TransactionTime: m.Temporal.TransactionTime,
		},
		Ownership: m.Ownership,
		Provenance: jsonInferredProvenance{
			CreatedByID:                           m.Provenance.CreatedByID,
			CreatedAtTransactionTime:               m.Provenance.CreatedAtTransactionTime,
			CreatedAtDecisionTime:                  m.Provenance.CreatedAtDecisionTime,
			FirstNonDraftCreatedAtTransactionTime:   m.Provenance.FirstNonDraftCreatedAtTransactionTime,
			FirstNonDraftCreatedAtDecisionTime:      m.Provenance.FirstNonDraftCreatedAtDecisionTime,
		},
		EditionProvenance: m.EditionProvenance,
		Archived:          m.Archived,
	}
}

func fromJSONMetadata(j jsonMetadata) Metadata {
	return Metadata{
		EntityTypeIDs: j.EntityTypeIDs,
		Temporal: TemporalMetadata{
			DecisionTime:    j.Temporal.DecisionTime,
			TransactionTime: j.Temporal.TransactionTime,
		},
		Ownership: j.Ownership,
		Provenance: InferredProvenance{
			CreatedByID:                           j.Provenance.CreatedByID,
			CreatedAtTransactionTime:               j.Provenance.CreatedAtTransactionTime,
			CreatedAtDecisionTime:                  j.Provenance.CreatedAtDecisionTime,
			FirstNonDraftCreatedAtTransactionTime:   j.Provenance.FirstNonDraftCreatedAtTransactionTime,
			FirstNonDraftCreatedAtDecisionTime:      j.Provenance.FirstNonDraftCreatedAtDecisionTime,
		},
		EditionProvenance: j.EditionProvenance,
		Archived:          j.Archived,
	}
}

type jsonEntity struct {
	ID         ident.EntityRecordId       `json:"recordId"`
	Properties map[string]json.RawMessage `json:"properties"`
	LinkData   *jsonLinkData              `json:"linkData,omitempty"`
	Metadata   jsonMetadata                `json:"metadata"`
}

// MarshalJSON renders the entity edition in its camelCase wire form, the
// body every "entity" SnapshotEntry carries.
func (e Entity) MarshalJSON() ([]byte, error) {
	props := make(map[string]json.RawMessage, len(e.Properties))
	for base, v := range e.Properties {
		props[base.String()] = v
	}
	return json.Marshal(jsonEntity{
		ID: e.ID, Properties: props, LinkData: toJSONLinkData(e.LinkData), Metadata: toJSONMetadata(e.Metadata),
	})
}

// UnmarshalJSON parses the camelCase wire form back into an Entity.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var j jsonEntity
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	props := make(Properties, len(j.Properties))
	for baseStr, v := range j.Properties {
		base, err := ident.ParseBaseUrl(baseStr)
		if err != nil {
			return err
		}
		props[base] = v
	}
	e.ID = j.ID
	e.Properties = props
	e.LinkData = fromJSONLinkData(j.LinkData)
	e.Metadata = fromJSONMetadata(j.Metadata)
	return nil
}
