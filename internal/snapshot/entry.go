// Package snapshot implements spec.md §4.9's dump/restore pipeline: a
// storage.SnapshotSource is framed into newline-delimited JSON
// SnapshotEntry records on the way out, and an NDJSON stream is routed
// back into a storage.SnapshotSink's staged RestoreTx on the way in.
package snapshot

import (
	"encoding/json"
	"fmt"
)

// DefaultChunkSize is the capped WriteBatch size spec.md §4.9 names.
const DefaultChunkSize = 10000

// EntryType tags a SnapshotEntry's value, naming which of the eight
// streams a line belongs to.
type EntryType string

const (
	EntryDataType     EntryType = "dataType"
	EntryPropertyType EntryType = "propertyType"
	EntryEntityType   EntryType = "entityType"
	EntryWeb          EntryType = "web"
	EntryActor        EntryType = "actor"
	EntryRole         EntryType = "role"
	EntryEntity       EntryType = "entity"
	EntryPolicy       EntryType = "policy"
)

// SnapshotEntry is one NDJSON line: a tagged union over the eight
// stream kinds. Value carries the tagged record's own camelCase JSON
// body, decoded lazily so the router can dispatch on Type before
// committing to a concrete Go type.
type SnapshotEntry struct {
	Type  EntryType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// marshalEntry wraps a record of one stream's type into its tagged
// SnapshotEntry encoding, one NDJSON line including the trailing
// newline.
func marshalEntry(tag EntryType, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshaling %s entry: %w", tag, err)
	}
	line, err := json.Marshal(SnapshotEntry{Type: tag, Value: body})
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshaling %s entry envelope: %w", tag, err)
	}
	return append(line, '\n'), nil
}
