package badger

import (
	"encoding/json"
	"fmt"

	"github.com/integrable/stardust/pkg/store/meta"
)

// Serialization Strategy
// ======================
//
// Records are stored as JSON. Metadata records are small and infrequently
// written compared to blob content, so the debuggability of JSON outweighs
// the size and speed of a binary codec. Group index values are raw file id
// bytes - there is nothing to encode.

// encodeFileRecord serializes a FileRecord to JSON bytes.
func encodeFileRecord(record *meta.FileRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file record: %w", err)
	}
	return data, nil
}

// decodeFileRecord deserializes a FileRecord from JSON bytes.
func decodeFileRecord(data []byte) (*meta.FileRecord, error) {
	var record meta.FileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode file record: %w", err)
	}
	return &record, nil
}

// encodeGroupRecord serializes a GroupRecord to JSON bytes.
func encodeGroupRecord(record *meta.GroupRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode group record: %w", err)
	}
	return data, nil
}

// decodeGroupRecord deserializes a GroupRecord from JSON bytes.
func decodeGroupRecord(data []byte) (*meta.GroupRecord, error) {
	var record meta.GroupRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode group record: %w", err)
	}
	return &record, nil
}
