package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Record is the persisted shape of a mapping. Version and timestamps are
// kept loose so older stores still load.
type Record struct {
	ID                string          `json:"id"`
	JavaSignature     string          `json:"javaSignature"`
	BedrockEquivalent string          `json:"bedrockEquivalent"`
	ConversionType    ConversionType  `json:"conversionType"`
	Notes             string          `json:"notes"`
	ExampleUsage      string          `json:"exampleUsage,omitempty"`
	Version           json.RawMessage `json:"version"`
	CreatedAt         string          `json:"createdAt"`
	LastUpdated       string          `json:"lastUpdated"`
	Deprecated        bool            `json:"deprecated"`
}

// EncodeRecords serialises mappings as a JSON list of flat records with
// RFC 3339 timestamps.
func EncodeRecords(mappings []APIMapping) ([]byte, error) {
	if mappings == nil {
		mappings = []APIMapping{}
	}
	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode mappings: %w", err)
	}
	return data, nil
}

// DecodeRecords parses a JSON list of mapping records. Records that cannot be
// decoded or fail validation are skipped with a warning; only a malformed
// top-level document is an error.
func DecodeRecords(data []byte, logger *zap.Logger) ([]APIMapping, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode mapping list: %w", err)
	}

	mappings := make([]APIMapping, 0, len(raws))
	for i, raw := range raws {
		m, err := decodeRecord(raw)
		if err == nil {
			err = Validate(m)
		}
		if err != nil {
			logger.Warn("skipping invalid mapping record", zap.Int("index", i), zap.Error(err))
			continue
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

func decodeRecord(raw []byte) (APIMapping, error) {
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return APIMapping{}, fmt.Errorf("malformed record: %w", err)
	}
	return FromRecord(r)
}

// FromRecord applies the load tolerance rules: a string or missing version
// becomes 1, and a missing createdAt is back-filled from lastUpdated. The
// result is not validated.
func FromRecord(r Record) (APIMapping, error) {
	version, err := parseVersion(r.Version)
	if err != nil {
		return APIMapping{}, err
	}

	lastUpdated, err := parseTime("lastUpdated", r.LastUpdated)
	if err != nil {
		return APIMapping{}, err
	}
	createdAt, err := parseTime("createdAt", r.CreatedAt)
	if err != nil {
		return APIMapping{}, err
	}
	switch {
	case createdAt.IsZero() && lastUpdated.IsZero():
		return APIMapping{}, fmt.Errorf("record has neither createdAt nor lastUpdated")
	case createdAt.IsZero():
		createdAt = lastUpdated
	case lastUpdated.IsZero():
		lastUpdated = createdAt
	}

	return APIMapping{
		ID:                r.ID,
		JavaSignature:     r.JavaSignature,
		BedrockEquivalent: r.BedrockEquivalent,
		ConversionType:    r.ConversionType,
		Notes:             r.Notes,
		ExampleUsage:      r.ExampleUsage,
		Version:           version,
		CreatedAt:         createdAt,
		LastUpdated:       lastUpdated,
		Deprecated:        r.Deprecated,
	}, nil
}

// parseVersion accepts an integer. String-typed versions from older files
// count as version 1, as does a missing version.
func parseVersion(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 1, nil
	}
	if raw[0] == '"' {
		return 1, nil
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("version %s is not an integer", raw)
	}
	return v, nil
}

func parseTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q is not an ISO-8601 timestamp: %w", field, value, err)
	}
	return t.UTC(), nil
}
