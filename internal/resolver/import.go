package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"modbridge/internal/mapping"
)

// ImportFailure records why one item of a bulk import was not applied.
type ImportFailure struct {
	Index     int    `json:"index"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error"`
}

// ImportReport summarises a bulk import.
type ImportReport struct {
	Created  int             `json:"created"`
	Updated  int             `json:"updated"`
	Failures []ImportFailure `json:"failures,omitempty"`
}

// Import creates or updates every mapping in one store write. An existing
// mapping is matched by ID first, then by signature. New mappings start at
// version 1. A failing item is recorded and the rest of the batch still
// applies. The cache is cleared afterwards.
func (m *Mapper) Import(ctx context.Context, items []mapping.APIMapping) ImportReport {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	defer m.cache.clear()

	batch := make([]mapping.APIMapping, len(items))
	for i, in := range items {
		in.JavaSignature = strings.TrimSpace(in.JavaSignature)
		batch[i] = in
	}

	var report ImportReport
	results, err := m.store.UpsertBatch(ctx, batch, m.prepareNew)
	if err != nil {
		m.logger.Warn("mapping import failed", zap.Int("items", len(batch)), zap.Error(err))
		for i, in := range batch {
			report.Failures = append(report.Failures, ImportFailure{Index: i, Signature: in.JavaSignature, Error: err.Error()})
		}
		return report
	}

	for i, r := range results {
		switch {
		case r.Err != nil:
			m.logger.Warn("mapping import item failed",
				zap.Int("index", i), zap.String("signature", batch[i].JavaSignature), zap.Error(r.Err))
			report.Failures = append(report.Failures, ImportFailure{Index: i, Signature: batch[i].JavaSignature, Error: r.Err.Error()})
		case r.Created:
			report.Created++
		default:
			report.Updated++
		}
	}
	return report
}

// ImportJSON decodes a JSON list of mapping records and imports them. Items
// that cannot be decoded are reported as failures alongside store failures.
// Only a document that is not a JSON list is an error.
func (m *Mapper) ImportJSON(ctx context.Context, data []byte) (ImportReport, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return ImportReport{}, fmt.Errorf("failed to decode import list: %w", err)
	}

	items := make([]mapping.APIMapping, 0, len(raws))
	positions := make([]int, 0, len(raws))
	var decodeFailures []ImportFailure
	for i, raw := range raws {
		in, err := decodeImportItem(raw, m.now())
		if err != nil {
			decodeFailures = append(decodeFailures, ImportFailure{Index: i, Error: err.Error()})
			continue
		}
		items = append(items, in)
		positions = append(positions, i)
	}

	report := m.Import(ctx, items)
	for j := range report.Failures {
		report.Failures[j].Index = positions[report.Failures[j].Index]
	}
	report.Failures = append(decodeFailures, report.Failures...)
	sort.SliceStable(report.Failures, func(a, b int) bool {
		return report.Failures[a].Index < report.Failures[b].Index
	})
	return report, nil
}

// decodeImportItem reads one record. Import files may omit ID and timestamps.
func decodeImportItem(raw json.RawMessage, now time.Time) (mapping.APIMapping, error) {
	var r mapping.Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return mapping.APIMapping{}, fmt.Errorf("malformed record: %w", err)
	}
	if r.CreatedAt == "" && r.LastUpdated == "" {
		r.LastUpdated = now.UTC().Format(time.RFC3339Nano)
	}
	return mapping.FromRecord(r)
}
