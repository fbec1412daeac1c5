package resolver

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"

	"modbridge/internal/mapping"
)

//go:embed legacy_mappings.toml
var defaultLegacyTable string

// LegacyTable holds deprecated mappings kept for older mod sources. Entries
// are marked deprecated and their notes carry the legacy marker.
type LegacyTable struct {
	bySig map[string]mapping.APIMapping
}

type legacyFile struct {
	Mappings []legacyEntry `toml:"mapping"`
}

type legacyEntry struct {
	JavaSignature     string `toml:"java_signature"`
	BedrockEquivalent string `toml:"bedrock_equivalent"`
	ConversionType    string `toml:"conversion_type"`
	Notes             string `toml:"notes"`
	ExampleUsage      string `toml:"example_usage,omitempty"`
}

// LoadLegacyTable reads a legacy table from path, or the built-in table when
// path is empty.
func LoadLegacyTable(path string) (*LegacyTable, error) {
	var file legacyFile
	if path == "" {
		if _, err := toml.Decode(defaultLegacyTable, &file); err != nil {
			return nil, fmt.Errorf("failed to decode built-in legacy table: %w", err)
		}
	} else if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to decode legacy table %s: %w", path, err)
	}
	return newLegacyTable(file.Mappings)
}

func newLegacyTable(entries []legacyEntry) (*LegacyTable, error) {
	t := &LegacyTable{bySig: make(map[string]mapping.APIMapping, len(entries))}
	for _, e := range entries {
		m := mapping.APIMapping{
			ID:                "legacy:" + e.JavaSignature,
			JavaSignature:     e.JavaSignature,
			BedrockEquivalent: e.BedrockEquivalent,
			ConversionType:    mapping.ConversionType(e.ConversionType),
			Notes:             mapping.LegacyMarker + e.Notes,
			ExampleUsage:      e.ExampleUsage,
			Version:           1,
			Deprecated:        true,
		}
		if err := mapping.Validate(m); err != nil {
			return nil, fmt.Errorf("legacy entry %q: %w", e.JavaSignature, err)
		}
		t.bySig[m.JavaSignature] = m
	}
	return t, nil
}

// Lookup returns the legacy mapping for sig.
func (t *LegacyTable) Lookup(sig string) (mapping.APIMapping, bool) {
	m, ok := t.bySig[sig]
	return m, ok
}

// Len returns the number of entries.
func (t *LegacyTable) Len() int { return len(t.bySig) }
