package mapping

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConversionType classifies how directly a Java API maps to the scripting target.
type ConversionType string

const (
	Direct     ConversionType = "direct"
	Wrapper    ConversionType = "wrapper"
	Complex    ConversionType = "complex"
	Impossible ConversionType = "impossible"
)

// Valid reports whether c is one of the known conversion types.
func (c ConversionType) Valid() bool {
	switch c {
	case Direct, Wrapper, Complex, Impossible:
		return true
	default:
		return false
	}
}

// Describe returns a short human-readable explanation of the conversion type.
func (c ConversionType) Describe() string {
	switch c {
	case Direct:
		return "one-to-one replacement"
	case Wrapper:
		return "needs a thin adapter around the target API"
	case Complex:
		return "needs restructuring of the calling code"
	case Impossible:
		return "no equivalent on the target platform"
	default:
		return "unknown conversion type"
	}
}

// Note prefixes that mark non-authoritative answers.
const (
	PartialMatchMarker = "[PARTIAL MATCH] "
	LegacyMarker       = "[LEGACY] "
)

// APIMapping links one Java API signature to its scripting-target equivalent.
// JavaSignature is unique among live mappings.
type APIMapping struct {
	ID                string         `json:"id" validate:"required"`
	JavaSignature     string         `json:"javaSignature" validate:"required,max=512"`
	BedrockEquivalent string         `json:"bedrockEquivalent" validate:"required"`
	ConversionType    ConversionType `json:"conversionType" validate:"required,conversion_type"`
	Notes             string         `json:"notes"`
	ExampleUsage      string         `json:"exampleUsage,omitempty"`
	Version           int            `json:"version" validate:"gte=1"`
	CreatedAt         time.Time      `json:"createdAt"`
	LastUpdated       time.Time      `json:"lastUpdated"`
	Deprecated        bool           `json:"deprecated"`
}

// New builds a version 1 mapping with a fresh ID.
func New(signature, target string, ct ConversionType, notes string, now time.Time) APIMapping {
	now = now.UTC()
	return APIMapping{
		ID:                uuid.New().String(),
		JavaSignature:     strings.TrimSpace(signature),
		BedrockEquivalent: target,
		ConversionType:    ct,
		Notes:             notes,
		Version:           1,
		CreatedAt:         now,
		LastUpdated:       now,
	}
}

// IsPartialMatch reports whether the mapping came from a fuzzy match.
func (m APIMapping) IsPartialMatch() bool {
	return strings.HasPrefix(m.Notes, PartialMatchMarker)
}

// IsLegacy reports whether the mapping came from the legacy table.
func (m APIMapping) IsLegacy() bool {
	return strings.HasPrefix(m.Notes, LegacyMarker)
}

// WithNotePrefix returns a copy whose notes start with prefix.
func (m APIMapping) WithNotePrefix(prefix string) APIMapping {
	if !strings.HasPrefix(m.Notes, prefix) {
		m.Notes = prefix + m.Notes
	}
	return m
}

// MappingUpdate is a partial update. Nil fields are left unchanged.
type MappingUpdate struct {
	JavaSignature     *string         `json:"javaSignature,omitempty"`
	BedrockEquivalent *string         `json:"bedrockEquivalent,omitempty"`
	ConversionType    *ConversionType `json:"conversionType,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	ExampleUsage      *string         `json:"exampleUsage,omitempty"`
	Deprecated        *bool           `json:"deprecated,omitempty"`
}

// Apply returns the updated copy of m with Version bumped and LastUpdated set
// to now. m itself is not modified.
func (u MappingUpdate) Apply(m APIMapping, now time.Time) APIMapping {
	if u.JavaSignature != nil {
		m.JavaSignature = strings.TrimSpace(*u.JavaSignature)
	}
	if u.BedrockEquivalent != nil {
		m.BedrockEquivalent = *u.BedrockEquivalent
	}
	if u.ConversionType != nil {
		m.ConversionType = *u.ConversionType
	}
	if u.Notes != nil {
		m.Notes = *u.Notes
	}
	if u.ExampleUsage != nil {
		m.ExampleUsage = *u.ExampleUsage
	}
	if u.Deprecated != nil {
		m.Deprecated = *u.Deprecated
	}
	m.Version++
	m.LastUpdated = now.UTC()
	return m
}

// UpdateFrom builds the update that turns a stored mapping into incoming,
// covering every mutable field.
func UpdateFrom(incoming APIMapping) MappingUpdate {
	return MappingUpdate{
		JavaSignature:     &incoming.JavaSignature,
		BedrockEquivalent: &incoming.BedrockEquivalent,
		ConversionType:    &incoming.ConversionType,
		Notes:             &incoming.Notes,
		ExampleUsage:      &incoming.ExampleUsage,
		Deprecated:        &incoming.Deprecated,
	}
}
