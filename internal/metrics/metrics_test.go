package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.ObserveLookup("exact")
	c.ObserveLookup("exact")
	c.ObserveLookup("synthesis")
	c.ObserveCache(true)
	c.ObserveCache(false)
	c.ObserveCache(false)
	c.ObserveValidation("equivalent", 20*time.Millisecond)
	c.ObserveValidation("timeout", time.Minute)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Lookups.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Lookups.WithLabelValues("synthesis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheEvents.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheEvents.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Validations.WithLabelValues("timeout")))

	// Independent registries do not collide.
	other := NewCollector()
	assert.Equal(t, 0.0, testutil.ToFloat64(other.Lookups.WithLabelValues("exact")))
}

func TestCollector_WriteToTextfile(t *testing.T) {
	c := NewCollector()
	c.ObserveLookup("fuzzy")

	path := filepath.Join(t.TempDir(), "modbridge.prom")
	require.NoError(t, c.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `modbridge_resolver_lookups_total{stage="fuzzy"} 1`)
	assert.Contains(t, string(data), "modbridge_validation_duration_seconds")
}
