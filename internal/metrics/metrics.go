package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modbridge"

// Collector holds the Prometheus metrics for mapping lookups and
// validations. It satisfies resolver.Metrics and equivalence.Metrics.
type Collector struct {
	registry *prometheus.Registry

	Lookups            *prometheus.CounterVec
	CacheEvents        *prometheus.CounterVec
	Validations        *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
}

// NewCollector creates a collector backed by its own registry, so several
// collectors can coexist in one process.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_lookups_total",
			Help:      "Mapping lookups by the stage that answered them",
		},
		[]string{"stage"},
	)

	cacheEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_cache_events_total",
			Help:      "Resolver cache hits and misses",
		},
		[]string{"event"},
	)

	validations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Equivalence validations by outcome",
		},
		[]string{"outcome"},
	)

	validationDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Wall time of equivalence validations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	registry.MustRegister(lookups, cacheEvents, validations, validationDuration)

	return &Collector{
		registry:           registry,
		Lookups:            lookups,
		CacheEvents:        cacheEvents,
		Validations:        validations,
		ValidationDuration: validationDuration,
	}
}

func (c *Collector) ObserveLookup(stage string) {
	c.Lookups.WithLabelValues(stage).Inc()
}

func (c *Collector) ObserveCache(hit bool) {
	event := "miss"
	if hit {
		event = "hit"
	}
	c.CacheEvents.WithLabelValues(event).Inc()
}

func (c *Collector) ObserveValidation(outcome string, d time.Duration) {
	c.Validations.WithLabelValues(outcome).Inc()
	c.ValidationDuration.Observe(d.Seconds())
}

// Registry exposes the collector's registry for scraping or dumping.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteToTextfile dumps every metric in the text exposition format.
func (c *Collector) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
