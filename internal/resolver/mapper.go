package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"modbridge/internal/mapping"
	"modbridge/internal/storage"
)

// MappingStore is the mapping persistence the Mapper writes through.
// storage.Store implements it.
type MappingStore interface {
	SignatureIndex
	Get(id string) (mapping.APIMapping, bool)
	List() []mapping.APIMapping
	Create(ctx context.Context, m mapping.APIMapping) (mapping.APIMapping, error)
	Update(ctx context.Context, id string, upd mapping.MappingUpdate) (mapping.APIMapping, error)
	Delete(ctx context.Context, id string) (mapping.APIMapping, error)
	UpsertBatch(ctx context.Context, items []mapping.APIMapping, prepare func(mapping.APIMapping) mapping.APIMapping) ([]storage.ItemResult, error)
}

// Metrics receives resolver outcomes.
type Metrics interface {
	ObserveLookup(stage string)
	ObserveCache(hit bool)
}

type noopMetrics struct{}

func (noopMetrics) ObserveLookup(string) {}
func (noopMetrics) ObserveCache(bool)    {}

// Options configures a Mapper. Zero values select the defaults.
type Options struct {
	FuzzyThreshold float64
	CacheSize      int
	Legacy         *LegacyTable
	Logger         *zap.Logger
	Metrics        Metrics
}

const (
	DefaultFuzzyThreshold = 0.7
	DefaultCacheSize      = 1000
)

// Mapper resolves Java API signatures to scripting-target mappings and is the
// write path for the mapping store. It owns its cache; each Mapper is
// independent.
type Mapper struct {
	// writeMu orders store writes with their cache updates.
	writeMu sync.Mutex
	store   MappingStore
	chain   *ResolverChain
	cache   *mappingCache
	logger  *zap.Logger
	metrics Metrics
	now     func() time.Time
}

func NewMapper(store MappingStore, opts Options) *Mapper {
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	return &Mapper{
		store:   store,
		chain:   NewDefaultChain(store, opts.FuzzyThreshold, opts.Legacy),
		cache:   newMappingCache(opts.CacheSize),
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

// Lookup returns the mapping for sig. It never fails: when nothing matches,
// the result is a synthesised impossible mapping.
func (m *Mapper) Lookup(sig string) mapping.APIMapping {
	return m.Resolve(sig).Mapping
}

// Resolve is Lookup with the stage trace. Only exact store hits are cached.
func (m *Mapper) Resolve(sig string) Resolution {
	sig = strings.TrimSpace(sig)

	if cached, ok := m.cache.get(sig); ok {
		m.metrics.ObserveCache(true)
		m.metrics.ObserveLookup(StageCache)
		return Resolution{
			Mapping:    cached,
			Stage:      StageCache,
			Similarity: 1,
			Attempts:   []StageResult{{Stage: StageCache, Matched: true, Similarity: 1}},
		}
	}
	m.metrics.ObserveCache(false)

	epoch := m.cache.epochNow()
	res := m.chain.Run(sig)
	res.Attempts = append([]StageResult{{Stage: StageCache}}, res.Attempts...)
	if res.Stage == StageExact {
		m.cache.putIfCurrent(sig, res.Mapping, epoch)
	}
	m.metrics.ObserveLookup(res.Stage)
	m.logger.Debug("resolved signature",
		zap.String("signature", sig),
		zap.String("stage", res.Stage),
		zap.Float64("similarity", res.Similarity))
	return res
}

// Create stores a new mapping built from its core fields.
func (m *Mapper) Create(ctx context.Context, sig, target string, ct mapping.ConversionType, notes string) (mapping.APIMapping, error) {
	return m.CreateMapping(ctx, mapping.New(sig, target, ct, notes, m.now()))
}

// CreateMapping stores a fully built mapping as version 1 of a new record.
// Missing ID and timestamps are filled in. It fails with
// mapping.ErrDuplicateSignature when the signature is taken.
func (m *Mapper) CreateMapping(ctx context.Context, in mapping.APIMapping) (mapping.APIMapping, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	created, err := m.store.Create(ctx, m.prepareNew(in))
	if err != nil {
		return mapping.APIMapping{}, err
	}
	m.cache.invalidate(created.JavaSignature)
	return created, nil
}

// Update applies a partial update. A cached entry under the old signature is
// dropped and the result is cached under its current signature.
func (m *Mapper) Update(ctx context.Context, id string, upd mapping.MappingUpdate) (mapping.APIMapping, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	updated, err := m.store.Update(ctx, id, upd)
	if err != nil {
		return mapping.APIMapping{}, err
	}
	m.cache.invalidateID(id)
	m.cache.put(updated.JavaSignature, updated)
	return updated, nil
}

// Delete removes a mapping and its cache entry.
func (m *Mapper) Delete(ctx context.Context, id string) (mapping.APIMapping, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	deleted, err := m.store.Delete(ctx, id)
	if err != nil {
		return mapping.APIMapping{}, err
	}
	m.cache.invalidateID(id)
	return deleted, nil
}

// prepareNew normalises a mapping that is about to be created.
func (m *Mapper) prepareNew(in mapping.APIMapping) mapping.APIMapping {
	in.JavaSignature = strings.TrimSpace(in.JavaSignature)
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	in.Version = 1
	if in.CreatedAt.IsZero() {
		in.CreatedAt = m.now().UTC()
	}
	if in.LastUpdated.IsZero() {
		in.LastUpdated = in.CreatedAt
	}
	return in
}

// Get returns a stored mapping by ID.
func (m *Mapper) Get(id string) (mapping.APIMapping, bool) {
	return m.store.Get(id)
}

// Export returns every stored mapping ordered by signature.
func (m *Mapper) Export() []mapping.APIMapping {
	return m.store.List()
}
