package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"modbridge/internal/mapping"
)

// ErrStoreClosed is returned for writes submitted after Close.
var ErrStoreClosed = errors.New("mapping store is closed")

// Backend persists the full set of mappings. Save replaces whatever was
// stored before with the given snapshot.
type Backend interface {
	Load(ctx context.Context) ([]mapping.APIMapping, error)
	Save(ctx context.Context, mappings []mapping.APIMapping) error
	Close() error
}

// snapshot is an immutable view of the store. Writers build a new one and
// swap it in; readers never see a partially applied write.
type snapshot struct {
	byID  map[string]mapping.APIMapping
	bySig map[string]string
	sigs  []string
}

func newSnapshot(mappings []mapping.APIMapping) *snapshot {
	s := &snapshot{
		byID:  make(map[string]mapping.APIMapping, len(mappings)),
		bySig: make(map[string]string, len(mappings)),
	}
	for _, m := range mappings {
		s.byID[m.ID] = m
		s.bySig[m.JavaSignature] = m.ID
	}
	s.reindex()
	return s
}

func (s *snapshot) clone() *snapshot {
	c := &snapshot{
		byID:  make(map[string]mapping.APIMapping, len(s.byID)+1),
		bySig: make(map[string]string, len(s.bySig)+1),
	}
	for k, v := range s.byID {
		c.byID[k] = v
	}
	for k, v := range s.bySig {
		c.bySig[k] = v
	}
	return c
}

func (s *snapshot) reindex() {
	s.sigs = make([]string, 0, len(s.bySig))
	for sig := range s.bySig {
		s.sigs = append(s.sigs, sig)
	}
	sort.Strings(s.sigs)
}

// insert adds m to a snapshot that is still being built.
func (s *snapshot) insert(m mapping.APIMapping) error {
	if err := mapping.Validate(m); err != nil {
		return err
	}
	if _, taken := s.bySig[m.JavaSignature]; taken {
		return fmt.Errorf("%w: %s", mapping.ErrDuplicateSignature, m.JavaSignature)
	}
	if _, taken := s.byID[m.ID]; taken {
		return &mapping.ValidationError{Problems: []string{"ID " + m.ID + " already exists"}}
	}
	s.byID[m.ID] = m
	s.bySig[m.JavaSignature] = m.ID
	return nil
}

// update applies upd to a snapshot that is still being built.
func (s *snapshot) update(id string, upd mapping.MappingUpdate, now time.Time) (mapping.APIMapping, error) {
	old, ok := s.byID[id]
	if !ok {
		return mapping.APIMapping{}, fmt.Errorf("%w: %s", mapping.ErrMappingNotFound, id)
	}
	updated := upd.Apply(old, now)
	if err := mapping.Validate(updated); err != nil {
		return mapping.APIMapping{}, err
	}
	if owner, taken := s.bySig[updated.JavaSignature]; taken && owner != id {
		return mapping.APIMapping{}, fmt.Errorf("%w: %s", mapping.ErrDuplicateSignature, updated.JavaSignature)
	}
	delete(s.bySig, old.JavaSignature)
	s.byID[id] = updated
	s.bySig[updated.JavaSignature] = id
	return updated, nil
}

// list returns mappings ordered by signature.
func (s *snapshot) list() []mapping.APIMapping {
	out := make([]mapping.APIMapping, 0, len(s.sigs))
	for _, sig := range s.sigs {
		out = append(out, s.byID[s.bySig[sig]])
	}
	return out
}

type writeResult struct {
	mapping mapping.APIMapping
	err     error
}

type writeOp struct {
	ctx   context.Context
	apply func(cur *snapshot) (*snapshot, mapping.APIMapping, error)
	done  chan writeResult
}

// Store owns the signature index for one backend. All writes go through a
// single FIFO queue drained by one goroutine: each write is validated,
// persisted and published before the next one starts. Reads load the current
// snapshot and never wait for writers.
type Store struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time

	current atomic.Pointer[snapshot]

	mu     sync.RWMutex
	closed bool
	ops    chan *writeOp
	wg     sync.WaitGroup
}

// NewStore loads the backend contents and starts the writer queue.
func NewStore(ctx context.Context, backend Backend, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loaded, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}

	s := &Store{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		ops:     make(chan *writeOp, 64),
	}
	s.current.Store(newSnapshot(dedupe(loaded, logger)))

	s.wg.Add(1)
	go s.writer()

	logger.Debug("mapping store opened", zap.Int("mappings", len(loaded)))
	return s, nil
}

// dedupe drops later records that reuse an ID or signature already seen.
func dedupe(loaded []mapping.APIMapping, logger *zap.Logger) []mapping.APIMapping {
	ids := make(map[string]bool, len(loaded))
	sigs := make(map[string]bool, len(loaded))
	out := loaded[:0:0]
	for _, m := range loaded {
		if ids[m.ID] || sigs[m.JavaSignature] {
			logger.Warn("skipping duplicate mapping record",
				zap.String("id", m.ID), zap.String("signature", m.JavaSignature))
			continue
		}
		ids[m.ID] = true
		sigs[m.JavaSignature] = true
		out = append(out, m)
	}
	return out
}

func (s *Store) writer() {
	defer s.wg.Done()
	for op := range s.ops {
		op.done <- s.run(op)
	}
}

func (s *Store) run(op *writeOp) writeResult {
	if err := op.ctx.Err(); err != nil {
		return writeResult{err: err}
	}
	cur := s.current.Load()
	next, m, err := op.apply(cur)
	if err != nil {
		return writeResult{err: err}
	}
	if next == cur {
		return writeResult{mapping: m}
	}
	next.reindex()
	if err := s.backend.Save(op.ctx, next.list()); err != nil {
		return writeResult{err: fmt.Errorf("failed to persist mappings: %w", err)}
	}
	s.current.Store(next)
	return writeResult{mapping: m}
}

// submit queues a write and waits until it has been fully applied.
func (s *Store) submit(ctx context.Context, apply func(cur *snapshot) (*snapshot, mapping.APIMapping, error)) (mapping.APIMapping, error) {
	op := &writeOp{ctx: ctx, apply: apply, done: make(chan writeResult, 1)}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return mapping.APIMapping{}, ErrStoreClosed
	}
	s.ops <- op
	s.mu.RUnlock()

	r := <-op.done
	return r.mapping, r.err
}

// Create adds a new mapping. The signature must not be in use.
func (s *Store) Create(ctx context.Context, m mapping.APIMapping) (mapping.APIMapping, error) {
	if err := mapping.Validate(m); err != nil {
		return mapping.APIMapping{}, err
	}
	return s.submit(ctx, func(cur *snapshot) (*snapshot, mapping.APIMapping, error) {
		next := cur.clone()
		if err := next.insert(m); err != nil {
			return nil, mapping.APIMapping{}, err
		}
		return next, m, nil
	})
}

// Update applies a partial update, bumps the version and re-indexes the
// signature when it changed.
func (s *Store) Update(ctx context.Context, id string, upd mapping.MappingUpdate) (mapping.APIMapping, error) {
	return s.submit(ctx, func(cur *snapshot) (*snapshot, mapping.APIMapping, error) {
		next := cur.clone()
		updated, err := next.update(id, upd, s.now())
		if err != nil {
			return nil, mapping.APIMapping{}, err
		}
		return next, updated, nil
	})
}

// ItemResult is the outcome of one item of UpsertBatch.
type ItemResult struct {
	Mapping mapping.APIMapping
	Created bool
	Err     error
}

// UpsertBatch applies items in order as one queued write. An item matching a
// stored mapping by ID, then by signature, updates it; any other item is
// passed through prepare and inserted. Items see the effect of earlier items
// of the batch. A failing item is reported and skipped. The backend is
// written once for the whole batch; when that fails, the error is returned
// and nothing is applied.
func (s *Store) UpsertBatch(ctx context.Context, items []mapping.APIMapping, prepare func(mapping.APIMapping) mapping.APIMapping) ([]ItemResult, error) {
	results := make([]ItemResult, len(items))
	_, err := s.submit(ctx, func(cur *snapshot) (*snapshot, mapping.APIMapping, error) {
		next := cur.clone()
		changed := false
		now := s.now()
		for i, in := range items {
			id, ok := "", false
			if in.ID != "" {
				_, ok = next.byID[in.ID]
				id = in.ID
			}
			if !ok {
				id, ok = next.bySig[in.JavaSignature]
			}
			if ok {
				updated, err := next.update(id, mapping.UpdateFrom(in), now)
				results[i] = ItemResult{Mapping: updated, Err: err}
			} else {
				created := prepare(in)
				err := next.insert(created)
				if err != nil {
					created = mapping.APIMapping{}
				}
				results[i] = ItemResult{Mapping: created, Created: err == nil, Err: err}
			}
			if results[i].Err == nil {
				changed = true
			}
		}
		if !changed {
			return cur, mapping.APIMapping{}, nil
		}
		return next, mapping.APIMapping{}, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Delete removes a mapping from both indexes.
func (s *Store) Delete(ctx context.Context, id string) (mapping.APIMapping, error) {
	return s.submit(ctx, func(cur *snapshot) (*snapshot, mapping.APIMapping, error) {
		old, ok := cur.byID[id]
		if !ok {
			return nil, mapping.APIMapping{}, fmt.Errorf("%w: %s", mapping.ErrMappingNotFound, id)
		}
		next := cur.clone()
		delete(next.byID, id)
		delete(next.bySig, old.JavaSignature)
		return next, old, nil
	})
}

// Get returns the mapping with the given ID.
func (s *Store) Get(id string) (mapping.APIMapping, bool) {
	m, ok := s.current.Load().byID[id]
	return m, ok
}

// FindBySignature is the exact signature lookup.
func (s *Store) FindBySignature(sig string) (mapping.APIMapping, bool) {
	snap := s.current.Load()
	id, ok := snap.bySig[sig]
	if !ok {
		return mapping.APIMapping{}, false
	}
	return snap.byID[id], true
}

// Signatures returns every stored signature in ascending order.
func (s *Store) Signatures() []string {
	return s.current.Load().sigs
}

// List returns all mappings ordered by signature.
func (s *Store) List() []mapping.APIMapping {
	return s.current.Load().list()
}

// Len returns the number of stored mappings.
func (s *Store) Len() int {
	return len(s.current.Load().byID)
}

// Close waits for queued writes to finish, stops the writer and closes the
// backend.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ops)
	s.mu.Unlock()

	s.wg.Wait()
	return s.backend.Close()
}
