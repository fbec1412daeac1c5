package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbridge/internal/mapping"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// memoryBackend records every saved snapshot.
type memoryBackend struct {
	mu      sync.Mutex
	initial []mapping.APIMapping
	saves   [][]mapping.APIMapping
	failOn  int
}

func (b *memoryBackend) Load(context.Context) ([]mapping.APIMapping, error) { return b.initial, nil }

func (b *memoryBackend) Save(_ context.Context, ms []mapping.APIMapping) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOn > 0 && len(b.saves)+1 == b.failOn {
		b.saves = append(b.saves, nil)
		return errors.New("disk full")
	}
	b.saves = append(b.saves, ms)
	return nil
}

func (b *memoryBackend) Close() error { return nil }

func newTestStore(t *testing.T, backend Backend) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), backend, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CreateAndFind(t *testing.T) {
	backend := &memoryBackend{}
	s := newTestStore(t, backend)
	ctx := context.Background()

	m := mapping.New("a.b.C.m", "x.y", mapping.Direct, "", testNow)
	created, err := s.Create(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, m, created)

	got, ok := s.FindBySignature("a.b.C.m")
	require.True(t, ok)
	assert.Equal(t, m, got)

	byID, ok := s.Get(m.ID)
	require.True(t, ok)
	assert.Equal(t, m, byID)

	require.Len(t, backend.saves, 1, "each write persists once")
	assert.Equal(t, []mapping.APIMapping{m}, backend.saves[0])
}

func TestStore_CreateRejectsDuplicateSignature(t *testing.T) {
	s := newTestStore(t, &memoryBackend{})
	ctx := context.Background()

	_, err := s.Create(ctx, mapping.New("a.b.C.m", "x.y", mapping.Direct, "", testNow))
	require.NoError(t, err)

	_, err = s.Create(ctx, mapping.New("a.b.C.m", "other", mapping.Wrapper, "", testNow))
	assert.ErrorIs(t, err, mapping.ErrDuplicateSignature)
	assert.Equal(t, 1, s.Len())
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	backend := &memoryBackend{}
	s := newTestStore(t, backend)

	_, err := s.Create(context.Background(), mapping.New("", "x.y", mapping.Direct, "", testNow))
	assert.ErrorIs(t, err, mapping.ErrInvalidMapping)
	assert.Empty(t, backend.saves)
}

func TestStore_Update(t *testing.T) {
	s := newTestStore(t, &memoryBackend{})
	s.now = func() time.Time { return testNow.Add(time.Hour) }
	ctx := context.Background()

	m, err := s.Create(ctx, mapping.New("a.b.C.m", "x.y", mapping.Direct, "", testNow))
	require.NoError(t, err)
	other, err := s.Create(ctx, mapping.New("a.b.C.n", "x.n", mapping.Direct, "", testNow))
	require.NoError(t, err)

	t.Run("signature change re-indexes", func(t *testing.T) {
		sig := "a.b.C.renamed"
		updated, err := s.Update(ctx, m.ID, mapping.MappingUpdate{JavaSignature: &sig})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, testNow.Add(time.Hour), updated.LastUpdated)

		_, ok := s.FindBySignature("a.b.C.m")
		assert.False(t, ok)
		got, ok := s.FindBySignature(sig)
		require.True(t, ok)
		assert.Equal(t, m.ID, got.ID)
	})

	t.Run("signature collision is rejected", func(t *testing.T) {
		sig := other.JavaSignature
		_, err := s.Update(ctx, m.ID, mapping.MappingUpdate{JavaSignature: &sig})
		assert.ErrorIs(t, err, mapping.ErrDuplicateSignature)
	})

	t.Run("invalid change is rejected", func(t *testing.T) {
		bad := mapping.ConversionType("teleport")
		_, err := s.Update(ctx, m.ID, mapping.MappingUpdate{ConversionType: &bad})
		assert.ErrorIs(t, err, mapping.ErrInvalidMapping)
		got, _ := s.Get(m.ID)
		assert.Equal(t, 2, got.Version, "failed update leaves the mapping untouched")
	})

	t.Run("unknown id", func(t *testing.T) {
		notes := "x"
		_, err := s.Update(ctx, "missing", mapping.MappingUpdate{Notes: &notes})
		assert.ErrorIs(t, err, mapping.ErrMappingNotFound)
	})
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t, &memoryBackend{})
	ctx := context.Background()

	m, err := s.Create(ctx, mapping.New("a.b.C.m", "x.y", mapping.Direct, "", testNow))
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, deleted.ID)

	_, ok := s.FindBySignature(m.JavaSignature)
	assert.False(t, ok)
	_, ok = s.Get(m.ID)
	assert.False(t, ok)

	_, err = s.Delete(ctx, m.ID)
	assert.ErrorIs(t, err, mapping.ErrMappingNotFound)
}

func TestStore_FailedPersistDoesNotPublish(t *testing.T) {
	backend := &memoryBackend{failOn: 2}
	s := newTestStore(t, backend)
	ctx := context.Background()

	_, err := s.Create(ctx, mapping.New("a.b.C.m", "x.y", mapping.Direct, "", testNow))
	require.NoError(t, err)

	_, err = s.Create(ctx, mapping.New("a.b.C.n", "x.n", mapping.Direct, "", testNow))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	_, ok := s.FindBySignature("a.b.C.n")
	assert.False(t, ok)
}

func TestStore_UpsertBatch(t *testing.T) {
	existing := mapping.New("a.b.C.m", "x.y", mapping.Direct, "", testNow)
	backend := &memoryBackend{initial: []mapping.APIMapping{existing}}
	s := newTestStore(t, backend)

	prepared := 0
	prepare := func(in mapping.APIMapping) mapping.APIMapping {
		prepared++
		return mapping.New(in.JavaSignature, in.BedrockEquivalent, in.ConversionType, in.Notes, testNow)
	}
	results, err := s.UpsertBatch(context.Background(), []mapping.APIMapping{
		{JavaSignature: "a.b.C.m", BedrockEquivalent: "x.new", ConversionType: mapping.Wrapper},
		{JavaSignature: "a.b.C.n", BedrockEquivalent: "x.n", ConversionType: mapping.Direct},
		{JavaSignature: "a.b.C.bad", BedrockEquivalent: "x", ConversionType: "teleport"},
		{JavaSignature: "a.b.C.n", BedrockEquivalent: "x.n2", ConversionType: mapping.Direct},
	}, prepare)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.False(t, results[0].Created)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, existing.ID, results[0].Mapping.ID)
	assert.Equal(t, 2, results[0].Mapping.Version)

	assert.True(t, results[1].Created)
	assert.Error(t, results[2].Err)
	assert.False(t, results[3].Created, "later items see earlier ones")
	assert.Equal(t, results[1].Mapping.ID, results[3].Mapping.ID)
	assert.Equal(t, 3, prepared)

	require.Len(t, backend.saves, 1, "a batch persists once")
	assert.Len(t, backend.saves[0], 2)
	n, ok := s.FindBySignature("a.b.C.n")
	require.True(t, ok)
	assert.Equal(t, "x.n2", n.BedrockEquivalent)
}

func TestStore_UpsertBatchWithoutChangesSkipsPersist(t *testing.T) {
	backend := &memoryBackend{}
	s := newTestStore(t, backend)

	results, err := s.UpsertBatch(context.Background(), []mapping.APIMapping{
		{JavaSignature: "a.b.C.bad", BedrockEquivalent: "x", ConversionType: "teleport"},
	}, func(in mapping.APIMapping) mapping.APIMapping { return mapping.New(in.JavaSignature, in.BedrockEquivalent, in.ConversionType, "", testNow) })
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Empty(t, backend.saves)
}

func TestStore_UpsertBatchPersistFailure(t *testing.T) {
	backend := &memoryBackend{failOn: 1}
	s := newTestStore(t, backend)

	_, err := s.UpsertBatch(context.Background(), []mapping.APIMapping{
		{JavaSignature: "a.b.C.n", BedrockEquivalent: "x.n", ConversionType: mapping.Direct},
	}, func(in mapping.APIMapping) mapping.APIMapping { return mapping.New(in.JavaSignature, in.BedrockEquivalent, in.ConversionType, "", testNow) })
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_ConcurrentWritesKeepSignaturesUnique(t *testing.T) {
	s := newTestStore(t, &memoryBackend{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sig := fmt.Sprintf("a.b.C.m%d", i%10)
			_, err := s.Create(ctx, mapping.New(sig, "x", mapping.Direct, "", testNow))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, mapping.ErrDuplicateSignature):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, 30, dup)

	seen := make(map[string]bool)
	for _, m := range s.List() {
		assert.False(t, seen[m.JavaSignature], "signature %s stored twice", m.JavaSignature)
		seen[m.JavaSignature] = true
	}
	assert.Len(t, seen, 10)
}

func TestStore_LoadDropsDuplicates(t *testing.T) {
	a := mapping.New("a.b.C.m", "x.y", mapping.Direct, "", testNow)
	b := mapping.New("a.b.C.m", "x.z", mapping.Direct, "", testNow)
	s := newTestStore(t, &memoryBackend{initial: []mapping.APIMapping{a, b}})

	assert.Equal(t, 1, s.Len())
	got, _ := s.FindBySignature("a.b.C.m")
	assert.Equal(t, a.ID, got.ID)
}

func TestStore_Close(t *testing.T) {
	s, err := NewStore(context.Background(), &memoryBackend{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Create(context.Background(), mapping.New("a.b", "c", mapping.Direct, "", testNow))
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestStore_CancelledContextSkipsWrite(t *testing.T) {
	backend := &memoryBackend{}
	s := newTestStore(t, backend)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, mapping.New("a.b", "c", mapping.Direct, "", testNow))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, backend.saves)
}

func TestJSONFileBackend_PersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mappings.json")
	ctx := context.Background()

	s1, err := NewStore(ctx, NewJSONFileBackend(path, nil), nil)
	require.NoError(t, err)
	m, err := s1.Create(ctx, mapping.New("a.b.C.m", "x.y", mapping.Direct, "note", testNow))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := NewStore(ctx, NewJSONFileBackend(path, nil), nil)
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, []mapping.APIMapping{m}, s2.List())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestJSONFileBackend_TolerantLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"1","javaSignature":"a.b.C.m","bedrockEquivalent":"x.y","conversionType":"direct","version":"2.1","lastUpdated":"2024-03-01T10:00:00Z"},
		{"id":"2","javaSignature":"a.b.C.n","conversionType":"direct","version":1,"lastUpdated":"2024-03-01T10:00:00Z"}
	]`), 0o644))

	got, err := NewJSONFileBackend(path, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, got[0].LastUpdated, got[0].CreatedAt)
}

func TestJSONFileBackend_MissingFile(t *testing.T) {
	got, err := NewJSONFileBackend(filepath.Join(t.TempDir(), "none.json"), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
