package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockStore is a Store built from function fields.
type mockStore struct {
	getFn    func(ctx context.Context, key string) (Entry, bool, error)
	setFn    func(ctx context.Context, key string, entry Entry) error
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	return m.getFn(ctx, key)
}

func (m *mockStore) Set(ctx context.Context, key string, entry Entry) error {
	return m.setFn(ctx, key, entry)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}

func samplePapers() []domain.Paper {
	return []domain.Paper{
		{Title: "Attention Is All You Need", Authors: "Vaswani", Source: domain.SourceTypeArXiv},
		{Title: "BERT", Authors: "Devlin", Source: domain.SourceTypeArXiv},
	}
}

func newTestCache(store Store, clock *fakeClock) *Cache {
	return New(store, Config{Now: clock.Now}, zerolog.Nop())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "research_papers_cache:quantum computing:arXiv",
		Key("", "Quantum Computing", domain.SourceTypeArXiv))
	assert.Equal(t, "research_papers_cache:s-1:quantum:Semantic Scholar",
		Key("s-1", "QUANTUM", domain.SourceTypeSemanticScholar))
}

func TestCache_Freshness(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	t.Run("hit just inside the window", func(t *testing.T) {
		store := NewMemoryStore()
		c := newTestCache(store, clock)
		c.Put(ctx, "transformers", domain.SourceTypeArXiv, samplePapers())

		clock.Advance(23*time.Hour + 59*time.Minute)
		papers, ok := c.Get(ctx, "transformers", domain.SourceTypeArXiv)
		require.True(t, ok)
		assert.Equal(t, samplePapers(), papers)
	})

	t.Run("miss and eviction just past the window", func(t *testing.T) {
		store := NewMemoryStore()
		c := newTestCache(store, clock)
		c.Put(ctx, "transformers", domain.SourceTypeArXiv, samplePapers())

		clock.Advance(24*time.Hour + time.Second)
		papers, ok := c.Get(ctx, "transformers", domain.SourceTypeArXiv)
		assert.False(t, ok)
		assert.Nil(t, papers)
		assert.Equal(t, 0, store.Len(), "stale entry should be deleted on read")
	})

	t.Run("exactly the window is stale", func(t *testing.T) {
		store := NewMemoryStore()
		c := newTestCache(store, clock)
		c.Put(ctx, "q", domain.SourceTypePubMed, samplePapers())

		clock.Advance(DefaultFreshness)
		_, ok := c.Get(ctx, "q", domain.SourceTypePubMed)
		assert.False(t, ok)
	})
}

func TestCache_KeyScoping(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := newTestCache(NewMemoryStore(), clock)

	c.Put(ctx, "Deep Learning", domain.SourceTypeArXiv, samplePapers())

	t.Run("query is case-insensitive", func(t *testing.T) {
		_, ok := c.Get(ctx, "deep learning", domain.SourceTypeArXiv)
		assert.True(t, ok)
	})

	t.Run("other source misses", func(t *testing.T) {
		_, ok := c.Get(ctx, "deep learning", domain.SourceTypeCrossRef)
		assert.False(t, ok)
	})

	t.Run("other session misses", func(t *testing.T) {
		sessCtx := observability.WithSessionID(ctx, "alice")
		_, ok := c.Get(sessCtx, "deep learning", domain.SourceTypeArXiv)
		assert.False(t, ok)

		c.Put(sessCtx, "deep learning", domain.SourceTypeArXiv, samplePapers()[:1])
		papers, ok := c.Get(sessCtx, "deep learning", domain.SourceTypeArXiv)
		require.True(t, ok)
		assert.Len(t, papers, 1)
	})
}

func TestCache_PutCopiesInput(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryStore(), &fakeClock{now: time.Now()})

	papers := samplePapers()
	c.Put(ctx, "q", domain.SourceTypeArXiv, papers)
	papers[0].Title = "mutated"

	got, ok := c.Get(ctx, "q", domain.SourceTypeArXiv)
	require.True(t, ok)
	assert.Equal(t, "Attention Is All You Need", got[0].Title)
}

func TestCache_StoreErrors(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	boom := errors.New("disk full")

	t.Run("read error is a miss", func(t *testing.T) {
		store := &mockStore{
			getFn: func(context.Context, string) (Entry, bool, error) { return Entry{}, false, boom },
		}
		_, ok := newTestCache(store, clock).Get(ctx, "q", domain.SourceTypeArXiv)
		assert.False(t, ok)
	})

	t.Run("write error is swallowed", func(t *testing.T) {
		called := false
		store := &mockStore{
			setFn: func(context.Context, string, Entry) error {
				called = true
				return boom
			},
		}
		assert.NotPanics(t, func() {
			newTestCache(store, clock).Put(ctx, "q", domain.SourceTypeArXiv, samplePapers())
		})
		assert.True(t, called)
	})

	t.Run("eviction error still misses", func(t *testing.T) {
		store := &mockStore{
			getFn: func(context.Context, string) (Entry, bool, error) {
				return Entry{Papers: samplePapers(), CapturedAt: clock.Now().Add(-48 * time.Hour)}, true, nil
			},
			deleteFn: func(context.Context, string) error { return boom },
		}
		_, ok := newTestCache(store, clock).Get(ctx, "q", domain.SourceTypeArXiv)
		assert.False(t, ok)
	})
}

func TestCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryStore(), &fakeClock{now: time.Now()})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Put(ctx, "q", domain.SourceTypeArXiv, samplePapers())
		}()
		go func() {
			defer wg.Done()
			c.Get(ctx, "q", domain.SourceTypeArXiv)
		}()
	}
	wg.Wait()

	_, ok := c.Get(ctx, "q", domain.SourceTypeArXiv)
	assert.True(t, ok)
}
