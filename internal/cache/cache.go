// Package cache stores per-source paper results keyed by query, so repeated
// searches within the freshness window skip the network.
//
// Entries are served while younger than the freshness window (24h by
// default) and deleted on the first read after that. Store failures never
// reach the caller: they are logged and treated as a miss or a no-op.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

const (
	// KeyPrefix starts every cache key.
	KeyPrefix = "research_papers_cache:"

	// DefaultFreshness is how long an entry is served.
	DefaultFreshness = 24 * time.Hour
)

// Entry is one cached result set.
type Entry struct {
	Papers     []domain.Paper
	CapturedAt time.Time
}

// Store is the persistence behind the cache.
type Store interface {
	// Get returns the entry for key. found is false when there is none.
	Get(ctx context.Context, key string) (entry Entry, found bool, err error)
	// Set replaces the entry for key.
	Set(ctx context.Context, key string, entry Entry) error
	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Config configures a Cache.
type Config struct {
	// Freshness is the maximum age of a served entry. Defaults to DefaultFreshness.
	Freshness time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Metrics records hits, misses and evictions. May be nil.
	Metrics *observability.Metrics
}

// Cache is a freshness-checking cache of paper lists per query and source.
// It is safe for concurrent use when its Store is.
type Cache struct {
	store     Store
	freshness time.Duration
	now       func() time.Time
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// New creates a Cache over store.
func New(store Store, cfg Config, logger zerolog.Logger) *Cache {
	if cfg.Freshness <= 0 {
		cfg.Freshness = DefaultFreshness
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		store:     store,
		freshness: cfg.Freshness,
		now:       cfg.Now,
		metrics:   cfg.Metrics,
		logger:    logger.With().Str("component", "paper_cache").Logger(),
	}
}

// Key builds the storage key for a query and source. A non-empty session
// namespaces the key so different users never share entries.
func Key(session, query string, source domain.SourceType) string {
	var b strings.Builder
	b.WriteString(KeyPrefix)
	if session != "" {
		b.WriteString(session)
		b.WriteByte(':')
	}
	b.WriteString(strings.ToLower(query))
	b.WriteByte(':')
	b.WriteString(string(source))
	return b.String()
}

// Get returns the cached papers for query and source if an entry exists and
// is younger than the freshness window. A stale entry is deleted.
func (c *Cache) Get(ctx context.Context, query string, source domain.SourceType) ([]domain.Paper, bool) {
	key := Key(observability.SessionIDFromContext(ctx), query, source)
	label := source.Slug()

	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		c.metrics.RecordCacheMiss(label)
		return nil, false
	}
	if !found {
		c.metrics.RecordCacheMiss(label)
		return nil, false
	}

	if age := c.now().Sub(entry.CapturedAt); age >= c.freshness {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache eviction failed")
		}
		c.logger.Debug().Str("key", key).Dur("age", age).Msg("evicted stale cache entry")
		c.metrics.RecordCacheEviction(label)
		c.metrics.RecordCacheMiss(label)
		return nil, false
	}

	c.metrics.RecordCacheHit(label)
	return entry.Papers, true
}

// Put stores papers for query and source, stamped with the current time.
func (c *Cache) Put(ctx context.Context, query string, source domain.SourceType, papers []domain.Paper) {
	key := Key(observability.SessionIDFromContext(ctx), query, source)

	stored := make([]domain.Paper, len(papers))
	copy(stored, papers)

	if err := c.store.Set(ctx, key, Entry{Papers: stored, CapturedAt: c.now()}); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
