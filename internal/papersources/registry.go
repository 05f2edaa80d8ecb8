package papersources

import (
	"sync"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// Registry holds the configured paper sources. Iteration follows
// registration order so listings are stable.
type Registry struct {
	mu      sync.RWMutex
	order   []domain.SourceType
	sources map[domain.SourceType]PaperSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceType]PaperSource),
	}
}

// Register adds a source. A source with the same type is replaced in place.
func (r *Registry) Register(source PaperSource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := source.SourceType()
	if _, exists := r.sources[st]; !exists {
		r.order = append(r.order, st)
	}
	r.sources[st] = source
}

// Get returns a source by type, or nil if not found.
func (r *Registry) Get(sourceType domain.SourceType) PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// AllSources returns a snapshot of all registered sources.
func (r *Registry) AllSources() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.order))
	for _, st := range r.order {
		sources = append(sources, r.sources[st])
	}
	return sources
}

// EnabledSources returns a snapshot of the sources whose IsEnabled is true.
func (r *Registry) EnabledSources() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.order))
	for _, st := range r.order {
		if s := r.sources[st]; s.IsEnabled() {
			sources = append(sources, s)
		}
	}
	return sources
}
