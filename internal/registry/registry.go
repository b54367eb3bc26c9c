// Package registry holds the ordered list of clips chosen for the next merge.
package registry

import (
	"sync"

	"github.com/maauso/clipmerge/internal/media"
)

// Registry is an ordered, mutable list of video sources.
// Sources are appended when picked and removed from the tail.
// The zero value is ready to use.
type Registry struct {
	mu      sync.RWMutex
	sources []media.Source
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{sources: make([]media.Source, 0)}
}

// Append adds a source to the end of the list.
// Returns media.ErrNilSource for a nil source.
func (r *Registry) Append(src media.Source) error {
	if src == nil {
		return media.ErrNilSource
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, src)
	return nil
}

// RemoveLast drops the most recently appended source.
// It is a no-op returning false when the registry is empty.
func (r *Registry) RemoveLast() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sources) == 0 {
		return false
	}
	r.sources[len(r.sources)-1] = nil
	r.sources = r.sources[:len(r.sources)-1]
	return true
}

// List returns a copy of the sources in order. Mutating the registry
// afterwards does not affect the returned slice.
func (r *Registry) List() []media.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]media.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// At returns the source at index i.
func (r *Registry) At(i int) (media.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.sources) {
		return nil, false
	}
	return r.sources[i], true
}

// Count returns the number of sources.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// Snapshot is List under the name the export path uses: the returned slice
// is what gets merged, regardless of later Append or RemoveLast calls.
func (r *Registry) Snapshot() []media.Source {
	return r.List()
}
