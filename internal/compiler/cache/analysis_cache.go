package cache

import (
	"sync"
	"time"

	"github.com/integreat-cms/featurereg/internal/compiler/contract"
)

// Entry is a cached analysis with metadata
type Entry struct {
	Analysis *contract.Analysis
	Hash     string
	Path     string
	CachedAt time.Time
}

// AnalysisCache provides in-memory caching of contract analyses for watch
// mode. Name uniqueness is never cached; callers recompute it on every
// run.
type AnalysisCache struct {
	entries map[string]*Entry
	hits    int
	misses  int
	mu      sync.RWMutex
}

// NewAnalysisCache creates an empty cache
func NewAnalysisCache() *AnalysisCache {
	return &AnalysisCache{
		entries: make(map[string]*Entry),
	}
}

// Get returns the analysis cached for path if the content hash still matches
func (ac *AnalysisCache) Get(path, hash string) (*contract.Analysis, bool) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	entry, exists := ac.entries[path]
	if !exists || entry.Hash != hash {
		ac.misses++
		return nil, false
	}
	ac.hits++
	return entry.Analysis, true
}

// Set stores an analysis in the cache
func (ac *AnalysisCache) Set(path, hash string, analysis *contract.Analysis) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.entries[path] = &Entry{
		Analysis: analysis,
		Hash:     hash,
		Path:     path,
		CachedAt: time.Now(),
	}
}

// Invalidate removes an entry from the cache
func (ac *AnalysisCache) Invalidate(path string) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	delete(ac.entries, path)
}

// InvalidateAll clears the entire cache
func (ac *AnalysisCache) InvalidateAll() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.entries = make(map[string]*Entry)
}

// Retain drops every entry whose path is not in keep. Watch mode calls it
// after a walk so deleted files do not accumulate.
func (ac *AnalysisCache) Retain(keep map[string]bool) int {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	pruned := 0
	for path := range ac.entries {
		if !keep[path] {
			delete(ac.entries, path)
			pruned++
		}
	}
	return pruned
}

// Size returns the number of cached entries
func (ac *AnalysisCache) Size() int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	return len(ac.entries)
}

// Stats returns the number of hits and misses since creation
func (ac *AnalysisCache) Stats() (hits, misses int) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	return ac.hits, ac.misses
}
