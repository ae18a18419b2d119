// Package store holds the SQLite content store and the in-memory record of
// preview lookups that were already attempted.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"fujirock/pkg/fuzzy"
)

// DedupStore remembers which tracks already went through a preview lookup so
// that repeated enrichment runs skip them. A Bloom filter answers most
// misses without locking the LRU; the LRU bounds memory and is the source of
// truth for hits.
type DedupStore struct {
	mu       sync.RWMutex
	filter   *bloom.BloomFilter
	recent   *lru.Cache[string, struct{}]
	capacity uint
	fpRate   float64
}

// NewDedupStore creates a store that keeps at most capacity keys.
func NewDedupStore(capacity int, fpRate float64) *DedupStore {
	if capacity <= 0 {
		capacity = 1
	}

	recent, err := lru.New[string, struct{}](capacity)
	if err != nil {
		panic(err)
	}

	return &DedupStore{
		filter:   bloom.NewWithEstimates(uint(capacity), fpRate),
		recent:   recent,
		capacity: uint(capacity),
		fpRate:   fpRate,
	}
}

// PreviewKey builds the key for an artist and track pair. Keys compare equal
// for names that only differ in case or punctuation.
func PreviewKey(artist, track string) string {
	return fuzzy.Normalize(artist) + "\x1f" + fuzzy.Normalize(track)
}

// Has reports whether key was added and not yet evicted.
func (d *DedupStore) Has(key string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.filter.TestString(key) {
		return false
	}
	return d.recent.Contains(key)
}

// Add records key. The least recently added key is evicted at capacity.
func (d *DedupStore) Add(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.filter.AddString(key)
	d.recent.Add(key, struct{}{})
}

// Remove forgets key. The Bloom filter keeps its bit, which only costs an
// extra LRU lookup on later misses.
func (d *DedupStore) Remove(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.recent.Remove(key)
}

// Load replaces the contents with keys.
func (d *DedupStore) Load(keys []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reset()
	for _, key := range keys {
		if key == "" {
			continue
		}
		d.filter.AddString(key)
		d.recent.Add(key, struct{}{})
	}
}

// Size returns the number of keys held.
func (d *DedupStore) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.recent.Len()
}

// Clear drops every key.
func (d *DedupStore) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *DedupStore) reset() {
	d.filter = bloom.NewWithEstimates(d.capacity, d.fpRate)
	d.recent.Purge()
}
