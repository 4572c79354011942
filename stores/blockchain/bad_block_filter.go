package blockchain

import (
	"sync"

	"github.com/cespare/xxhash"
	"github.com/greatroar/blobloom"
	"github.com/tari-project/tari-sub016/model"
)

// badBlockFilter is a bloom filter over the bad block set. A miss is definitive, a hit still has to be
// confirmed by the backend.
type badBlockFilter struct {
	mu     sync.RWMutex
	filter *blobloom.Filter
}

func newBadBlockFilter(capacity uint64) *badBlockFilter {
	if capacity == 0 {
		capacity = 1
	}

	return &badBlockFilter{
		filter: blobloom.NewOptimized(blobloom.Config{
			Capacity: capacity,
			FPRate:   1e-4,
		}),
	}
}

func (f *badBlockFilter) add(hash model.FixedHash) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.filter.Add(xxhash.Sum64(hash[:]))
}

func (f *badBlockFilter) mayContain(hash model.FixedHash) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.filter.Has(xxhash.Sum64(hash[:]))
}
