package blockchain

import (
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/tari-project/tari-sub016/model"
)

const tipCacheKey = "tip"

// tipCache caches the chain tip for a short time. A read that started before an invalidation never
// writes its now stale result back.
type tipCache struct {
	cache      *ttlcache.Cache[string, *model.ChainHeader]
	ttl        time.Duration
	generation atomic.Uint64
	stopped    atomic.Bool
}

func newTipCache(ttl time.Duration) *tipCache {
	c := &tipCache{
		cache: ttlcache.New[string, *model.ChainHeader](
			ttlcache.WithDisableTouchOnHit[string, *model.ChainHeader](),
		),
		ttl: ttl,
	}

	go c.cache.Start()

	return c
}

// begin captures the current generation for a get then set sequence.
func (c *tipCache) begin() uint64 {
	return c.generation.Load()
}

func (c *tipCache) get() *model.ChainHeader {
	if c.ttl <= 0 {
		return nil
	}

	if item := c.cache.Get(tipCacheKey); item != nil {
		return item.Value()
	}

	return nil
}

func (c *tipCache) set(generation uint64, tip *model.ChainHeader) bool {
	if c.ttl <= 0 || generation != c.generation.Load() {
		return false
	}

	c.cache.Set(tipCacheKey, tip, c.ttl)

	return true
}

func (c *tipCache) invalidate() {
	c.cache.DeleteAll()
	c.generation.Add(1)
}

func (c *tipCache) stop() {
	if c.stopped.CompareAndSwap(false, true) {
		c.cache.Stop()
	}
}
