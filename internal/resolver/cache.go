package resolver

import (
	"container/list"
	"sync"

	"modbridge/internal/mapping"
)

// mappingCache is a bounded signature -> mapping cache. When full, the entry
// inserted first is evicted; lookups do not refresh an entry's position.
//
// epoch advances on every invalidation. A reader that resolved from the store
// records the epoch first and only caches its result if no invalidation
// happened in between.
type mappingCache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List
	maxItems int
	epoch    uint64
}

type cacheEntry struct {
	sig     string
	mapping mapping.APIMapping
}

func newMappingCache(maxItems int) *mappingCache {
	if maxItems < 1 {
		maxItems = 1
	}
	return &mappingCache{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		maxItems: maxItems,
	}
}

func (c *mappingCache) get(sig string) (mapping.APIMapping, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[sig]
	if !ok {
		return mapping.APIMapping{}, false
	}
	return el.Value.(*cacheEntry).mapping, true
}

func (c *mappingCache) epochNow() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *mappingCache) put(sig string, m mapping.APIMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(sig, m)
}

// putIfCurrent caches m only if the cache has not been invalidated since
// epoch was read.
func (c *mappingCache) putIfCurrent(sig string, m mapping.APIMapping, epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return false
	}
	c.store(sig, m)
	return true
}

func (c *mappingCache) store(sig string, m mapping.APIMapping) {
	if el, ok := c.items[sig]; ok {
		el.Value.(*cacheEntry).mapping = m
		return
	}
	for len(c.items) >= c.maxItems {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).sig)
	}
	c.items[sig] = c.order.PushBack(&cacheEntry{sig: sig, mapping: m})
}

func (c *mappingCache) invalidate(sig string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	if el, ok := c.items[sig]; ok {
		c.order.Remove(el)
		delete(c.items, sig)
	}
}

// invalidateID drops every entry holding the mapping with the given ID.
func (c *mappingCache) invalidateID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	for sig, el := range c.items {
		if el.Value.(*cacheEntry).mapping.ID == id {
			c.order.Remove(el)
			delete(c.items, sig)
		}
	}
}

func (c *mappingCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

func (c *mappingCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
