package memory

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// EvictFunc observes entries leaving the cache through expiry or capacity
// pressure. It runs after the cache lock is released.
type EvictFunc[K comparable, V any] func(key K, value V)

// LRUTTL is a threadsafe LRU cache with a sliding per-entry TTL: every hit
// pushes the entry's expiry forward.
type LRUTTL[K comparable, V any] struct {
	mu         sync.Mutex
	ll         *list.List
	items      map[K]*list.Element
	maxEntries int
	ttl        time.Duration
	onEvict    EvictFunc[K, V]
	now        func() time.Time
}

func NewLRUTTL[K comparable, V any](maxEntries int, ttl time.Duration, onEvict EvictFunc[K, V]) *LRUTTL[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &LRUTTL[K, V]{
		ll:         list.New(),
		items:      make(map[K]*list.Element),
		maxEntries: maxEntries,
		ttl:        ttl,
		onEvict:    onEvict,
		now:        time.Now,
	}
}

func (c *LRUTTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	ele, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return zero, false
	}
	ent := ele.Value.(*entry[K, V])
	now := c.now()
	if now.After(ent.expiresAt) {
		c.removeElement(ele)
		c.mu.Unlock()
		c.notify([]*entry[K, V]{ent})
		return zero, false
	}
	ent.expiresAt = now.Add(c.ttl)
	c.ll.MoveToFront(ele)
	c.mu.Unlock()
	return ent.value, true
}

// GetOrCreate returns the live entry for key, creating it with create when it
// is missing or expired. created reports which happened.
func (c *LRUTTL[K, V]) GetOrCreate(key K, create func() V) (value V, created bool) {
	if v, ok := c.Get(key); ok {
		return v, false
	}
	c.mu.Lock()
	if ele, ok := c.items[key]; ok {
		ent := ele.Value.(*entry[K, V])
		ent.expiresAt = c.now().Add(c.ttl)
		c.ll.MoveToFront(ele)
		c.mu.Unlock()
		return ent.value, false
	}
	value = create()
	evicted := c.insertLocked(key, value)
	c.mu.Unlock()
	c.notify(evicted)
	return value, true
}

func (c *LRUTTL[K, V]) Set(key K, value V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if ele, ok := c.items[key]; ok {
		ent := ele.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = c.now().Add(c.ttl)
		c.ll.MoveToFront(ele)
		c.mu.Unlock()
		return
	}
	evicted := c.insertLocked(key, value)
	c.mu.Unlock()
	c.notify(evicted)
}

// Delete removes key without calling the eviction callback and returns the
// removed value.
func (c *LRUTTL[K, V]) Delete(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, ok := c.items[key]
	if !ok {
		return zero, false
	}
	c.removeElement(ele)
	return ele.Value.(*entry[K, V]).value, true
}

// Sweep drops every expired entry and reports how many were removed.
func (c *LRUTTL[K, V]) Sweep() int {
	if c == nil {
		return 0
	}
	now := c.now()
	var expired []*entry[K, V]
	c.mu.Lock()
	for ele := c.ll.Back(); ele != nil; {
		prev := ele.Prev()
		ent := ele.Value.(*entry[K, V])
		if now.After(ent.expiresAt) {
			c.removeElement(ele)
			expired = append(expired, ent)
		}
		ele = prev
	}
	c.mu.Unlock()
	c.notify(expired)
	return len(expired)
}

// Values returns the live values, most recently used first.
func (c *LRUTTL[K, V]) Values() []V {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	out := make([]V, 0, c.ll.Len())
	for ele := c.ll.Front(); ele != nil; ele = ele.Next() {
		ent := ele.Value.(*entry[K, V])
		if !now.After(ent.expiresAt) {
			out = append(out, ent.value)
		}
	}
	return out
}

func (c *LRUTTL[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Clear empties the cache, passing every entry to the eviction callback.
func (c *LRUTTL[K, V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	all := make([]*entry[K, V], 0, c.ll.Len())
	for ele := c.ll.Front(); ele != nil; ele = ele.Next() {
		all = append(all, ele.Value.(*entry[K, V]))
	}
	c.ll = list.New()
	c.items = make(map[K]*list.Element)
	c.mu.Unlock()
	c.notify(all)
}

func (c *LRUTTL[K, V]) insertLocked(key K, value V) []*entry[K, V] {
	ent := &entry[K, V]{key: key, value: value, expiresAt: c.now().Add(c.ttl)}
	c.items[key] = c.ll.PushFront(ent)
	var evicted []*entry[K, V]
	for c.ll.Len() > c.maxEntries {
		back := c.ll.Back()
		c.removeElement(back)
		evicted = append(evicted, back.Value.(*entry[K, V]))
	}
	return evicted
}

func (c *LRUTTL[K, V]) removeElement(ele *list.Element) {
	if ele == nil {
		return
	}
	c.ll.Remove(ele)
	delete(c.items, ele.Value.(*entry[K, V]).key)
}

func (c *LRUTTL[K, V]) notify(ents []*entry[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, ent := range ents {
		c.onEvict(ent.key, ent.value)
	}
}
