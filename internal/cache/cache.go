// Package cache is the content-addressed proof cache. Results are keyed
// by the canonical hashes of the goal and the axiom set plus the method
// and its configuration fingerprint, so a hit is valid regardless of
// how the formulas were originally written. Concurrent requests for the
// same key share one computation through singleflight.
package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"noesis/internal/logic"
	"noesis/internal/proof"
)

// Key identifies one proof obligation. Two requests with
// alpha-equivalent goals over alpha-equivalent axiom sets produce the
// same key.
type Key struct {
	Goal     logic.ContentHash
	Axioms   logic.ContentHash
	Method   string
	ConfigFP string
}

// String is the stable storage form of the key. Hash hex excludes '|',
// so the separator is unambiguous.
func (k Key) String() string {
	return k.Goal.String() + "|" + k.Axioms.String() + "|" + k.Method + "|" + k.ConfigFP
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Shared    int64
	Entries   int
}

type entry struct {
	key string
	res proof.Result
}

// Cache is a bounded LRU over proof results with optional write-through
// persistence. Only conclusive results are admitted: Unknown and
// Timeout depend on the bounds in force when they were computed and
// would poison later, better-resourced attempts.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
	store    *Store
	group    singleflight.Group
	logger   *zap.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	shared    atomic.Int64
}

// New creates a cache holding at most capacity entries. A non-nil store
// is warm-loaded and then written through on every admit.
func New(capacity int, store *Store, logger *zap.Logger) (*Cache, error) {
	if capacity <= 0 {
		capacity = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		store:    store,
		logger:   logger,
	}
	if store != nil {
		n := 0
		err := store.Load(func(key string, res proof.Result) {
			c.admit(key, res)
			n++
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("proof cache warmed", zap.Int("entries", n))
	}
	return c, nil
}

// Get returns a copy of the cached result for k.
func (c *Cache) Get(k Key) (proof.Result, bool) {
	c.mu.Lock()
	el, ok := c.items[k.String()]
	if ok {
		c.ll.MoveToFront(el)
	}
	c.mu.Unlock()
	if !ok {
		c.misses.Add(1)
		return proof.Result{}, false
	}
	c.hits.Add(1)
	return copyResult(el.Value.(*entry).res), true
}

// Put admits a result under k, evicting from the cold end when over
// capacity, and writes through to the store.
func (c *Cache) Put(k Key, res proof.Result) {
	key := k.String()
	c.admit(key, res)
	if c.store != nil {
		if err := c.store.Save(k, res); err != nil {
			c.logger.Warn("proof cache write-through failed",
				zap.String("key", key), zap.Error(err))
		}
	}
}

// GetOrCompute returns the cached result for k or runs compute exactly
// once across concurrent callers. The second return reports a cache
// hit. Conclusive computed results are admitted; others pass through
// uncached.
func (c *Cache) GetOrCompute(ctx context.Context, k Key, compute func(ctx context.Context) (proof.Result, error)) (proof.Result, bool, error) {
	if res, ok := c.Get(k); ok {
		return res, true, nil
	}
	v, err, sharedFlight := c.group.Do(k.String(), func() (any, error) {
		res, err := compute(ctx)
		if err != nil {
			return proof.Result{}, err
		}
		if res.Status.Conclusive() {
			c.Put(k, res)
		}
		return res, nil
	})
	if sharedFlight {
		c.shared.Add(1)
	}
	if err != nil {
		return proof.Result{}, false, err
	}
	return copyResult(v.(proof.Result)), false, nil
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats snapshots the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Shared:    c.shared.Load(),
		Entries:   c.Len(),
	}
}

// Flush drops every resident entry and, when persistent, the stored
// rows.
func (c *Cache) Flush() error {
	c.mu.Lock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.mu.Unlock()
	if c.store != nil {
		return c.store.Purge()
	}
	return nil
}

func (c *Cache) admit(key string, res proof.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*entry).res = res
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, res: res})
	for c.ll.Len() > c.capacity {
		cold := c.ll.Back()
		c.ll.Remove(cold)
		delete(c.items, cold.Value.(*entry).key)
		c.evictions.Add(1)
	}
}

// copyResult clones the slices so callers cannot mutate the resident
// entry.
func copyResult(r proof.Result) proof.Result {
	out := r
	out.Steps = append([]proof.Step(nil), r.Steps...)
	out.Attempts = append([]proof.Attempt(nil), r.Attempts...)
	return out
}
