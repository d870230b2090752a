// Package caching provides a resolve.Resolver decorator that memoizes
// another backend's results in an in-process TTL cache, keyed on the
// query's name/type/class. It registers into the resolve.Registry at a
// higher priority than the backend it wraps, so the engine tries the cache
// first and only falls through to the wrapped backend on a miss.
package caching

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vectorpbx/dnsresolver/internal/cache"
	"github.com/vectorpbx/dnsresolver/internal/resolve"
)

// negativeTTL is the TTL given to every cached NXDOMAIN/NODATA/SERVFAIL
// entry, subject to internal/cache's own maxNegativeTTL ceiling —
// short enough that a transient upstream failure doesn't get pinned in
// place long after the upstream recovers.
const negativeTTL = 30 * time.Second

// completer is the subset of *resolve.Engine a decorator needs.
type completer interface {
	Completed(q *resolve.Query)
}

type cacheKey struct {
	name    string
	rrType  uint16
	rrClass uint16
}

// Backend wraps another resolve.Resolver, serving cached results directly
// and populating the cache from whatever the wrapped backend returns.
type Backend struct {
	name     string
	priority int

	inner  resolve.Resolver
	next   completer
	cache  *cache.TTLCache[cacheKey, *resolve.Result]
	logger *slog.Logger

	mu      sync.Mutex
	pending map[*resolve.Query]struct{}
}

// New builds a caching Backend. maxEntries bounds the number of distinct
// (name, type, class) tuples held at once. Call SetInner once the backend
// being wrapped has been constructed — wrapped backends commonly need the
// decorator itself as their completer, which creates a construction cycle
// this two-step setup breaks.
func New(name string, priority, maxEntries int, next completer, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		name:     name,
		priority: priority,
		next:     next,
		cache:    cache.NewTTLCache[cacheKey, *resolve.Result](maxEntries),
		logger:   logger,
		pending:  make(map[*resolve.Query]struct{}),
	}
}

// SetInner supplies the wrapped backend. It must be called before Resolve.
func (b *Backend) SetInner(inner resolve.Resolver) { b.inner = inner }

func (b *Backend) Name() string  { return b.name }
func (b *Backend) Priority() int { return b.priority }

// Resolve serves q from the cache if a live entry exists for its key;
// otherwise it forwards q to the wrapped backend and tracks it as pending
// so a later Cancel can reach the wrapped backend too.
func (b *Backend) Resolve(q *resolve.Query) error {
	key := cacheKey{name: q.Name, rrType: q.RRType, rrClass: q.RRClass}

	if res, found, entryType := b.cache.Get(key); found {
		if err := q.SetResult(res); err != nil {
			return fmt.Errorf("caching: %w", err)
		}
		b.logger.Debug("cache hit", "name", q.Name, "rrtype", q.RRType, "entry", entryType.String())
		b.next.Completed(q)
		return nil
	}

	b.mu.Lock()
	b.pending[q] = struct{}{}
	b.mu.Unlock()

	if err := b.inner.Resolve(q); err != nil {
		b.mu.Lock()
		delete(b.pending, q)
		b.mu.Unlock()
		return err
	}
	return nil
}

// Cancel forwards to the wrapped backend if q is still pending there.
// Cache hits complete synchronously inside Resolve and are never pending,
// so cancelling one returns an error, matching every other backend's
// contract that a successful Cancel guarantees Completed won't fire.
func (b *Backend) Cancel(q *resolve.Query) error {
	b.mu.Lock()
	_, ok := b.pending[q]
	if ok {
		delete(b.pending, q)
	}
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("caching: query not in flight")
	}
	return b.inner.Cancel(q)
}

// Completed is the wrapped backend's completion hook: it stores the result
// (if any) under the query's key and forwards to the decorator's own
// completer.
func (b *Backend) Completed(q *resolve.Query) {
	b.mu.Lock()
	delete(b.pending, q)
	b.mu.Unlock()

	if res, ok := q.Result(); ok {
		b.store(q, res)
	}
	b.next.Completed(q)
}

func (b *Backend) store(q *resolve.Query, res *resolve.Result) {
	entryType, ttl := classify(res)
	if ttl <= 0 {
		return
	}
	key := cacheKey{name: q.Name, rrType: q.RRType, rrClass: q.RRClass}
	b.cache.Set(key, res, ttl, entryType)
}

func classify(res *resolve.Result) (cache.EntryType, time.Duration) {
	switch {
	case res.RCode == resolve.RCodeNXDOMAIN:
		return cache.NXDomain, negativeTTL
	case res.RCode != 0:
		return cache.ServFail, negativeTTL
	case len(res.Records) == 0:
		return cache.NoData, negativeTTL
	default:
		return cache.Positive, time.Duration(res.LowestTTL()) * time.Second
	}
}

// Stats reports the cache's hit/miss counters, for admin API introspection.
func (b *Backend) Stats() cache.Stats {
	return b.cache.Stats()
}
