package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Cache maps query keys to their last known value, fetch status and
// subscribers. Create one per process with NewCache and pass it to every
// binding; it is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextSub uint64

	cascade   CascadePolicy
	staleTime time.Duration
	metrics   Metrics
	logger    *slog.Logger
	now       func() time.Time

	// pending notifications, delivered in the order transitions were applied
	queue    []notification
	draining bool
}

type notification struct {
	fns  []func(Entry)
	snap Entry
}

type Option func(*Cache)

// WithCascade sets the default key matching used by Invalidate.
func WithCascade(p CascadePolicy) Option {
	return func(c *Cache) { c.cascade = p }
}

// WithStaleTime makes successful data go stale d after it was stored.
// Zero keeps data fresh until it is invalidated.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.staleTime = d }
}

func WithMetrics(m Metrics) Option {
	return func(c *Cache) {
		if m != nil {
			c.metrics = m
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		cascade: CascadePrefix,
		metrics: NoopMetrics{},
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Metrics() Metrics {
	return c.metrics
}

// entry returns the entry for key, creating it on first access. Caller holds mu.
func (c *Cache) entry(key Key) *entry {
	h := key.hash()
	e, ok := c.entries[h]
	if !ok {
		e = &entry{key: append(Key(nil), key...)}
		c.entries[h] = e
	}
	return e
}

// Get returns a copy of the entry for key.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.hash()]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// Entries returns copies of every entry whose key starts with prefix,
// ordered by key.
func (c *Cache) Entries(prefix Key) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.sorted() {
		if e.key.HasPrefix(prefix) {
			out = append(out, e.snapshot())
		}
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sorted returns the entries ordered by key, a key before the keys it prefixes.
func (c *Cache) sorted() []*entry {
	out := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].key.less(out[j].key)
	})
	return out
}

// Set overwrites the data for key and marks it successful. A fetch in flight
// for key is cancelled and its response will be discarded.
func (c *Cache) Set(key Key, data any) {
	c.mu.Lock()
	e := c.entry(key)
	if e.flight != nil {
		c.detach(e, ErrStaleResponse)
	}
	e.gen++
	e.data, e.hasData = data, true
	e.status = StatusSuccess
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
	c.enqueue(e)
	c.mu.Unlock()
	c.drain()
}

// Fetch returns the result of the fetch in flight for key, starting one with
// fn if none is pending. A nil fn reuses the last fetch function seen for key.
func (c *Cache) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entry(key)
	if fn != nil {
		e.fetchFn = fn
	}
	if e.flight == nil && e.fetchFn == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("query.Cache.Fetch %s: %w", key, ErrNoFetchFunc)
	}
	f := c.acquire(e)
	c.mu.Unlock()
	c.drain()
	return c.wait(ctx, e, f)
}

// Query is Fetch for consumers that accept cached data: it returns the
// stored value without fetching while that value is fresh.
func (c *Cache) Query(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entry(key)
	if fn != nil {
		e.fetchFn = fn
	}
	if e.flight == nil && c.fresh(e) {
		data := e.data
		c.mu.Unlock()
		c.metrics.Hit()
		return data, nil
	}
	if e.flight == nil && e.fetchFn == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("query.Cache.Query %s: %w", key, ErrNoFetchFunc)
	}
	c.metrics.Miss()
	f := c.acquire(e)
	c.mu.Unlock()
	c.drain()
	return c.wait(ctx, e, f)
}

func (c *Cache) fresh(e *entry) bool {
	if e.status != StatusSuccess || e.stale {
		return false
	}
	return c.staleTime <= 0 || c.now().Sub(e.updatedAt) < c.staleTime
}

// acquire joins the flight of e or starts a new one, registering the caller
// as a waiter. Caller holds mu.
func (c *Cache) acquire(e *entry) *flight {
	f := e.flight
	if f != nil {
		c.metrics.Join()
	} else {
		f = c.start(e)
	}
	f.waiters++
	return f
}

// start launches e.fetchFn under a new generation. Caller holds mu.
func (c *Cache) start(e *entry) *flight {
	e.gen++
	ctx, cancel := context.WithCancel(context.Background())
	f := &flight{
		gen:    e.gen,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.flight = f
	e.status = StatusPending
	c.enqueue(e)
	c.metrics.Fetch()

	fn := e.fetchFn
	go c.run(ctx, e, f, fn)
	return f
}

func (c *Cache) run(ctx context.Context, e *entry, f *flight, fn FetchFunc) {
	val, err := fn(ctx)

	c.mu.Lock()
	if e.gen != f.gen || e.flight != f {
		c.mu.Unlock()
		c.metrics.StaleDiscard()
		c.logger.Debug("discarding stale response", "key", e.key.String(), "generation", f.gen)
		return
	}
	e.flight = nil
	f.val, f.err = val, err
	if err != nil {
		e.status = StatusError
		e.err = err
	} else {
		e.data, e.hasData = val, true
		e.status = StatusSuccess
		e.err = nil
		e.stale = false
		e.updatedAt = c.now()
	}
	close(f.done)
	c.enqueue(e)
	c.mu.Unlock()

	f.cancel()
	c.drain()
}

// wait blocks until f settles or ctx is done. When f was superseded the
// caller follows the entry: it joins the replacement flight, or gets the
// value that superseded it.
func (c *Cache) wait(ctx context.Context, e *entry, f *flight) (any, error) {
	for {
		select {
		case <-f.done:
		case <-ctx.Done():
			c.release(e, f)
			return nil, fmt.Errorf("query.Cache.wait %s: %w: %w", e.key, ErrCancelled, ctx.Err())
		}

		c.mu.Lock()
		f.waiters--
		if !errors.Is(f.err, ErrStaleResponse) {
			c.mu.Unlock()
			return f.val, f.err
		}
		if next := e.flight; next != nil {
			next.waiters++
			f = next
			c.mu.Unlock()
			continue
		}
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
}

// release drops one waiter from f. The fetch is cancelled when nobody is
// left waiting on it or subscribed to its key.
func (c *Cache) release(e *entry, f *flight) {
	c.mu.Lock()
	f.waiters--
	if e.flight == f && f.waiters <= 0 && len(e.subs) == 0 {
		c.cancelLocked(e)
	}
	c.mu.Unlock()
	c.drain()
}

// Cancel aborts the fetch in flight for key. Waiters receive ErrCancelled;
// the entry keeps its previous data and records no error.
func (c *Cache) Cancel(key Key) bool {
	c.mu.Lock()
	e, ok := c.entries[key.hash()]
	if !ok || e.flight == nil {
		c.mu.Unlock()
		return false
	}
	c.cancelLocked(e)
	c.mu.Unlock()
	c.drain()
	return true
}

// CancelPrefix cancels every in-flight fetch whose key starts with prefix.
func (c *Cache) CancelPrefix(prefix Key) int {
	c.mu.Lock()
	n := 0
	for _, e := range c.sorted() {
		if e.flight != nil && e.key.HasPrefix(prefix) {
			c.cancelLocked(e)
			n++
		}
	}
	c.mu.Unlock()
	c.drain()
	return n
}

func (c *Cache) cancelLocked(e *entry) {
	c.detach(e, ErrCancelled)
	if e.hasData {
		e.status = StatusSuccess
	} else {
		e.status = StatusIdle
	}
	c.enqueue(e)
	c.metrics.Cancel()
}

// detach settles the flight of e with reason and moves the generation past
// it, so its response is discarded when it eventually arrives. Caller holds mu.
func (c *Cache) detach(e *entry, reason error) {
	f := e.flight
	if f == nil {
		return
	}
	e.flight = nil
	e.gen++
	f.err = reason
	f.cancel()
	close(f.done)
}

// Subscribe registers fn for every state transition of key. Callbacks run
// in registration order and may call back into the cache.
func (c *Cache) Subscribe(key Key, fn func(Entry)) (unsubscribe func()) {
	c.mu.Lock()
	e := c.entry(key)
	c.nextSub++
	id := c.nextSub
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(e, id) })
	}
}

func (c *Cache) unsubscribe(e *entry, id uint64) {
	c.mu.Lock()
	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			break
		}
	}
	if len(e.subs) == 0 && e.flight != nil && e.flight.waiters <= 0 {
		c.cancelLocked(e)
	}
	c.mu.Unlock()
	c.drain()
}

// enqueue records a notification for the current state of e. Caller holds mu.
func (c *Cache) enqueue(e *entry) {
	if len(e.subs) == 0 {
		return
	}
	fns := make([]func(Entry), len(e.subs))
	for i, s := range e.subs {
		fns[i] = s.fn
	}
	c.queue = append(c.queue, notification{fns: fns, snap: e.snapshot()})
}

// drain delivers queued notifications. Only one goroutine drains at a time;
// others leave their notifications to it, which keeps delivery in
// transition order and lets callbacks re-enter the cache.
func (c *Cache) drain() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	for len(c.queue) > 0 {
		n := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		for _, fn := range n.fns {
			fn(n.snap)
		}
		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
}

// GetData returns the data stored for key when it holds a T.
func GetData[T any](c *Cache, key Key) (T, bool) {
	var zero T
	ent, ok := c.Get(key)
	if !ok || !ent.HasData {
		return zero, false
	}
	v, ok := ent.Data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

func SetData[T any](c *Cache, key Key, data T) {
	c.Set(key, data)
}
