package query

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CascadePolicy decides which entries an invalidation of a key reaches.
type CascadePolicy int

const (
	// CascadePrefix matches the key and every key it is a prefix of, so
	// invalidating ["events"] also reaches ["events", id].
	CascadePrefix CascadePolicy = iota
	// CascadeExact matches the key only.
	CascadeExact
)

func (p CascadePolicy) String() string {
	if p == CascadeExact {
		return "exact"
	}
	return "prefix"
}

// ParseCascadePolicy accepts "prefix" or "exact".
func ParseCascadePolicy(s string) (CascadePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "prefix":
		return CascadePrefix, nil
	case "exact":
		return CascadeExact, nil
	}
	return CascadePrefix, fmt.Errorf("query.ParseCascadePolicy: unknown policy %q", s)
}

func (p CascadePolicy) matches(key, filter Key) bool {
	if p == CascadeExact {
		return key.Equal(filter)
	}
	return key.HasPrefix(filter)
}

type invalidateConfig struct {
	cascade CascadePolicy
	refetch bool
}

type InvalidateOption func(*invalidateConfig)

// Exact restricts one invalidation to the key itself.
func Exact() InvalidateOption {
	return func(c *invalidateConfig) { c.cascade = CascadeExact }
}

// Prefix extends one invalidation to every key under the given one.
func Prefix() InvalidateOption {
	return func(c *invalidateConfig) { c.cascade = CascadePrefix }
}

// WithoutRefetch only marks entries stale; they refetch on next access.
func WithoutRefetch() InvalidateOption {
	return func(c *invalidateConfig) { c.refetch = false }
}

type refetch struct {
	e *entry
	f *flight
}

// Invalidate marks the entries matching key stale and refetches those with
// active subscribers. A fetch already in flight for such an entry is replaced,
// so every subscribed entry sees exactly one new fetch. Invalidate waits for
// the refetches and returns the first error among them.
func (c *Cache) Invalidate(ctx context.Context, key Key, opts ...InvalidateOption) error {
	cfg := invalidateConfig{cascade: c.cascade, refetch: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	c.mu.Lock()
	var pending []refetch
	for _, e := range c.sorted() {
		if !cfg.cascade.matches(e.key, key) {
			continue
		}
		e.stale = true
		c.metrics.Invalidate()
		if !cfg.refetch || len(e.subs) == 0 || e.fetchFn == nil {
			c.enqueue(e)
			continue
		}
		if e.flight != nil {
			c.detach(e, ErrStaleResponse)
		}
		f := c.start(e)
		f.waiters++
		pending = append(pending, refetch{e: e, f: f})
	}
	c.mu.Unlock()
	c.drain()

	c.logger.Debug("invalidated", "key", key.String(), "cascade", cfg.cascade.String(), "refetching", len(pending))

	var g errgroup.Group
	for _, r := range pending {
		g.Go(func() error {
			_, err := c.wait(ctx, r.e, r.f)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("query.Cache.Invalidate %s: %w", key, err)
	}
	return nil
}
