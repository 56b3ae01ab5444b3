package query_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"eventdesk/src-client/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	calls atomic.Int32
	value string
}

func (c *counter) fetch(ctx context.Context) (any, error) {
	n := c.calls.Add(1)
	return c.value + string(rune('0'+n)), nil
}

func seed(t *testing.T, c *query.Cache, key query.Key, fn query.FetchFunc) {
	t.Helper()
	_, err := c.Fetch(context.Background(), key, fn)
	require.NoError(t, err)
}

func TestInvalidateRefetchesSubscribedEntryOnce(t *testing.T) {
	c := query.NewCache()
	key := query.Key{"events", "e1"}
	cnt := &counter{value: "v"}
	seed(t, c, key, cnt.fetch)

	defer c.Subscribe(key, func(query.Entry) {})()

	require.NoError(t, c.Invalidate(context.Background(), key))
	assert.EqualValues(t, 2, cnt.calls.Load())

	ent, _ := c.Get(key)
	assert.Equal(t, "v2", ent.Data)
	assert.False(t, ent.Stale)
}

func TestInvalidateWithoutSubscriberOnlyMarksStale(t *testing.T) {
	c := query.NewCache()
	key := query.Key{"events", "e1"}
	cnt := &counter{value: "v"}
	seed(t, c, key, cnt.fetch)

	require.NoError(t, c.Invalidate(context.Background(), key))
	assert.EqualValues(t, 1, cnt.calls.Load())

	ent, _ := c.Get(key)
	assert.True(t, ent.Stale)
	assert.Equal(t, "v1", ent.Data)
}

func TestInvalidateReplacesInFlightFetch(t *testing.T) {
	metrics := &countingMetrics{}
	c := query.NewCache(query.WithMetrics(metrics))
	key := query.Key{"events"}

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		n := calls.Add(1)
		if n == 1 {
			<-release
			return "first", nil
		}
		return "second", nil
	}
	defer c.Subscribe(key, func(query.Entry) {})()

	waiter := make(chan any, 1)
	go func() {
		v, err := c.Fetch(context.Background(), key, fn)
		assert.NoError(t, err)
		waiter <- v
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Invalidate(context.Background(), key))
	assert.EqualValues(t, 2, calls.Load())

	// the waiter of the replaced request follows the entry
	assert.Equal(t, "second", <-waiter)

	close(release)
	require.Eventually(t, func() bool { return metrics.discards.Load() == 1 }, time.Second, time.Millisecond)
	ent, _ := c.Get(key)
	assert.Equal(t, "second", ent.Data)
}

func TestCascadePolicy(t *testing.T) {
	parent := query.Key{"events"}
	child := query.Key{"events", "e1"}
	other := query.Key{"users"}

	setup := func(opts ...query.Option) (*query.Cache, map[string]*counter) {
		c := query.NewCache(opts...)
		counters := map[string]*counter{}
		for _, key := range []query.Key{parent, child, other} {
			cnt := &counter{value: key.String()}
			counters[key.String()] = cnt
			seed(t, c, key, cnt.fetch)
			c.Subscribe(key, func(query.Entry) {})
		}
		return c, counters
	}

	t.Run("prefix", func(t *testing.T) {
		c, counters := setup(query.WithCascade(query.CascadePrefix))
		require.NoError(t, c.Invalidate(context.Background(), parent))
		assert.EqualValues(t, 2, counters[parent.String()].calls.Load())
		assert.EqualValues(t, 2, counters[child.String()].calls.Load())
		assert.EqualValues(t, 1, counters[other.String()].calls.Load())
	})

	t.Run("exact", func(t *testing.T) {
		c, counters := setup(query.WithCascade(query.CascadeExact))
		require.NoError(t, c.Invalidate(context.Background(), parent))
		assert.EqualValues(t, 2, counters[parent.String()].calls.Load())
		assert.EqualValues(t, 1, counters[child.String()].calls.Load())
	})

	t.Run("per call override", func(t *testing.T) {
		c, counters := setup(query.WithCascade(query.CascadeExact))
		require.NoError(t, c.Invalidate(context.Background(), parent, query.Prefix()))
		assert.EqualValues(t, 2, counters[child.String()].calls.Load())

		require.NoError(t, c.Invalidate(context.Background(), parent, query.Exact()))
		assert.EqualValues(t, 2, counters[child.String()].calls.Load())
		assert.EqualValues(t, 3, counters[parent.String()].calls.Load())
	})

	t.Run("without refetch", func(t *testing.T) {
		c, counters := setup()
		require.NoError(t, c.Invalidate(context.Background(), parent, query.WithoutRefetch()))
		assert.EqualValues(t, 1, counters[parent.String()].calls.Load())
		ent, _ := c.Get(child)
		assert.True(t, ent.Stale)
	})
}

func TestParseCascadePolicy(t *testing.T) {
	p, err := query.ParseCascadePolicy("EXACT")
	require.NoError(t, err)
	assert.Equal(t, query.CascadeExact, p)

	p, err = query.ParseCascadePolicy("")
	require.NoError(t, err)
	assert.Equal(t, query.CascadePrefix, p)

	_, err = query.ParseCascadePolicy("children")
	assert.Error(t, err)
}
