package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"eventdesk/src-client/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	ID    string
	Title string
}

var errNotFound = errors.New("not found")

func eventByKey(store map[string]event, calls *atomic.Int32) query.QueryFunc[event] {
	return func(ctx context.Context, key query.Key) (event, error) {
		calls.Add(1)
		ev, ok := store[key[len(key)-1]]
		if !ok {
			return event{}, errNotFound
		}
		return ev, nil
	}
}

func TestQueryActivateAndAwait(t *testing.T) {
	c := query.NewCache()
	var calls atomic.Int32
	store := map[string]event{"e1": {ID: "e1", Title: "Standup"}}
	q := query.NewQuery(c, query.Key{"events", "e1"}, eventByKey(store, &calls))
	defer q.Close()

	assert.True(t, q.Result().IsPending)

	q.Activate(context.Background())
	res, err := q.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, res.HasData)
	assert.False(t, res.IsPending)
	assert.Equal(t, "Standup", res.Data.Title)
	assert.Equal(t, query.StatusSuccess, res.Status)

	// a second binding on the same key is served from the cache
	q2 := query.NewQuery(c, query.Key{"events", "e1"}, eventByKey(store, &calls))
	defer q2.Close()
	q2.Activate(context.Background())
	_, err = q2.Await(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestQueryErrorResult(t *testing.T) {
	c := query.NewCache()
	var calls atomic.Int32
	q := query.NewQuery(c, query.Key{"events", "missing"}, eventByKey(nil, &calls))
	defer q.Close()

	q.Activate(context.Background())
	res, err := q.Await(context.Background())
	assert.ErrorIs(t, err, errNotFound)
	assert.True(t, res.IsError)
	assert.False(t, res.IsPending)
	assert.False(t, res.HasData)
}

func TestQuerySetKey(t *testing.T) {
	c := query.NewCache()
	var calls atomic.Int32
	store := map[string]event{
		"e1": {ID: "e1", Title: "Standup"},
		"e2": {ID: "e2", Title: "Retro"},
	}

	var mu sync.Mutex
	var titles []string
	q := query.NewQuery(c, query.Key{"events", "e1"}, eventByKey(store, &calls),
		query.OnChange(func(res query.QueryResult[event]) {
			if !res.HasData {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			titles = append(titles, res.Data.Title)
		}),
	)
	defer q.Close()

	q.Activate(context.Background())
	_, err := q.Await(context.Background())
	require.NoError(t, err)

	q.SetKey(context.Background(), query.Key{"events", "e2"})
	res, err := q.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Retro", res.Data.Title)
	assert.Equal(t, query.Key{"events", "e2"}, q.Key())

	// updates to the old key no longer reach the binding
	c.Set(query.Key{"events", "e1"}, event{ID: "e1", Title: "Moved"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(titles) > 0 && titles[len(titles)-1] == "Retro"
	}, time.Second, time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, titles, "Moved")
}

func TestQueryOnChangeFollowsCacheWrites(t *testing.T) {
	c := query.NewCache()
	key := query.Key{"events", "e1"}
	c.Set(key, event{ID: "e1", Title: "Standup"})

	changes := make(chan query.QueryResult[event], 4)
	q := query.NewQuery(c, key, func(ctx context.Context, key query.Key) (event, error) {
		t.Fatal("fresh data must not be refetched")
		return event{}, nil
	}, query.OnChange(func(res query.QueryResult[event]) { changes <- res }))
	defer q.Close()

	q.Activate(context.Background())
	_, err := q.Await(context.Background())
	require.NoError(t, err)

	c.Set(key, event{ID: "e1", Title: "Planning"})
	select {
	case res := <-changes:
		assert.Equal(t, "Planning", res.Data.Title)
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}
}

func TestQueryCloseCancelsFetch(t *testing.T) {
	c := query.NewCache()
	key := query.Key{"events"}

	aborted := make(chan struct{})
	q := query.NewQuery(c, key, func(ctx context.Context, key query.Key) ([]event, error) {
		<-ctx.Done()
		close(aborted)
		return nil, ctx.Err()
	})

	q.Activate(context.Background())
	require.Eventually(t, func() bool {
		ent, _ := c.Get(key)
		return ent.Fetching
	}, time.Second, time.Millisecond)

	q.Close()
	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("fetch outlived its only consumer")
	}
	require.Eventually(t, func() bool {
		ent, _ := c.Get(key)
		return !ent.Fetching && ent.Status == query.StatusIdle
	}, time.Second, time.Millisecond)
}

func TestQueryRefetch(t *testing.T) {
	c := query.NewCache()
	var calls atomic.Int32
	store := map[string]event{"e1": {ID: "e1", Title: "Standup"}}
	q := query.NewQuery(c, query.Key{"events", "e1"}, eventByKey(store, &calls))
	defer q.Close()

	q.Activate(context.Background())
	_, err := q.Await(context.Background())
	require.NoError(t, err)

	store["e1"] = event{ID: "e1", Title: "Daily"}
	res, err := q.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Daily", res.Data.Title)
	assert.EqualValues(t, 2, calls.Load())
}
