package query

import (
	"context"
	"sync"
)

// QueryResult is what a view renders from a query binding.
type QueryResult[T any] struct {
	Key     Key
	Data    T
	HasData bool
	Status  Status

	// IsPending is true while no data has arrived yet.
	IsPending bool
	// IsFetching is true while a request for the key is in flight.
	IsFetching bool
	IsError    bool
	IsStale    bool
	Error      error
}

// QueryFunc fetches the value for key.
type QueryFunc[T any] func(ctx context.Context, key Key) (T, error)

type QueryOption[T any] func(*Query[T])

// OnChange registers fn to receive the binding's result after every
// transition of its current key.
func OnChange[T any](fn func(QueryResult[T])) QueryOption[T] {
	return func(q *Query[T]) { q.onChange = fn }
}

// Query binds one consumer to one cache entry. It fetches when activated and
// whenever its key changes, and releases its interest when closed.
type Query[T any] struct {
	cache    *Cache
	fn       QueryFunc[T]
	onChange func(QueryResult[T])

	mu          sync.Mutex
	key         Key
	active      bool
	unsubscribe func()
	cancel      context.CancelFunc
	settled     chan struct{}
}

func NewQuery[T any](cache *Cache, key Key, fn QueryFunc[T], opts ...QueryOption[T]) *Query[T] {
	q := &Query[T]{
		cache: cache,
		fn:    fn,
		key:   append(Key(nil), key...),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Query[T]) fetchFunc(key Key) FetchFunc {
	return func(ctx context.Context) (any, error) {
		return q.fn(ctx, key)
	}
}

// Activate subscribes to the current key and fetches it unless fresh data
// is cached. The binding stays active until Close or until ctx is done.
func (q *Query[T]) Activate(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active {
		return
	}
	q.active = true
	q.attach(ctx)
}

// attach subscribes and starts the background fetch. Caller holds q.mu.
func (q *Query[T]) attach(parent context.Context) {
	key := q.key
	q.unsubscribe = q.cache.Subscribe(key, func(ent Entry) {
		q.notify(key, ent)
	})

	ctx, cancel := context.WithCancel(parent)
	settled := make(chan struct{})
	q.cancel = cancel
	q.settled = settled

	fetch := q.fetchFunc(key)
	go func() {
		defer close(settled)
		_, _ = q.cache.Query(ctx, key, fetch)
	}()
}

// detach hands back the release of this binding's wait and subscription.
// Caller holds q.mu and runs the result after unlocking, since unsubscribing
// may deliver notifications to this binding.
func (q *Query[T]) detach() func() {
	cancel, unsubscribe := q.cancel, q.unsubscribe
	q.cancel, q.unsubscribe = nil, nil
	return func() {
		if cancel != nil {
			cancel()
		}
		if unsubscribe != nil {
			unsubscribe()
		}
	}
}

// SetKey moves the binding to key, fetching it when the binding is active.
func (q *Query[T]) SetKey(ctx context.Context, key Key) {
	q.mu.Lock()
	if q.key.Equal(key) {
		q.mu.Unlock()
		return
	}
	q.key = append(Key(nil), key...)
	if !q.active {
		q.mu.Unlock()
		return
	}
	release := q.detach()
	q.attach(ctx)
	q.mu.Unlock()
	release()
}

// Close releases the binding. The fetch it started keeps running only while
// another subscriber or waiter still wants it.
func (q *Query[T]) Close() {
	q.mu.Lock()
	if !q.active {
		q.mu.Unlock()
		return
	}
	q.active = false
	release := q.detach()
	q.mu.Unlock()
	release()
}

func (q *Query[T]) Key() Key {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append(Key(nil), q.key...)
}

// Refetch forces a new fetch of the current key and waits for it.
func (q *Query[T]) Refetch(ctx context.Context) (QueryResult[T], error) {
	key := q.Key()
	_, err := q.cache.Fetch(ctx, key, q.fetchFunc(key))
	res := q.Result()
	if err != nil {
		return res, err
	}
	return res, res.Error
}

// Await blocks until the fetch started for the current key has settled.
func (q *Query[T]) Await(ctx context.Context) (QueryResult[T], error) {
	q.mu.Lock()
	settled := q.settled
	q.mu.Unlock()
	if settled != nil {
		select {
		case <-settled:
		case <-ctx.Done():
			return q.Result(), ctx.Err()
		}
	}
	res := q.Result()
	return res, res.Error
}

// Result reads the current state of the bound entry.
func (q *Query[T]) Result() QueryResult[T] {
	key := q.Key()
	ent, ok := q.cache.Get(key)
	if !ok {
		return QueryResult[T]{Key: key, IsPending: true}
	}
	return resultFrom[T](ent)
}

func (q *Query[T]) notify(key Key, ent Entry) {
	q.mu.Lock()
	current := q.active && q.key.Equal(key)
	fn := q.onChange
	q.mu.Unlock()
	if !current || fn == nil {
		return
	}
	fn(resultFrom[T](ent))
}

func resultFrom[T any](ent Entry) QueryResult[T] {
	res := QueryResult[T]{
		Key:        ent.Key,
		Status:     ent.Status,
		IsFetching: ent.Fetching,
		IsError:    ent.Status == StatusError,
		IsStale:    ent.Stale,
		Error:      ent.Err,
	}
	if v, ok := ent.Data.(T); ok && ent.HasData {
		res.Data = v
		res.HasData = true
	}
	res.IsPending = !res.HasData && !res.IsError
	return res
}
