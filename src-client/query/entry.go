package query

import (
	"context"
	"time"
)

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// FetchFunc loads the value for one key. ctx is cancelled once no consumer
// is interested in the result anymore.
type FetchFunc func(ctx context.Context) (any, error)

// Entry is a point-in-time copy of a cache entry.
type Entry struct {
	Key         Key
	Data        any
	HasData     bool
	Status      Status
	Err         error
	Stale       bool
	Fetching    bool
	Generation  uint64
	Subscribers int
	UpdatedAt   time.Time
}

type flight struct {
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	val     any
	err     error
	waiters int
}

type subscriber struct {
	id uint64
	fn func(Entry)
}

type entry struct {
	key       Key
	data      any
	hasData   bool
	status    Status
	err       error
	stale     bool
	updatedAt time.Time

	// gen moves forward on every fetch start, Set and detach; a flight whose
	// gen no longer matches is superseded.
	gen     uint64
	flight  *flight
	fetchFn FetchFunc
	subs    []subscriber
}

func (e *entry) snapshot() Entry {
	return Entry{
		Key:         append(Key(nil), e.key...),
		Data:        e.data,
		HasData:     e.hasData,
		Status:      e.status,
		Err:         e.err,
		Stale:       e.stale,
		Fetching:    e.flight != nil,
		Generation:  e.gen,
		Subscribers: len(e.subs),
		UpdatedAt:   e.updatedAt,
	}
}
