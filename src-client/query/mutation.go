package query

import (
	"context"
	"fmt"
	"sync"
)

type MutationState int

const (
	MutationIdle MutationState = iota
	MutationPending
	MutationSuccess
	MutationError
)

func (s MutationState) String() string {
	switch s {
	case MutationIdle:
		return "idle"
	case MutationPending:
		return "pending"
	case MutationSuccess:
		return "success"
	case MutationError:
		return "error"
	default:
		return "unknown"
	}
}

// MutationHooks are the optimistic update phases of a mutation. The value of
// type C returned by OnMutate is handed, unchanged, to the later hooks of the
// same invocation.
type MutationHooks[I, R, C any] struct {
	// OnMutate runs before the mutation function. It usually cancels
	// fetches, snapshots the entries it is about to patch, and writes the
	// predicted result into the cache.
	OnMutate func(ctx context.Context, input I) (C, error)
	// OnError runs when OnMutate or the mutation function fails; it restores
	// the snapshot held in the context.
	OnError func(ctx context.Context, err error, input I, mctx C)
	// OnSuccess runs when the mutation function succeeds.
	OnSuccess func(ctx context.Context, result R, input I, mctx C)
	// OnSettled always runs last, typically invalidating the patched keys.
	OnSettled func(ctx context.Context, input I, mctx C, result R, err error)
}

type MutationResult[R any] struct {
	State     MutationState
	Data      R
	IsPending bool
	IsSuccess bool
	IsError   bool
	Error     error
}

// Mutation binds a write operation to the cache through MutationHooks.
// Result reflects the most recent invocation.
type Mutation[I, R, C any] struct {
	fn      func(ctx context.Context, input I) (R, error)
	hooks   MutationHooks[I, R, C]
	metrics Metrics

	mu    sync.Mutex
	seq   uint64
	state MutationState
	data  R
	err   error
}

func NewMutation[I, R, C any](cache *Cache, fn func(ctx context.Context, input I) (R, error), hooks MutationHooks[I, R, C]) *Mutation[I, R, C] {
	m := &Mutation[I, R, C]{
		fn:      fn,
		hooks:   hooks,
		metrics: NoopMetrics{},
	}
	if cache != nil {
		m.metrics = cache.Metrics()
	}
	return m
}

// Mutate runs one invocation through every phase and returns the mutation
// function's result. Hooks after the network call run even if ctx was
// cancelled meanwhile, so an optimistic write is never left behind.
func (m *Mutation[I, R, C]) Mutate(ctx context.Context, input I) (R, error) {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	var zero R
	m.state, m.data, m.err = MutationPending, zero, nil
	m.mu.Unlock()

	result, err := m.run(ctx, input)

	m.mu.Lock()
	if m.seq == seq {
		if err != nil {
			m.state, m.err = MutationError, err
		} else {
			m.state, m.data = MutationSuccess, result
		}
	}
	m.mu.Unlock()
	return result, err
}

func (m *Mutation[I, R, C]) run(ctx context.Context, input I) (R, error) {
	var (
		mctx    C
		result  R
		err     error
		mutated bool
	)
	if m.hooks.OnMutate != nil {
		mctx, err = m.hooks.OnMutate(ctx, input)
		if err != nil {
			err = fmt.Errorf("query.Mutation.OnMutate: %w", err)
		} else {
			mutated = true
		}
	}
	if err == nil {
		result, err = m.call(ctx, input)
	}

	hookCtx := context.WithoutCancel(ctx)
	switch {
	case err != nil:
		if m.hooks.OnError != nil {
			m.hooks.OnError(hookCtx, err, input, mctx)
		}
		if mutated {
			m.metrics.Rollback()
		}
	case m.hooks.OnSuccess != nil:
		m.hooks.OnSuccess(hookCtx, result, input, mctx)
	}
	if m.hooks.OnSettled != nil {
		m.hooks.OnSettled(hookCtx, input, mctx, result, err)
	}
	return result, err
}

// call runs the mutation function, turning a panic into an error so the
// optimistic write is still rolled back.
func (m *Mutation[I, R, C]) call(ctx context.Context, input I) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMutationPanic, r)
		}
	}()
	return m.fn(ctx, input)
}

// Reset returns the binding to idle.
func (m *Mutation[I, R, C]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero R
	m.seq++
	m.state, m.data, m.err = MutationIdle, zero, nil
}

func (m *Mutation[I, R, C]) Result() MutationResult[R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MutationResult[R]{
		State:     m.state,
		Data:      m.data,
		IsPending: m.state == MutationPending,
		IsSuccess: m.state == MutationSuccess,
		IsError:   m.state == MutationError,
		Error:     m.err,
	}
}
