package mutation

import (
	"context"
	"sync"
	"sync/atomic"
)

// Mutation wraps one write operation with a pending flag and lifecycle callbacks.
type Mutation[I, O any] struct {
	fn      func(ctx context.Context, in I) (O, error)
	pending atomic.Int32

	mu        sync.Mutex
	onSuccess []func(out O, in I)
	onError   []func(err error, in I)
	onSettled []func(out O, err error, in I)
}

// New wraps fn.
func New[I, O any](fn func(ctx context.Context, in I) (O, error)) *Mutation[I, O] {
	return &Mutation[I, O]{fn: fn}
}

// OnSuccess registers a callback for successful runs.
func (m *Mutation[I, O]) OnSuccess(fn func(out O, in I)) *Mutation[I, O] {
	m.mu.Lock()
	m.onSuccess = append(m.onSuccess, fn)
	m.mu.Unlock()
	return m
}

// OnError registers a callback for failed runs.
func (m *Mutation[I, O]) OnError(fn func(err error, in I)) *Mutation[I, O] {
	m.mu.Lock()
	m.onError = append(m.onError, fn)
	m.mu.Unlock()
	return m
}

// OnSettled registers a callback that runs after every run.
func (m *Mutation[I, O]) OnSettled(fn func(out O, err error, in I)) *Mutation[I, O] {
	m.mu.Lock()
	m.onSettled = append(m.onSettled, fn)
	m.mu.Unlock()
	return m
}

// Pending reports whether a run is in progress.
func (m *Mutation[I, O]) Pending() bool {
	return m.pending.Load() > 0
}

// Mutate runs the operation and then the matching callbacks.
func (m *Mutation[I, O]) Mutate(ctx context.Context, in I) (O, error) {
	m.pending.Add(1)
	out, err := m.fn(ctx, in)
	m.pending.Add(-1)

	m.mu.Lock()
	success := append([]func(O, I){}, m.onSuccess...)
	failure := append([]func(error, I){}, m.onError...)
	settled := append([]func(O, error, I){}, m.onSettled...)
	m.mu.Unlock()

	if err != nil {
		for _, fn := range failure {
			fn(err, in)
		}
	} else {
		for _, fn := range success {
			fn(out, in)
		}
	}
	for _, fn := range settled {
		fn(out, err, in)
	}
	return out, err
}
