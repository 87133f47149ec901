// Package future provides a single-assignment, goroutine-safe holder of a deferred result.
package future

import (
	"context"
	"fmt"
	"sync"
	"time"

	berr "github.com/next-trace/scg-mics/contract/errors"
)

// Future holds the eventual result of an event. It is resolved at most once,
// either with a value or with a failure; later resolutions are ignored.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New returns a pending future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve stores v and releases every waiter. It reports whether this call resolved the future.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Fail resolves the future with err as its failure indicator. A nil err is
// recorded as ErrHandlerFailed so waiters can always tell a failure apart.
func (f *Future[T]) Fail(err error) bool {
	var zero T
	if err == nil {
		err = berr.ErrHandlerFailed
	}

	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	ok := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		ok = true
		close(f.done)
	})

	return ok
}

// Get blocks until the future is resolved or ctx is done.
// A cancelled wait returns ctx.Err() and leaves the future untouched.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// GetTimeout waits at most d. It distinguishes three outcomes:
// (v, nil) resolved, (zero, ErrTimeout) window elapsed, (zero, failure) resolved with failure.
func (f *Future[T]) GetTimeout(d time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-t.C:
		var zero T
		return zero, fmt.Errorf("future get after %s: %w", d, berr.ErrTimeout)
	}
}

// TryGet returns the value without blocking. ok is false while pending or when resolved with a failure.
func (f *Future[T]) TryGet() (v T, ok bool) {
	select {
	case <-f.done:
		return f.value, f.err == nil
	default:
		return v, false
	}
}

// IsDone reports whether the future has been resolved.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Err returns the failure of a resolved future, or nil.
func (f *Future[T]) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
