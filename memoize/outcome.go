package memoize

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrProducerPanic is the failure recorded when a producer panics.
var ErrProducerPanic = errors.New("memoize: producer panicked")

// Outcome is the eventual result of one producer invocation. It is settled
// exactly once and may be observed by any number of callers.
type Outcome[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newOutcome[T any]() *Outcome[T] {
	return &Outcome[T]{done: make(chan struct{})}
}

// Done returns a channel that is closed once the outcome has settled.
func (o *Outcome[T]) Done() <-chan struct{} {
	return o.done
}

// Settled reports whether the outcome has a value or an error.
func (o *Outcome[T]) Settled() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the outcome settles or ctx is done. Giving up on ctx
// only abandons this wait; the producer keeps running.
func (o *Outcome[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-o.done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// run invokes fn and records what it returned. It does not publish; the
// caller closes done once the owning entry has been updated.
func (o *Outcome[T]) run(ctx context.Context, fn Producer[T], args []any) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			o.value = zero
			o.err = errors.Wrapf(ErrProducerPanic, "%v", r)
		}
	}()
	o.value, o.err = fn(ctx, args...)
}

func (o *Outcome[T]) publish() {
	close(o.done)
}
