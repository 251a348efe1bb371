package memoize

import (
	"context"
	"slices"
	"sync"

	"github.com/agentuity/go-memoize/logger"
	"github.com/cockroachdb/errors"
)

// Producer is the operation being memoized. It receives the context given
// to New and the arguments of the call that triggered it.
type Producer[T any] func(ctx context.Context, args ...any) (T, error)

// Memoizer wraps a Producer so that calls resolving to the same key share
// one outcome.
type Memoizer[T any] struct {
	ctx     context.Context
	fn      Producer[T]
	resolve Resolver
	cfg     config
	log     logger.Logger
	mutex   sync.Mutex
	entries map[string]*entry[T]
}

// New returns a Memoizer for fn. Invalid options, including an unknown or
// malformed key strategy, are reported here and never at call time.
func New[T any](ctx context.Context, fn Producer[T], opts ...Option) (*Memoizer[T], error) {
	if fn == nil {
		return nil, errors.Wrap(ErrInvalidOption, "nil producer")
	}
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	resolve, err := NewResolver(cfg.resolve)
	if err != nil {
		return nil, err
	}
	return &Memoizer[T]{
		ctx:     ctx,
		fn:      fn,
		resolve: resolve,
		cfg:     cfg,
		log:     cfg.logger.WithPrefix("[memoize]"),
		entries: make(map[string]*entry[T]),
	}, nil
}

// Call returns the outcome for args. On a miss the producer is started in
// the background and its pending outcome returned; Call never waits for it.
// On a hit the existing outcome is returned, and a background refresh is
// started if the entry's prefetch deadline has passed.
func (m *Memoizer[T]) Call(args ...any) *Outcome[T] {
	args = slices.Clone(args)
	key := m.resolve(args)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if e, ok := m.entries[key]; ok {
		if e.prefetchRequested {
			m.refresh(key, e)
		}
		return e.outcome
	}

	e := &entry[T]{}
	if m.cfg.maxAge > 0 {
		e.args = args
	}
	m.entries[key] = e
	e.outcome = m.invoke(args, func(o *Outcome[T]) { m.settle(key, e, o) })
	m.log.Trace("miss %q, producer invoked", key)
	return e.outcome
}

// Do is Call followed by Wait.
func (m *Memoizer[T]) Do(ctx context.Context, args ...any) (T, error) {
	return m.Call(args...).Wait(ctx)
}

// Clear evicts every entry and returns how many there were. Producers that
// are still running are not interrupted; their results are dropped.
func (m *Memoizer[T]) Clear() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	n := len(m.entries)
	for key, e := range m.entries {
		e.stopTimers()
		delete(m.entries, key)
	}
	if n > 0 {
		m.log.Trace("cleared %d entries", n)
	}
	return n
}

// Len returns the number of live entries.
func (m *Memoizer[T]) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.entries)
}

// invoke runs the producer on its own goroutine and hands the recorded
// outcome to settled, which is responsible for publishing it.
func (m *Memoizer[T]) invoke(args []any, settled func(*Outcome[T])) *Outcome[T] {
	o := newOutcome[T]()
	go func() {
		o.run(m.ctx, m.fn, args)
		settled(o)
	}()
	return o
}
