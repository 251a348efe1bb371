package memoize

import "time"

// entry is the cache record for one key. All fields are guarded by the
// owning Memoizer's mutex.
type entry[T any] struct {
	outcome           *Outcome[T]
	args              []any
	expiry            *time.Timer
	prefetch          *time.Timer
	prefetchRequested bool

	// gen changes whenever timers are stopped, so a callback whose Stop lost
	// the race with its own firing can tell it is stale.
	gen uint64
}

func (e *entry[T]) stopTimers() {
	if e.expiry != nil {
		e.expiry.Stop()
		e.expiry = nil
	}
	if e.prefetch != nil {
		e.prefetch.Stop()
		e.prefetch = nil
	}
	e.prefetchRequested = false
	e.gen++
}

// current reports whether e is still the live entry for key at generation
// gen. Callers must hold the mutex.
func (m *Memoizer[T]) current(key string, e *entry[T], gen uint64) bool {
	return m.entries[key] == e && e.gen == gen
}

// settle applies the first outcome of an entry and then publishes it, so a
// caller that sees a failure and calls again never finds the failed entry.
func (m *Memoizer[T]) settle(key string, e *entry[T], o *Outcome[T]) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	defer o.publish()

	if m.entries[key] != e {
		return
	}
	if o.err != nil {
		if m.cfg.maxErrorAge <= 0 {
			m.evict(key, e, "failure not retained")
			return
		}
		m.armExpiry(key, e, m.cfg.maxErrorAge)
		return
	}
	if m.cfg.maxAge <= 0 {
		return
	}
	m.armFresh(key, e)
}

// refresh starts a background producer call for a hit whose prefetch
// deadline has passed. Callers must hold the mutex.
func (m *Memoizer[T]) refresh(key string, e *entry[T]) {
	e.prefetchRequested = false
	m.invoke(e.args, func(o *Outcome[T]) { m.refreshed(key, e, o) })
	m.log.Trace("prefetch %q dispatched", key)
}

// refreshed swaps a successful refresh into the entry and restarts its
// timers. A failed refresh leaves the entry and its expiry untouched.
func (m *Memoizer[T]) refreshed(key string, e *entry[T], o *Outcome[T]) {
	o.publish()
	if o.err != nil {
		if m.cfg.onRefreshError != nil {
			m.cfg.onRefreshError(key, o.err)
		}
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.entries[key] != e {
		return
	}
	e.outcome = o
	m.armFresh(key, e)
}

func (m *Memoizer[T]) armFresh(key string, e *entry[T]) {
	m.armExpiry(key, e, m.cfg.maxAge)
	gen := e.gen
	e.prefetch = time.AfterFunc(time.Duration(float64(m.cfg.maxAge)*PrefetchRatio), func() {
		m.requestPrefetch(key, e, gen)
	})
}

func (m *Memoizer[T]) armExpiry(key string, e *entry[T], ttl time.Duration) {
	e.stopTimers()
	gen := e.gen
	e.expiry = time.AfterFunc(ttl, func() {
		m.expire(key, e, gen)
	})
}

func (m *Memoizer[T]) requestPrefetch(key string, e *entry[T], gen uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.current(key, e, gen) {
		return
	}
	e.prefetch = nil
	e.prefetchRequested = true
}

func (m *Memoizer[T]) expire(key string, e *entry[T], gen uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.current(key, e, gen) {
		return
	}
	m.evict(key, e, "expired")
}

func (m *Memoizer[T]) evict(key string, e *entry[T], reason string) {
	e.stopTimers()
	delete(m.entries, key)
	m.log.Trace("evict %q: %s", key, reason)
}
