// Package memoize wraps an expensive producer function so that calls with
// equivalent arguments share a single in-flight or completed outcome.
//
// # Memoizer
//
// [New] wraps a [Producer] and returns a [Memoizer]. [Memoizer.Call] resolves
// the call's arguments to a key and returns the [Outcome] stored for it. On a
// miss the producer is started on its own goroutine and the still-pending
// outcome is returned right away; Call never blocks on the producer. Callers
// wait with [Outcome.Wait] or select on [Outcome.Done]:
//
//	m, err := memoize.New(ctx, func(ctx context.Context, args ...any) (*User, error) {
//	    return api.GetUser(ctx, args[0].(string))
//	}, memoize.WithMaxAge(time.Minute))
//	if err != nil {
//	    return err
//	}
//	user, err := m.Do(ctx, "user:123")
//
// [Memoizer.Do] is Call followed by Wait. Cancelling the context given to Do
// abandons the wait; the producer keeps running and its result is still
// cached for the next caller.
//
// # Keys
//
// Keys come from a [Resolver], configured with [WithResolve]:
//
//   - Named([Simple]), the default, joins fmt.Sprint of each argument.
//   - Named([JSON]) joins canonical JSON encodings (map keys sorted), so two
//     distinct values with the same contents share a key.
//   - Named([Hash]) digests a msgpack encoding of each argument with xxhash,
//     giving a fixed-width fragment per argument.
//   - [PerArgument] picks a strategy per position; extra arguments and extra
//     strategies are ignored.
//   - [Custom] hands the whole argument list to a function.
//
// A call with no arguments always resolves to the same reserved key, distinct
// from any key built from one or more arguments. Unknown strategy names and
// nil functions fail in [New] with [ErrInvalidResolve], never at call time.
//
// # Retention and prefetch
//
// [WithMaxAge] and [WithMaxErrorAge] set independent retention windows for
// successful and failed outcomes. Zero means do not retain: failures are
// evicted as soon as they settle, successes are kept until [Memoizer.Clear].
//
// When a success has been cached for [PrefetchRatio] of its max age, the next
// hit for that key is still served the cached outcome but also starts a single
// background refresh. If the refresh succeeds its outcome replaces the cached
// one and the timers restart. If it fails nothing changes: the old value is
// served until it expires. Refresh failures are only visible through
// [WithRefreshErrorHandler]. Failures are never refreshed in the background.
//
// Producer errors returned to a waiting caller are passed through unchanged.
// A panicking producer settles its outcome with an error matching
// [ErrProducerPanic].
package memoize
