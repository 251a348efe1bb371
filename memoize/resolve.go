package memoize

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"
)

// Names of the built-in key strategies.
const (
	Simple = "simple"
	JSON   = "json"
	Hash   = "hash"
)

// emptyKey is the key of a call with no arguments; separator joins
// per-argument key fragments.
const (
	emptyKey  = "\x01"
	separator = "\x02"
)

// ErrInvalidResolve is returned when a Resolve value names an unknown
// strategy or is malformed.
var ErrInvalidResolve = errors.New("memoize: invalid resolve option")

// Resolver maps a call's arguments to a cache key.
type Resolver func(args []any) string

// Resolve selects a key strategy. Build one with Named, PerArgument or
// Custom; the zero value means Named(Simple).
type Resolve struct {
	kind  resolveKind
	name  string
	parts []Part
	fn    func(args []any) string
}

type resolveKind int

const (
	resolveDefault resolveKind = iota
	resolveNamed
	resolvePerArgument
	resolveCustom
)

// Named selects a built-in strategy by name: Simple, JSON or Hash.
func Named(name string) Resolve {
	return Resolve{kind: resolveNamed, name: name}
}

// PerArgument keys each argument position with its own strategy. Only the
// first min(len(parts), len(args)) positions contribute to the key.
func PerArgument(parts ...Part) Resolve {
	return Resolve{kind: resolvePerArgument, parts: parts}
}

// Custom uses fn's return value as the key, unmodified.
func Custom(fn func(args []any) string) Resolve {
	return Resolve{kind: resolveCustom, fn: fn}
}

// Part is the key strategy for a single argument position.
type Part struct {
	name string
	fn   func(arg any) string
}

// PartNamed applies a built-in strategy to a single argument.
func PartNamed(name string) Part {
	return Part{name: name}
}

// PartFunc keys a single argument with fn.
func PartFunc(fn func(arg any) string) Part {
	return Part{fn: fn}
}

var builtins = map[string]func(arg any) string{
	Simple: simpleFragment,
	JSON:   jsonFragment,
	Hash:   hashFragment,
}

// NewResolver validates r and returns the Resolver it describes. All
// validation happens here so a bad configuration never reaches call time.
func NewResolver(r Resolve) (Resolver, error) {
	switch r.kind {
	case resolveDefault:
		return joinResolver(simpleFragment), nil
	case resolveNamed:
		fragment, ok := builtins[r.name]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidResolve, "unknown strategy %q", r.name)
		}
		return joinResolver(fragment), nil
	case resolvePerArgument:
		return perArgumentResolver(r.parts)
	case resolveCustom:
		if r.fn == nil {
			return nil, errors.Wrap(ErrInvalidResolve, "nil resolve function")
		}
		return r.fn, nil
	}
	return nil, errors.Wrapf(ErrInvalidResolve, "unknown resolve kind %d", r.kind)
}

func joinResolver(fragment func(any) string) Resolver {
	return func(args []any) string {
		if len(args) == 0 {
			return emptyKey
		}
		var sb strings.Builder
		for i, arg := range args {
			if i > 0 {
				sb.WriteString(separator)
			}
			sb.WriteString(fragment(arg))
		}
		return sb.String()
	}
}

func perArgumentResolver(parts []Part) (Resolver, error) {
	fragments := make([]func(any) string, len(parts))
	for i, p := range parts {
		switch {
		case p.fn != nil && p.name != "":
			return nil, errors.Wrapf(ErrInvalidResolve, "argument %d: both name and function given", i)
		case p.fn != nil:
			fragments[i] = p.fn
		case p.name != "":
			fragment, ok := builtins[p.name]
			if !ok {
				return nil, errors.Wrapf(ErrInvalidResolve, "argument %d: unknown strategy %q", i, p.name)
			}
			fragments[i] = fragment
		default:
			return nil, errors.Wrapf(ErrInvalidResolve, "argument %d: empty strategy", i)
		}
	}
	return func(args []any) string {
		n := min(len(fragments), len(args))
		if n == 0 {
			return emptyKey
		}
		var sb strings.Builder
		for i := 0; i < n; i++ {
			if i > 0 {
				sb.WriteString(separator)
			}
			sb.WriteString(fragments[i](args[i]))
		}
		return sb.String()
	}, nil
}

func simpleFragment(arg any) string {
	return fmt.Sprint(arg)
}

// canonicalJSON sorts map keys so maps with equal contents encode equally.
var canonicalJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

func jsonFragment(arg any) string {
	buf, err := canonicalJSON.Marshal(arg)
	if err != nil {
		// funcs, channels and the like have no JSON form
		return simpleFragment(arg)
	}
	return string(buf)
}

func hashFragment(arg any) string {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(arg); err != nil {
		buf.Reset()
		buf.WriteString(simpleFragment(arg))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(buf.Bytes()))
}
