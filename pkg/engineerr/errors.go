// Package engineerr defines the error taxonomy shared by the graph core,
// the page-view engine, and the engine registry.
//
// Most core operations never return an error at all: a missing QID on the
// read side is a valid, recoverable outcome (an empty set, a zero count),
// not a failure. This package exists for the minority of cases that really
// are exceptional — a corrupt snapshot, a broken graph invariant, a panic
// inside a locked section — so callers can tell those apart from "not
// found" with a single errors.Is/errors.As check.
package engineerr

import "fmt"

// Kind classifies the origin of an error per the propagation policy: which
// kinds are fatal at build time versus recoverable per query.
type Kind int

const (
	// KindNotFound marks a lookup that found nothing. Core operations
	// generally avoid returning this — missing inputs become empty
	// results — but it is surfaced for point lookups (e.g. an unknown
	// wiki code) where "empty" isn't a sensible zero value.
	KindNotFound Kind = iota
	// KindEngine marks a broken internal invariant (a traversal that
	// should be impossible given the invariants in spec.md §3).
	KindEngine
	// KindIOFailure marks a failed read of a snapshot or day-view file.
	KindIOFailure
	// KindCorruptBinary marks a day-view file with a bad magic number or
	// an unreadable header.
	KindCorruptBinary
	// KindLockPoisoned marks a panic recovered from inside a critical
	// section; the engine that produced it can no longer be trusted.
	KindLockPoisoned
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindEngine:
		return "engine_error"
	case KindIOFailure:
		return "io_failure"
	case KindCorruptBinary:
		return "corrupt_binary"
	case KindLockPoisoned:
		return "lock_poisoned"
	default:
		return "unknown"
	}
}

// Error is a taxonomy-tagged error. Wrap an underlying cause with New and
// branch on Kind() at the boundary that needs to (e.g. the RPC/HTTP
// collaborator mapping NotFound to 404 and everything else to 500).
type Error struct {
	Kind  Kind
	Op    string // operation that failed, e.g. "graph.Build" or "pageview.loadDay"
	Cause error
}

func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers can
// do errors.Is(err, engineerr.NotFound) without constructing a value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel Kind-only errors for use with errors.Is.
var (
	NotFound      = &Error{Kind: KindNotFound}
	EngineFailure = &Error{Kind: KindEngine}
	IOFailure     = &Error{Kind: KindIOFailure}
	CorruptBinary = &Error{Kind: KindCorruptBinary}
	LockPoisoned  = &Error{Kind: KindLockPoisoned}
)
