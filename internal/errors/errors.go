// Package errors provides the typed, recoverable-error taxonomy for the segment
// layer. It wraps github.com/gostdlib/base/errors the same way the claw
// compiler's languages/go/errors package does, swapping the storage-oriented
// Type constants for the allocation-failure taxonomy this subsystem needs:
// out-of-memory, over commit limit, control-pool exhaustion, bad class.
// Invariant violations never go through this package — see internal/invariant.
package errors

import (
	"github.com/gostdlib/base/context"
	"github.com/gostdlib/base/errors"
)

// Type represents the type of recoverable error this package returns.
type Type uint16

const (
	// TypeUnknown represents an unknown type. This should not be used.
	TypeUnknown Type = 0
	// TypeOutOfMemory means the arena could not acquire the requested address
	// space for a segment (arena_alloc failed).
	TypeOutOfMemory Type = 1
	// TypeCommitLimit means the arena's commit limit would be exceeded by the
	// requested allocation.
	TypeCommitLimit Type = 2
	// TypeControlPool means the control allocator could not provide storage
	// for the class-specific segment extension.
	TypeControlPool Type = 3
	// TypeBadClass means a class signature or vtable was invalid (e.g a
	// subclass whose struct size is smaller than its parent's).
	TypeBadClass Type = 4
)

func (t Type) String() string {
	switch t {
	case TypeOutOfMemory:
		return "OutOfMemory"
	case TypeCommitLimit:
		return "CommitLimit"
	case TypeControlPool:
		return "ControlPool"
	case TypeBadClass:
		return "BadClass"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by recoverable allocation failures.
// It implements github.com/gostdlib/base/errors.E.
type Error = errors.Error

// EOption is an optional argument for E().
type EOption = errors.EOption

// WithStackTrace adds a stack trace to the error. Reserved for the rare case
// an allocation failure needs deep debugging; not used on the hot path.
func WithStackTrace() EOption {
	return errors.WithStackTrace()
}

// E creates a new recoverable allocation-failure Error. All errors raised by
// this package use Category User, since allocation failure is an operating
// condition (the arena is out of address space or over its commit limit),
// not a bug in the caller.
func E(ctx context.Context, t Type, msg error, options ...EOption) Error {
	opts := make([]EOption, 0, len(options)+1)
	opts = append(opts, errors.WithCallNum(2))
	opts = append(opts, options...)
	return errors.E(ctx, errors.CatUser, errors.Type(t), msg, opts...)
}
