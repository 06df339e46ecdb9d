// Package hverror defines the shared error type used by the ram and
// coroutine packages. It generalizes the single-file HVError pattern
// of the original hypervisor bindings into a domain-agnostic Kind plus
// an optional wrapped cause.
package hverror

import (
	"fmt"

	"github.com/blacktop/go-machine-rt/config"
)

// Kind classifies the broad category of a failure.
type Kind uint

const (
	KindInvalidArgument Kind = iota
	KindUnsupported
	KindResourceExhausted
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindUnsupported:
		return "unsupported"
	case KindResourceExhausted:
		return "resource exhausted"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error wraps a Kind, an optional custom message, and an optional
// underlying cause. It mirrors the detailed/sanitized dual rendering
// the teacher package used for Apple Hypervisor.framework return
// codes, generalized away from a specific vendor error-code space.
type Error struct {
	Kind    Kind
	message string
	cause   error
}

// New builds an Error with a custom message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, message: message}
}

// Wrap builds an Error that carries cause as its %w target.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, message: message, cause: cause}
}

func (e *Error) Error() string {
	if config.Get().Production {
		return e.sanitized()
	}
	return e.detailed()
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) detailed() string {
	if e.cause != nil {
		return fmt.Sprintf("machine-rt: %s: %s: %v", e.Kind, e.message, e.cause)
	}
	return fmt.Sprintf("machine-rt: %s: %s", e.Kind, e.message)
}

func (e *Error) sanitized() string {
	return fmt.Sprintf("machine-rt: %s", e.Kind)
}

// Common sentinel errors shared by the ram and coroutine packages.
var (
	ErrInvalidAlignment       = New(KindInvalidArgument, "alignment must be a power of two and at least the page size")
	ErrInvalidSize            = New(KindInvalidArgument, "size must be greater than zero")
	ErrMapFailed              = New(KindInternal, "failed to reserve host virtual memory")
	ErrCoroutinePoolExhausted = New(KindResourceExhausted, "coroutine pool exhausted")
)
