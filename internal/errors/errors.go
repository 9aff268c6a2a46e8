package errors

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable classification of an execution failure.
// The external scheduler stores the kind alongside the failed job so that
// operators can tell a funding problem from an upstream outage.
type Kind string

const (
	KindUnsupportedAsset     Kind = "unsupported_asset"
	KindPriceFetch           Kind = "price_fetch"
	KindNoContract           Kind = "no_contract"
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindInsufficientGas      Kind = "insufficient_gas"
	KindApprovalExecution    Kind = "approval_execution"
	KindApprovalConfirmation Kind = "approval_confirmation"
	KindSwapExecution        Kind = "swap_execution"
	KindSwapConfirmation     Kind = "swap_confirmation"
	KindConfirmationTimeout  Kind = "confirmation_timeout"
	KindPersistence          Kind = "persistence"
	KindInvalidDirection     Kind = "invalid_direction"
)

// Error is a typed execution error carrying a stable kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As extracts a typed Error from an error chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	if typed, ok := As(err); ok {
		return typed.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or an empty Kind for untyped errors.
func KindOf(err error) Kind {
	if typed, ok := As(err); ok {
		return typed.Kind
	}
	return ""
}
