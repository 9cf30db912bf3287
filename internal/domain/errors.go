package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error so callers can branch deterministically.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindResourceConflict  ErrorKind = "resource_conflict"
	KindBlacklisted       ErrorKind = "blacklisted_customer"
	KindIllegalTransition ErrorKind = "illegal_transition"
	KindChecklistRequired ErrorKind = "checklist_required"
	KindNotAuthorized     ErrorKind = "not_authorized"
	KindAlreadyResolved   ErrorKind = "already_resolved"
	KindSelfDealing       ErrorKind = "self_dealing_not_allowed"
	KindNotFound          ErrorKind = "not_found"
	KindStorage           ErrorKind = "storage"
)

// Error is the single error type returned by the core. Callers inspect Kind
// rather than matching on message text.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the ErrorKind of err, or "" if err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// NewValidationError reports malformed input. Not retryable.
func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NewResourceConflictError reports booking/marketplace contention.
func NewResourceConflictError(msg string) *Error {
	return &Error{Kind: KindResourceConflict, Message: msg}
}

// NewBlacklistedError reports a blacklist registry hit. Hard stop.
func NewBlacklistedError(reason string) *Error {
	return &Error{Kind: KindBlacklisted, Message: reason}
}

// NewIllegalTransitionError reports a status change not present in the
// transition table.
func NewIllegalTransitionError(from, to string) *Error {
	return &Error{Kind: KindIllegalTransition, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewChecklistRequiredError reports a missing or invalid condition checklist.
func NewChecklistRequiredError(msg string) *Error {
	return &Error{Kind: KindChecklistRequired, Message: msg}
}

// NewNotAuthorizedError reports an operation attempted by the wrong tenant.
func NewNotAuthorizedError(msg string) *Error {
	return &Error{Kind: KindNotAuthorized, Message: msg}
}

// NewAlreadyResolvedError reports an operation on a non-pending request.
func NewAlreadyResolvedError(msg string) *Error {
	return &Error{Kind: KindAlreadyResolved, Message: msg}
}

// NewSelfDealingError reports a marketplace request within a single tenant.
func NewSelfDealingError() *Error {
	return &Error{Kind: KindSelfDealing, Message: "requester and supplier tenant must differ"}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewStorageError wraps an infrastructure failure.
func NewStorageError(msg string, cause error) *Error {
	return &Error{Kind: KindStorage, Message: msg, cause: cause}
}
