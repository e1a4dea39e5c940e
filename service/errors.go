package service

import (
	"errors"
)

// Error taxonomy shared by the resolver, the notification handler and the consolidator.
// Callers branch on these with errors.Is or KindOf.
var (
	// ErrUnauthenticated means no subject id was presented to the resolver
	ErrUnauthenticated = errors.New("unauthenticated: no subject id presented")

	// ErrSignatureInvalid means a provider notification failed signature or freshness checks
	ErrSignatureInvalid = errors.New("notification signature invalid")

	// ErrConflict means a uniqueness constraint rejected a write. The resolver absorbs it.
	ErrConflict = errors.New("unique constraint conflict")

	// ErrAmbiguous marks a duplicate group with no single eligible survivor
	ErrAmbiguous = errors.New("ambiguous duplicate group")

	// ErrStoreUnavailable means the store could not be reached; the operation may be retried
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidEvent means a verified notification body could not be applied
	ErrInvalidEvent = errors.New("invalid identity event")
)

// ErrorKind classifies an error into the taxonomy above
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthenticated
	KindSignatureInvalid
	KindConflict
	KindAmbiguous
	KindStoreUnavailable
	KindInvalidEvent
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindSignatureInvalid:
		return "signature_invalid"
	case KindConflict:
		return "conflict"
	case KindAmbiguous:
		return "ambiguous"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindInvalidEvent:
		return "invalid_event"
	default:
		return "unknown"
	}
}

// KindOf returns the taxonomy kind of err, or KindUnknown
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrSignatureInvalid):
		return KindSignatureInvalid
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrAmbiguous):
		return KindAmbiguous
	case errors.Is(err, ErrInvalidEvent):
		return KindInvalidEvent
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether the caller may retry the failed operation
func IsRetryable(err error) bool {
	return KindOf(err) == KindStoreUnavailable
}
