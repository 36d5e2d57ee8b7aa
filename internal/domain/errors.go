package domain

import (
	"errors"
	"fmt"
)

// Kind classifies errors produced by the core
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport covers connection, send and download failures
	KindTransport
	// KindCacheMiss is an expected condition on deletion of an untracked message
	KindCacheMiss
	// KindMedia covers attachment classification, download and send failures
	KindMedia
	KindDuplicateAccount
	KindUnknownAccount
	// KindAuth covers rejected codes and passwords
	KindAuth
	// KindPersistence covers durable snapshot failures
	KindPersistence
)

// String returns the kind name used in logs and metrics
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport_error"
	case KindCacheMiss:
		return "cache_miss"
	case KindMedia:
		return "media_error"
	case KindDuplicateAccount:
		return "duplicate_account"
	case KindUnknownAccount:
		return "unknown_account"
	case KindAuth:
		return "auth_error"
	case KindPersistence:
		return "persistence_error"
	default:
		return "unknown"
	}
}

// Error is a structured core error
type Error struct {
	Kind    Kind
	Op      string
	Account string
	Err     error
}

// E builds a structured error
func E(kind Kind, op, account string, err error) *Error {
	return &Error{Kind: kind, Op: op, Account: account, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Account != "" {
		msg = fmt.Sprintf("%s (account %s)", msg, e.Account)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost structured error in the chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	// ErrPasswordRequired is returned by sign-in when the account has a second factor enabled
	ErrPasswordRequired = errors.New("second factor password required")

	// ErrAccountNotFound is returned when account is not found
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists is returned when account already exists
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrNotConnected is returned when operation requires connection
	ErrNotConnected = errors.New("not connected to Telegram")

	// ErrNotAuthorized is returned when a stored session is missing or revoked
	ErrNotAuthorized = errors.New("session is not authorized")

	// ErrStreamClosed is returned when the event stream ends without cancellation
	ErrStreamClosed = errors.New("event stream closed")

	// ErrNoDestination is returned when an account has no report destination
	ErrNoDestination = errors.New("report destination is not set")

	// ErrUnsupportedMedia is returned when media has no downloadable handle
	ErrUnsupportedMedia = errors.New("unsupported media")
)
