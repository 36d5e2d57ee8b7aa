package auth

import "errors"

var (
	// ErrNoPendingAuth is returned when a code or password arrives without a code request
	ErrNoPendingAuth = errors.New("no sign-in in progress, request a code first")

	// ErrPendingExpired is returned when the sign-in challenge is too old
	ErrPendingExpired = errors.New("sign-in challenge expired, request a new code")

	// ErrUnexpectedStep is returned when a code arrives while a password is awaited or vice versa
	ErrUnexpectedStep = errors.New("unexpected sign-in step")
)
