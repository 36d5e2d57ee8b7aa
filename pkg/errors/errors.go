// Package errors contains operator-facing error types and their HTTP mapping.
// Failures of the supervisor itself are classified by domain.Kind instead.
package errors

type baseError struct {
	message string
}

func (e *baseError) Error() string {
	return e.message
}

// ValidationError represents malformed operator input (HTTP 400)
type ValidationError struct {
	baseError
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{baseError{message: message}}
}

// PermissionError represents a command the operator may not run (HTTP 403)
type PermissionError struct {
	baseError
}

func NewPermissionError(message string) *PermissionError {
	return &PermissionError{baseError{message: message}}
}
