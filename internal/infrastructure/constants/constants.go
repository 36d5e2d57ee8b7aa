package constants

// Context keys for storing values in context
const (
	RequestIDContextKey = "request_id"
)

// HTTP headers
const (
	RequestIDHeader = "X-Request-ID"
)
