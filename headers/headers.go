// Package headers defines HTTP header names used by the OVPM SDK.
package headers

const (
	// Authorization carries the bearer token on authenticated calls.
	Authorization = "Authorization"

	// RequestID is the per-call correlation header generated by the SDK.
	RequestID = "X-Request-Id"

	// Traceparent propagates W3C trace context when the caller's context carries a span.
	Traceparent = "Traceparent"

	ContentType = "Content-Type"
	Accept      = "Accept"
	UserAgent   = "User-Agent"
)
