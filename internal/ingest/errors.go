package ingest

import "errors"

// Domain-specific errors for the ingest boundary.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedPayload is returned when a producer payload is not valid
	// JSON. Malformed payloads are logged and skipped; the connection that
	// carried them stays open.
	ErrMalformedPayload = errors.New("ingest: malformed payload")

	// ErrNoAvailablePort is returned at startup when the configured port
	// and every successive fallback port are already in use. This is fatal.
	ErrNoAvailablePort = errors.New("ingest: no available port")
)
