package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrMissingDeviceID) {
//	    // discard the message, keep the connection open
//	}
var (
	// ErrMissingDeviceID is returned when an upsert is attempted without a
	// device ID. Messages without a device ID are discarded at the ingest
	// boundary; the registry enforces the same rule defensively.
	ErrMissingDeviceID = errors.New("device: missing device id")
)
