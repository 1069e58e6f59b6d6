package errs

import "errors"

// Stable error categories surfaced at the API boundary. Handlers classify
// with errors.Is; everything else wraps these with fmt.Errorf("...: %w").
var (
	// ErrMalformedReport means a location report is missing required fields
	// or has fields of the wrong type.
	ErrMalformedReport = errors.New("malformed report")

	// ErrOutOfRange means latitude or longitude is outside WGS84 bounds.
	ErrOutOfRange = errors.New("coordinates out of range")

	// ErrInvalidRange means a history query window has from > to.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrNotFound means the requested user or device has no data.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable means an append or scan failed at the I/O layer.
	// It fails the single request; the process keeps serving other devices.
	ErrStoreUnavailable = errors.New("store unavailable")
)
