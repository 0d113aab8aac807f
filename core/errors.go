package core

import "errors"

var (
	// ErrClosed is returned (or delivered to pending handlers) once the engine
	// has been torn down.
	ErrClosed = errors.New("messaging channel closed")

	// ErrRequestTimeout is delivered to a pending handler whose request saw no
	// terminal response before its deadline.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrTransportUnavailable is returned when no transport is configured or
	// connected to carry an outbound request.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrMissingResource is a validation failure for create/update payloads.
	ErrMissingResource = errors.New("missing resource in payload")

	// ErrMissingResourceID is a validation failure for update payloads whose
	// resource carries no id.
	ErrMissingResourceID = errors.New("resource has no id")

	// ErrMissingLocation is a validation failure for delete payloads.
	ErrMissingLocation = errors.New("missing location in payload")

	// ErrMissingResponse is a validation failure for form.submitted payloads.
	ErrMissingResponse = errors.New("missing response in payload")

	// ErrInvalidResource is returned by resource codecs for documents that are
	// not a resource (no resourceType, not an object).
	ErrInvalidResource = errors.New("invalid resource")
)
