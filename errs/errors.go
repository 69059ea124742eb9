// Package errs defines the sentinel errors shared by every minipb package.
//
// Callers match them with errors.Is; the returned errors usually wrap a sentinel
// with additional detail.
package errs

import "errors"

var (
	// ErrArenaExhausted is returned when an arena cannot satisfy an allocation
	// because its configured byte limit would be exceeded.
	ErrArenaExhausted = errors.New("arena exhausted")
	// ErrArenaFreed is returned when allocating from an arena after Free.
	ErrArenaFreed = errors.New("arena already freed")

	// ErrInvalidSchema is returned by mini table construction for malformed field definitions.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrDuplicateExtension is returned when registering two extensions with the
	// same extendee and field number.
	ErrDuplicateExtension = errors.New("duplicate extension")
	// ErrSchemaNotFound is returned when a named message type cannot be resolved.
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrUnsupportedKind is returned when a protobuf field kind has no mini table equivalent.
	ErrUnsupportedKind = errors.New("unsupported field kind")
)
