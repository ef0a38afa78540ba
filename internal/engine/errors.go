package engine

import "errors"

// Capability registry errors.
var (
	// ErrCapabilityNotFound is returned when no capability has the
	// requested name.
	ErrCapabilityNotFound = errors.New("capability not found")

	// ErrAlreadyRegistered is returned when registering a duplicate name.
	ErrAlreadyRegistered = errors.New("capability already registered")

	// ErrNotInvocable is returned when invoking a declared-only
	// capability, one the external runtime implements itself.
	ErrNotInvocable = errors.New("capability is declared but not invocable here")

	// ErrMissingArgument is returned when a required argument is absent.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrInvalidArgument is returned when an argument has the wrong type.
	ErrInvalidArgument = errors.New("invalid argument type")
)
