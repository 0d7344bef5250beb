// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between failure classes without
// inspecting driver errors. Handlers translate them into HTTP statuses.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a record they do not own. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write would violate a unique key,
// such as a second record for the same annotator and source text.
// Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the addressed record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidArgument marks malformed identifiers or missing fields.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnavailable is returned when the database cannot be reached.
// Handlers translate this into 503.
var ErrUnavailable = errors.New("storage unavailable")

// ErrDuplicateID is returned by inserts when the generated identifier
// is already taken. It never reaches handlers: the identity generator
// consumes it and draws a new identifier.
var ErrDuplicateID = errors.New("duplicate identifier")

// ErrEmailExists and ErrNameExists refine ErrConflict for accounts.
var (
	ErrEmailExists = wrapConflict("email already exists")
	ErrNameExists  = wrapConflict("name already exists")
)

type conflictError struct{ msg string }

func (e conflictError) Error() string        { return e.msg }
func (e conflictError) Is(target error) bool { return target == ErrConflict }

func wrapConflict(msg string) error { return conflictError{msg: msg} }
