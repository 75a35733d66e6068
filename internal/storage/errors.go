package storage

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is a unique constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidReference is a write pointing at a row that does not exist,
	// e.g. an unknown genre slug.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrCheckViolation is a row rejected by a CHECK constraint.
	ErrCheckViolation = errors.New("check constraint violation")
)

// ConstraintError names the constraint behind ErrConflict or
// ErrInvalidReference so callers can tell which field collided.
type ConstraintError struct {
	Err        error
	Constraint string
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Constraint
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// Constraint returns the constraint name carried by err, if any.
func Constraint(err error) string {
	var cErr *ConstraintError
	if errors.As(err, &cErr) {
		return cErr.Constraint
	}
	return ""
}
