package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates the request carries no identity.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrForbidden indicates the identity lacks permission for the action.
	ErrForbidden = errors.New("forbidden")
	// ErrIllegalTransition indicates a state change outside its precondition.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrValidation indicates invalid or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the request collides with a previous one.
	ErrConflict = errors.New("conflict")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// FieldErrors carries per-field validation messages alongside ErrValidation.
type FieldErrors map[string]string

// Error implements error.
func (f FieldErrors) Error() string {
	return ErrValidation.Error()
}

// Unwrap lets errors.Is match ErrValidation.
func (f FieldErrors) Unwrap() error {
	return ErrValidation
}
