package gradebook

import (
	"errors"
	"fmt"
)

// ErrIncorrectPIN is returned by Login when the PIN does not match.
var ErrIncorrectPIN = errors.New("incorrect PIN")

// ValidationError reports bad or missing user input. No state changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation on an id that is no longer present. No state changed.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// CorruptStateError reports a stored document that cannot be read as an AppState.
// Startup must stop rather than reset the user's data.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("stored state %q is corrupt: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// SyncError reports a failed or malformed exchange with the remote mirror.
// It is never fatal and never rolls back a local change.
type SyncError struct {
	Action   string
	Endpoint string
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s to %s failed: %v", e.Action, e.Endpoint, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
