package domain

import "errors"

var (
	// ErrNotFound covers both a missing note and a note owned by someone
	// else; callers cannot tell the two apart.
	ErrNotFound = errors.New("note not found")

	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect password")
)

// PatchError is a malformed or inapplicable patch operation. Its message
// is safe to surface to the caller.
type PatchError struct {
	Msg string
}

func (e *PatchError) Error() string {
	return "error applying patch: " + e.Msg
}
