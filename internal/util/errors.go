// internal/util/errors.go
package util

import "errors"

// Application error kinds. Callers wrap them with context and classify with
// errors.Is.
var (
	ErrValidation         = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid PIN")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrNotFound           = errors.New("resource not found")
	ErrNoActiveSession    = errors.New("no active session")
	ErrDuplicatePIN       = errors.New("PIN already registered")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
