package profile

import "errors"

var (
	// ErrValidationFailed is matched by every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrIndexOutOfRange is returned when an entry index does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnknownField is returned when a field name is not editable.
	ErrUnknownField = errors.New("unknown field")
)

// ValidationError identifies the first required field found missing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is reports ErrValidationFailed as a match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }
