// Package movement models how an inventory item moves between stock states
// through typed movements, and validates movement requests before they are
// sent to the stock service.
package movement

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity indicates an entry quantity that is zero or negative
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrMissingLocation indicates an entry or transfer without a destination
	ErrMissingLocation = errors.New("missing location")

	// ErrNotEntryType indicates an entry request carrying a non-entry movement type
	ErrNotEntryType = errors.New("movement type is not an entry kind")

	// ErrInvalidExitType indicates an exit reason outside the closed exit set
	ErrInvalidExitType = errors.New("invalid exit type")

	// ErrItemExited indicates a movement requested on an item that already left stock
	ErrItemExited = errors.New("item has already exited stock")

	// ErrFlowStage indicates an exit flow action that is not allowed at the current stage
	ErrFlowStage = errors.New("action not allowed at this stage of the exit flow")
)

// ValidationError is a client-local error: no request was sent.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err was raised before any request was issued.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
