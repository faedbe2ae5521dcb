package core

import "errors"

// Error taxonomy shared by every service. Wrap with fmt.Errorf("...: %w", ErrX)
// so the API layer can map the category while keeping the reason.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrValidation       = errors.New("validation failure")
)
