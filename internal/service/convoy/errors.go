package convoy

import "errors"

// Sentinel errors for the convoy service layer.
var (
	ErrNotFound      = errors.New("convoy not found")
	ErrInvalidStatus = errors.New("unknown status value")
	ErrValidation    = errors.New("invalid convoy input")
)
