package shipment

import "errors"

// Sentinel errors for the shipment service layer.
var (
	ErrNotFound      = errors.New("shipment not found")
	ErrInvalidStatus = errors.New("unknown status value")
	ErrValidation    = errors.New("invalid shipment input")
	ErrUnknownRoute  = errors.New("origin/destination pair is not a served route")
)
