package notify

import "errors"

// Sentinel errors for the notification layer.
var (
	ErrConvoyNotFound   = errors.New("convoy not found")
	ErrShipmentNotFound = errors.New("shipment not found")
	ErrAlreadyNotified  = errors.New("thank-you email already sent for this shipment")
	ErrUnknownTemplate  = errors.New("unknown notification template")
	ErrNoRecipientEmail = errors.New("shipment has no receiver email")
)
