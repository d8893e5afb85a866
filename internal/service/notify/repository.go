package notify

import (
	"context"

	"github.com/transsahel/colis-tracker/internal/domain"
)

// Repository defines the data access the notifier needs.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetConvoy returns the convoy, or ErrConvoyNotFound.
	GetConvoy(ctx context.Context, id string) (*domain.Convoy, error)

	// FindShipmentsByConvoy returns every member shipment of the convoy.
	FindShipmentsByConvoy(ctx context.Context, convoyID string) ([]domain.Shipment, error)

	// GetShipment returns one shipment, or ErrShipmentNotFound.
	GetShipment(ctx context.Context, id string) (*domain.Shipment, error)

	// MarkThankYouSent flips the one-shot flag. Returns false when the flag
	// was already set (lost a race with a concurrent send).
	MarkThankYouSent(ctx context.Context, shipmentID string) (bool, error)
}
