package shipment

import (
	"context"
	"time"

	"github.com/transsahel/colis-tracker/internal/domain"
)

// Repository defines the data access contract for shipments.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetShipment returns a single shipment. Returns ErrNotFound if it
	// doesn't exist.
	GetShipment(ctx context.Context, id string) (*domain.Shipment, error)

	// GetByTrackingCode resolves the public tracking code.
	GetByTrackingCode(ctx context.Context, code string) (*domain.Shipment, error)

	// CreateShipment inserts the shipment and its initial history event in
	// one transaction.
	CreateShipment(ctx context.Context, s *domain.Shipment, ev *domain.ShipmentEvent) error

	// ApplyTransition updates status, current_location, and updated_at and
	// appends the history event, all in one transaction. A half-applied
	// transition (status without event) is an invariant violation.
	// Returns the updated shipment, or ErrNotFound.
	ApplyTransition(ctx context.Context, shipmentID string, status domain.Status, location string, ev *domain.ShipmentEvent) (*domain.Shipment, error)

	// AppendEvent adds a history event without touching the shipment row.
	AppendEvent(ctx context.Context, ev *domain.ShipmentEvent) error

	// ListEvents returns the audit trail, ordered by occurred_at DESC.
	ListEvents(ctx context.Context, shipmentID string) ([]domain.ShipmentEvent, error)

	// SearchByPhone finds prior shipments whose receiver phone contains the
	// given digit string, most recent first.
	SearchByPhone(ctx context.Context, phoneDigits string, limit int) ([]domain.Shipment, error)

	// DeleteShipment removes a shipment and cascades to its events.
	DeleteShipment(ctx context.Context, id string) error

	// UpsertConvoy returns the convoy for (date, direction), creating it if
	// this is the first shipment registered for that pair.
	UpsertConvoy(ctx context.Context, date time.Time, direction domain.Direction) (*domain.Convoy, error)
}
