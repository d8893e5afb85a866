package convoy

import (
	"context"
	"time"

	"github.com/transsahel/colis-tracker/internal/domain"
)

// Repository defines the data access contract for convoys and their bulk
// shipment updates. Implementations must be safe for concurrent use.
type Repository interface {
	// GetConvoy returns a convoy with its derived shipment count.
	// Returns ErrNotFound if it doesn't exist.
	GetConvoy(ctx context.Context, id string) (*domain.Convoy, error)

	// FindConvoyByDateDirection resolves the unique (date, direction) pair.
	FindConvoyByDateDirection(ctx context.Context, date time.Time, direction domain.Direction) (*domain.Convoy, error)

	// ListConvoys returns convoys ordered by date DESC.
	ListConvoys(ctx context.Context, limit int) ([]domain.Convoy, error)

	// UpdateShipmentsByConvoy sets status (and location when non-empty) on
	// every shipment in the convoy in one bulk statement, returning the
	// number of rows matched.
	UpdateShipmentsByConvoy(ctx context.Context, convoyID string, status domain.Status, location string) (int, error)

	// UpdateShipmentsByConvoyAndCity is the city-scoped variant. The city
	// filter is exact equality as stored.
	UpdateShipmentsByConvoyAndCity(ctx context.Context, convoyID, city string, status domain.Status) (int, error)
}
