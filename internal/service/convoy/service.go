package convoy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/transsahel/colis-tracker/internal/auth"
	"github.com/transsahel/colis-tracker/internal/domain"
	"github.com/transsahel/colis-tracker/internal/pkg/logger"
)

// Service implements convoy batch updates. Safe for concurrent use if the
// underlying repository is.
type Service struct {
	repo  Repository
	authz *auth.Authorizer
}

// NewService creates a convoy service.
func NewService(repo Repository, authz *auth.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

// Get returns one convoy.
func (s *Service) Get(ctx context.Context, id string) (*domain.Convoy, error) {
	return s.repo.GetConvoy(ctx, id)
}

// Find resolves the unique convoy for a date and direction.
func (s *Service) Find(ctx context.Context, date time.Time, direction domain.Direction) (*domain.Convoy, error) {
	return s.repo.FindConvoyByDateDirection(ctx, date.Truncate(24*time.Hour), direction)
}

// List returns recent convoys.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Convoy, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListConvoys(ctx, limit)
}

// UpdateConvoy applies a status (and optional location) to every shipment
// in the convoy as one atomic bulk update, and returns the matched count.
//
// A convoy with no member shipments yields matchedCount 0, not an error;
// only an unknown convoy id is ErrNotFound. No per-shipment history events
// are written on this path: convoys carry hundreds of parcels and the bulk
// update runs on every leg of the trip.
func (s *Service) UpdateConvoy(ctx context.Context, p *auth.Principal, convoyID, statusLabel, location string) (int, error) {
	status, ok := domain.CanonicalStatus(statusLabel)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, statusLabel)
	}

	convoy, err := s.repo.GetConvoy(ctx, convoyID)
	if err != nil {
		return 0, err
	}
	if err := s.authz.Require(p, auth.OpUpdateConvoy, convoy.Direction); err != nil {
		return 0, err
	}

	matched, err := s.repo.UpdateShipmentsByConvoy(ctx, convoyID, status, location)
	if err != nil {
		return 0, err
	}

	logger.Info("convoy bulk update",
		"convoy_id", convoyID, "direction", string(convoy.Direction),
		"status", string(status), "matched", fmt.Sprintf("%d", matched))
	return matched, nil
}

// UpdateByCity applies a status to the subset of the convoy's shipments
// whose receiver city exactly matches as stored, typically marking one
// city's parcels READY_FOR_PICKUP once the local leg completes. The exact
// match is deliberate: the stored city is what the agent typed at
// registration, and a silent accent-folding filter here could sweep up
// parcels for a different pickup point. Fuzzy matching belongs to the
// pickup-point directory in the composer, not to this mutation.
func (s *Service) UpdateByCity(ctx context.Context, p *auth.Principal, convoyID, city, statusLabel string) (int, error) {
	if strings.TrimSpace(city) == "" {
		return 0, fmt.Errorf("%w: city is required", ErrValidation)
	}
	status, ok := domain.CanonicalStatus(statusLabel)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, statusLabel)
	}

	convoy, err := s.repo.GetConvoy(ctx, convoyID)
	if err != nil {
		return 0, err
	}
	if err := s.authz.Require(p, auth.OpUpdateConvoy, convoy.Direction); err != nil {
		return 0, err
	}

	matched, err := s.repo.UpdateShipmentsByConvoyAndCity(ctx, convoyID, city, status)
	if err != nil {
		return 0, err
	}

	logger.Info("convoy city update",
		"convoy_id", convoyID, "city", city,
		"status", string(status), "matched", fmt.Sprintf("%d", matched))
	return matched, nil
}
