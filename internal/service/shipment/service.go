package shipment

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/transsahel/colis-tracker/internal/auth"
	"github.com/transsahel/colis-tracker/internal/domain"
	"github.com/transsahel/colis-tracker/internal/pkg/logger"
	"github.com/transsahel/colis-tracker/internal/pkg/strutil"
)

// NotifyAttempt records the outcome of the detached receiver email fired on
// a transition. It is informational: a failed attempt never fails the
// transition itself.
type NotifyAttempt struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// TransitionNotifier is the side-channel that emails the receiver about a
// new history event. Implementations must not block for long: one send
// attempt with a bounded timeout, no retries.
type TransitionNotifier interface {
	NotifyTransition(ctx context.Context, s *domain.Shipment, ev *domain.ShipmentEvent) NotifyAttempt
}

// Service implements the shipment status machine. All public methods are
// safe for concurrent use if the underlying repository is.
type Service struct {
	repo     Repository
	authz    *auth.Authorizer
	notifier TransitionNotifier // may be nil when mail is disabled
}

// NewService creates a shipment service.
func NewService(repo Repository, authz *auth.Authorizer, notifier TransitionNotifier) *Service {
	return &Service{repo: repo, authz: authz, notifier: notifier}
}

// CreateInput holds the fields for registering a new shipment.
type CreateInput struct {
	ReceiverName    string  `json:"receiver_name"`
	ReceiverEmail   string  `json:"receiver_email"`
	ReceiverPhone   string  `json:"receiver_phone"`
	ReceiverAddress string  `json:"receiver_address"`
	ReceiverCity    string  `json:"receiver_city"`
	PostalCode      string  `json:"postal_code"`
	WeightKg        float64 `json:"weight_kg"`
	Notes           string  `json:"notes"`

	OriginCountry      string `json:"origin_country"`
	DestinationCountry string `json:"destination_country"`

	// ConvoyDate, when set, joins the shipment to the convoy for that
	// date+direction, creating the convoy lazily.
	ConvoyDate *time.Time `json:"convoy_date,omitempty"`

	Location string `json:"location"`
}

// Create registers a shipment, generates its tracking code, joins (and if
// needed creates) the convoy, and records the initial CREATED event. The
// shipment row and event are written in one transaction.
func (s *Service) Create(ctx context.Context, p *auth.Principal, input CreateInput) (*domain.Shipment, error) {
	direction, ok := domain.DirectionFor(input.OriginCountry, input.DestinationCountry)
	if !ok {
		return nil, ErrUnknownRoute
	}
	if err := s.authz.Require(p, auth.OpCreateShipment, direction); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ReceiverName) == "" {
		return nil, fmt.Errorf("%w: receiver name is required", ErrValidation)
	}

	now := time.Now()
	sh := &domain.Shipment{
		ID:                 uuid.New().String(),
		TrackingCode:       generateTrackingCode(direction.TrackingPrefix()),
		ReceiverName:       strings.TrimSpace(input.ReceiverName),
		ReceiverEmail:      strutil.NormalizeEmail(input.ReceiverEmail),
		ReceiverPhone:      strings.TrimSpace(input.ReceiverPhone),
		ReceiverAddress:    input.ReceiverAddress,
		ReceiverCity:       strings.TrimSpace(input.ReceiverCity),
		PostalCode:         input.PostalCode,
		WeightKg:           input.WeightKg,
		Notes:              input.Notes,
		Status:             domain.StatusCreated,
		CurrentLocation:    input.Location,
		OriginCountry:      input.OriginCountry,
		DestinationCountry: input.DestinationCountry,
		CreatedBy:          p.UserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if input.ConvoyDate != nil {
		convoy, err := s.repo.UpsertConvoy(ctx, input.ConvoyDate.Truncate(24*time.Hour), direction)
		if err != nil {
			return nil, fmt.Errorf("upsert convoy: %w", err)
		}
		sh.ConvoyID = &convoy.ID
	}

	ev := &domain.ShipmentEvent{
		ID:          uuid.New().String(),
		ShipmentID:  sh.ID,
		Type:        domain.EventTypeFor(domain.StatusCreated),
		Description: "Colis enregistré",
		Location:    input.Location,
		OccurredAt:  now,
		CreatedAt:   now,
	}

	if err := s.repo.CreateShipment(ctx, sh, ev); err != nil {
		return nil, err
	}

	logger.Info("shipment created",
		"tracking_code", sh.TrackingCode, "direction", string(direction),
		"receiver_email", sh.ReceiverEmail)
	return sh, nil
}

// TransitionInput holds the fields for a status change.
type TransitionInput struct {
	// NewStatus is a status label; legacy vocabulary (ARRIVED_IN_CANADA,
	// PICKED_UP, OUT_FOR_DELIVERY) is accepted and mapped to the canonical
	// enum.
	NewStatus   string     `json:"new_status"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"` // backdating allowed
}

// TransitionResult separates the primary mutation from the best-effort
// notification so callers never conflate "the status changed" with "the
// email went out".
type TransitionResult struct {
	Shipment     *domain.Shipment      `json:"shipment"`
	Event        *domain.ShipmentEvent `json:"event"`
	Notification NotifyAttempt         `json:"notification"`
}

// Transition applies a status change to one shipment.
//
// The machine is deliberately permissive: any canonical status may be
// assigned regardless of the current one, so agents can roll back a
// mis-set status without escalation. Atomically (one transaction) the
// shipment's status/location/updated_at are updated and a history event is
// appended. On success a receiver email is attempted; its failure is
// recorded in the result and logged, never surfaced as an error.
func (s *Service) Transition(ctx context.Context, p *auth.Principal, shipmentID string, input TransitionInput) (*TransitionResult, error) {
	status, ok := domain.CanonicalStatus(input.NewStatus)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, input.NewStatus)
	}

	sh, err := s.repo.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(p, sh); err != nil {
		return nil, err
	}

	now := time.Now()
	occurred := now
	if input.OccurredAt != nil {
		occurred = *input.OccurredAt
	}
	description := input.Description
	if description == "" {
		description = statusDescription(status)
	}

	ev := &domain.ShipmentEvent{
		ID:          uuid.New().String(),
		ShipmentID:  sh.ID,
		Type:        domain.EventTypeFor(status),
		Description: description,
		Location:    input.Location,
		OccurredAt:  occurred,
		CreatedAt:   now,
	}

	updated, err := s.repo.ApplyTransition(ctx, sh.ID, status, input.Location, ev)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{Shipment: updated, Event: ev}
	result.Notification = s.notifyReceiver(ctx, updated, ev)
	return result, nil
}

// RecordCustomEvent appends a free-text CUSTOM history entry without
// changing the shipment's status.
func (s *Service) RecordCustomEvent(ctx context.Context, p *auth.Principal, shipmentID, description, location string, occurredAt *time.Time) (*domain.ShipmentEvent, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required for a custom event", ErrValidation)
	}

	sh, err := s.repo.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(p, sh); err != nil {
		return nil, err
	}

	now := time.Now()
	occurred := now
	if occurredAt != nil {
		occurred = *occurredAt
	}
	ev := &domain.ShipmentEvent{
		ID:          uuid.New().String(),
		ShipmentID:  sh.ID,
		Type:        domain.EventCustom,
		Description: description,
		Location:    location,
		OccurredAt:  occurred,
		CreatedAt:   now,
	}
	if err := s.repo.AppendEvent(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Get returns a single shipment.
func (s *Service) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	return s.repo.GetShipment(ctx, id)
}

// Track resolves a public tracking code to the shipment and its audit trail.
func (s *Service) Track(ctx context.Context, code string) (*domain.Shipment, []domain.ShipmentEvent, error) {
	sh, err := s.repo.GetByTrackingCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, nil, err
	}
	events, err := s.repo.ListEvents(ctx, sh.ID)
	if err != nil {
		return nil, nil, err
	}
	return sh, events, nil
}

// Events returns a shipment's audit trail (occurred_at DESC).
func (s *Service) Events(ctx context.Context, shipmentID string) ([]domain.ShipmentEvent, error) {
	return s.repo.ListEvents(ctx, shipmentID)
}

// Lookup finds prior shipments by receiver phone so agents can pre-fill new
// shipment forms. Matching is on digits only, so formatting differences
// don't matter.
func (s *Service) Lookup(ctx context.Context, phone string) ([]domain.Shipment, error) {
	digits := strutil.NormalizePhone(phone)
	if len(digits) < 4 {
		return nil, fmt.Errorf("%w: at least 4 phone digits required", ErrValidation)
	}
	return s.repo.SearchByPhone(ctx, digits, 10)
}

// Delete removes a shipment and its events. Admin only.
func (s *Service) Delete(ctx context.Context, p *auth.Principal, id string) error {
	sh, err := s.repo.GetShipment(ctx, id)
	if err != nil {
		return err
	}
	direction, _ := sh.Direction()
	if err := s.authz.Require(p, auth.OpDeleteShipment, direction); err != nil {
		return err
	}
	return s.repo.DeleteShipment(ctx, id)
}

// authorizeMutation gates a shipment mutation: role/direction via the
// authorizer, plus the ownership rule for Guinea agents, who may only edit
// shipments they created.
func (s *Service) authorizeMutation(p *auth.Principal, sh *domain.Shipment) error {
	direction, _ := sh.Direction()
	if err := s.authz.Require(p, auth.OpTransitionShipment, direction); err != nil {
		return err
	}
	if p.Role == domain.RoleAgentGN && sh.CreatedBy != p.UserID {
		return auth.ErrForbidden
	}
	return nil
}

// notifyReceiver fires the detached transition email. Failures are logged
// and folded into the attempt record only.
func (s *Service) notifyReceiver(ctx context.Context, sh *domain.Shipment, ev *domain.ShipmentEvent) NotifyAttempt {
	if s.notifier == nil || sh.ReceiverEmail == "" {
		return NotifyAttempt{Attempted: false}
	}
	attempt := s.notifier.NotifyTransition(ctx, sh, ev)
	if attempt.Attempted && !attempt.OK {
		logger.Warn("transition email failed",
			"tracking_code", sh.TrackingCode,
			"receiver_email", sh.ReceiverEmail,
			"error", attempt.Error)
	}
	return attempt
}

const trackingCodeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateTrackingCode builds a PREFIX-XXXXXXX code. The charset drops
// easily-confused characters (0/O, 1/I/L) because agents read these codes
// over the phone.
func generateTrackingCode(prefix string) string {
	b := make([]byte, 7)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// fall back to a uuid-derived suffix rather than crash.
		return prefix + "-" + strings.ToUpper(uuid.New().String()[:7])
	}
	for i := range b {
		b[i] = trackingCodeCharset[int(b[i])%len(trackingCodeCharset)]
	}
	return prefix + "-" + string(b)
}

func statusDescription(s domain.Status) string {
	switch s {
	case domain.StatusCreated:
		return "Colis enregistré"
	case domain.StatusReceivedInNiger:
		return "Colis reçu au Niger"
	case domain.StatusReceivedInCanada:
		return "Colis reçu au Canada"
	case domain.StatusReceivedInGuinea:
		return "Colis reçu en Guinée"
	case domain.StatusInTransit:
		return "Colis en transit"
	case domain.StatusInTransitStop:
		return "Colis en escale"
	case domain.StatusInCustoms:
		return "Colis en dédouanement"
	case domain.StatusReadyForPickup:
		return "Colis prêt pour le retrait"
	case domain.StatusDelivered:
		return "Colis livré"
	}
	return string(s)
}
