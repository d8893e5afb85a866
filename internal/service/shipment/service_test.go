package shipment_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/transsahel/colis-tracker/internal/auth"
	"github.com/transsahel/colis-tracker/internal/domain"
	"github.com/transsahel/colis-tracker/internal/service/shipment"
)

// memRepo is an in-memory shipment repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	shipments map[string]*domain.Shipment
	events    map[string][]domain.ShipmentEvent // keyed by shipment id
	convoys   map[string]*domain.Convoy         // keyed by date+direction
}

func newMemRepo() *memRepo {
	return &memRepo{
		shipments: make(map[string]*domain.Shipment),
		events:    make(map[string][]domain.ShipmentEvent),
		convoys:   make(map[string]*domain.Convoy),
	}
}

func (m *memRepo) GetShipment(_ context.Context, id string) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[id]
	if !ok {
		return nil, shipment.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) GetByTrackingCode(_ context.Context, code string) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shipments {
		if s.TrackingCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, shipment.ErrNotFound
}

func (m *memRepo) CreateShipment(_ context.Context, s *domain.Shipment, ev *domain.ShipmentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.shipments[cp.ID] = &cp
	m.events[cp.ID] = append(m.events[cp.ID], *ev)
	return nil
}

func (m *memRepo) ApplyTransition(_ context.Context, shipmentID string, status domain.Status, location string, ev *domain.ShipmentEvent) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[shipmentID]
	if !ok {
		return nil, shipment.ErrNotFound
	}
	s.Status = status
	if location != "" {
		s.CurrentLocation = location
	}
	s.UpdatedAt = time.Now()
	m.events[shipmentID] = append(m.events[shipmentID], *ev)
	cp := *s
	return &cp, nil
}

func (m *memRepo) AppendEvent(_ context.Context, ev *domain.ShipmentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ShipmentID] = append(m.events[ev.ShipmentID], *ev)
	return nil
}

func (m *memRepo) ListEvents(_ context.Context, shipmentID string) ([]domain.ShipmentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ShipmentEvent(nil), m.events[shipmentID]...), nil
}

func (m *memRepo) SearchByPhone(_ context.Context, digits string, limit int) ([]domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Shipment
	for _, s := range m.shipments {
		if strings.Contains(s.ReceiverPhone, digits) && len(out) < limit {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteShipment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shipments[id]; !ok {
		return shipment.ErrNotFound
	}
	delete(m.shipments, id)
	delete(m.events, id)
	return nil
}

func (m *memRepo) UpsertConvoy(_ context.Context, date time.Time, direction domain.Direction) (*domain.Convoy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := date.Format("2006-01-02") + string(direction)
	if c, ok := m.convoys[key]; ok {
		cp := *c
		return &cp, nil
	}
	c := &domain.Convoy{ID: uuid.New().String(), Date: date, Direction: direction}
	m.convoys[key] = c
	cp := *c
	return &cp, nil
}

// fakeNotifier records transition notifications and can be told to fail.
type fakeNotifier struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeNotifier) NotifyTransition(_ context.Context, _ *domain.Shipment, _ *domain.ShipmentEvent) shipment.NotifyAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return shipment.NotifyAttempt{Attempted: true, OK: false, Error: "550 mailbox unavailable"}
	}
	return shipment.NotifyAttempt{Attempted: true, OK: true}
}

func adminPrincipal() *auth.Principal {
	return &auth.Principal{UserID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
}

func newTestService(notifier shipment.TransitionNotifier) (*shipment.Service, *memRepo) {
	repo := newMemRepo()
	return shipment.NewService(repo, auth.NewAuthorizer(), notifier), repo
}

func createShipment(t *testing.T, svc *shipment.Service, p *auth.Principal) *domain.Shipment {
	t.Helper()
	sh, err := svc.Create(context.Background(), p, shipment.CreateInput{
		ReceiverName:       "Aissata Diallo",
		ReceiverEmail:      "Aissata@Example.com",
		ReceiverPhone:      "+1 (514) 555-0134",
		ReceiverCity:       "Montréal",
		OriginCountry:      "Niger",
		DestinationCountry: "Canada",
		Location:           "Niamey",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return sh
}

func TestCreateShipment(t *testing.T) {
	svc, repo := newTestService(nil)
	sh := createShipment(t, svc, adminPrincipal())

	if sh.Status != domain.StatusCreated {
		t.Errorf("status = %s, want CREATED", sh.Status)
	}
	if !strings.HasPrefix(sh.TrackingCode, "NECA-") || len(sh.TrackingCode) != len("NECA-")+7 {
		t.Errorf("tracking code %q should be NECA-XXXXXXX", sh.TrackingCode)
	}
	if sh.ReceiverEmail != "aissata@example.com" {
		t.Errorf("receiver email not normalized: %q", sh.ReceiverEmail)
	}

	events, _ := repo.ListEvents(context.Background(), sh.ID)
	if len(events) != 1 || events[0].Type != domain.EventType(domain.StatusCreated) {
		t.Fatalf("expected exactly one CREATED event, got %+v", events)
	}
}

func TestCreateUnknownRoute(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.Create(context.Background(), adminPrincipal(), shipment.CreateInput{
		ReceiverName:       "Test",
		OriginCountry:      "Niger",
		DestinationCountry: "Guinée",
	})
	if !errors.Is(err, shipment.ErrUnknownRoute) {
		t.Errorf("got %v, want ErrUnknownRoute", err)
	}
}

func TestCreateJoinsConvoy(t *testing.T) {
	svc, _ := newTestService(nil)
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	in := shipment.CreateInput{
		ReceiverName:       "Test",
		OriginCountry:      "Niger",
		DestinationCountry: "Canada",
		ConvoyDate:         &date,
	}
	first, err := svc.Create(context.Background(), adminPrincipal(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(context.Background(), adminPrincipal(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if first.ConvoyID == nil || second.ConvoyID == nil {
		t.Fatal("both shipments should join a convoy")
	}
	if *first.ConvoyID != *second.ConvoyID {
		t.Errorf("same date+direction should reuse one convoy: %s vs %s", *first.ConvoyID, *second.ConvoyID)
	}
}

func TestTransitionSetsStatusAndAppendsOneEvent(t *testing.T) {
	svc, repo := newTestService(nil)
	sh := createShipment(t, svc, adminPrincipal())

	for _, status := range domain.AllStatuses() {
		before, _ := repo.ListEvents(context.Background(), sh.ID)

		result, err := svc.Transition(context.Background(), adminPrincipal(), sh.ID, shipment.TransitionInput{
			NewStatus: string(status),
			Location:  "Montréal",
		})
		if err != nil {
			t.Fatalf("Transition(%s): %v", status, err)
		}
		if result.Shipment.Status != status {
			t.Errorf("status = %s, want %s", result.Shipment.Status, status)
		}

		after, _ := repo.ListEvents(context.Background(), sh.ID)
		if len(after) != len(before)+1 {
			t.Fatalf("Transition(%s): %d events appended, want 1", status, len(after)-len(before))
		}
		if after[len(after)-1].Type != domain.EventTypeFor(status) {
			t.Errorf("event type = %s, want %s", after[len(after)-1].Type, status)
		}
	}
}

func TestTransitionAcceptsLegacyLabels(t *testing.T) {
	svc, _ := newTestService(nil)
	sh := createShipment(t, svc, adminPrincipal())

	result, err := svc.Transition(context.Background(), adminPrincipal(), sh.ID, shipment.TransitionInput{
		NewStatus: "PICKED_UP",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if result.Shipment.Status != domain.StatusDelivered {
		t.Errorf("PICKED_UP should map to DELIVERED, got %s", result.Shipment.Status)
	}
}

func TestTransitionBackwardAllowed(t *testing.T) {
	svc, _ := newTestService(nil)
	sh := createShipment(t, svc, adminPrincipal())

	for _, status := range []string{"DELIVERED", "IN_TRANSIT"} {
		if _, err := svc.Transition(context.Background(), adminPrincipal(), sh.ID, shipment.TransitionInput{NewStatus: status}); err != nil {
			t.Fatalf("Transition(%s): %v", status, err)
		}
	}
}

func TestTransitionInvalidStatus(t *testing.T) {
	svc, _ := newTestService(nil)
	sh := createShipment(t, svc, adminPrincipal())

	_, err := svc.Transition(context.Background(), adminPrincipal(), sh.ID, shipment.TransitionInput{NewStatus: "TELEPORTED"})
	if !errors.Is(err, shipment.ErrInvalidStatus) {
		t.Errorf("got %v, want ErrInvalidStatus", err)
	}
}

func TestTransitionNotFound(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.Transition(context.Background(), adminPrincipal(), "missing", shipment.TransitionInput{NewStatus: "IN_TRANSIT"})
	if !errors.Is(err, shipment.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestTransitionNotificationFailureDoesNotFailTransition(t *testing.T) {
	notifier := &fakeNotifier{fail: true}
	svc, _ := newTestService(notifier)
	sh := createShipment(t, svc, adminPrincipal())

	result, err := svc.Transition(context.Background(), adminPrincipal(), sh.ID, shipment.TransitionInput{NewStatus: "IN_TRANSIT"})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if result.Shipment.Status != domain.StatusInTransit {
		t.Errorf("status = %s, want IN_TRANSIT", result.Shipment.Status)
	}
	if !result.Notification.Attempted || result.Notification.OK {
		t.Errorf("notification = %+v, want attempted and failed", result.Notification)
	}
	if notifier.calls != 1 {
		t.Errorf("notifier called %d times, want 1", notifier.calls)
	}
}

func TestTransitionForbiddenForWrongLeg(t *testing.T) {
	svc, _ := newTestService(nil)
	sh := createShipment(t, svc, adminPrincipal()) // NE_TO_CA

	agentNE := &auth.Principal{UserID: "ne-1", Role: domain.RoleAgentNE}
	_, err := svc.Transition(context.Background(), agentNE, sh.ID, shipment.TransitionInput{NewStatus: "IN_TRANSIT"})
	if !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestGuineaAgentOwnership(t *testing.T) {
	svc, _ := newTestService(nil)

	owner := &auth.Principal{UserID: "gn-1", Role: domain.RoleAgentGN}
	other := &auth.Principal{UserID: "gn-2", Role: domain.RoleAgentGN}

	sh, err := svc.Create(context.Background(), owner, shipment.CreateInput{
		ReceiverName:       "Mamadou Bah",
		OriginCountry:      "Canada",
		DestinationCountry: "Guinée",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Transition(context.Background(), owner, sh.ID, shipment.TransitionInput{NewStatus: "IN_TRANSIT"}); err != nil {
		t.Errorf("owner transition: %v", err)
	}
	if _, err := svc.Transition(context.Background(), other, sh.ID, shipment.TransitionInput{NewStatus: "IN_CUSTOMS"}); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("non-owner transition: got %v, want ErrForbidden", err)
	}
}

func TestRecordCustomEvent(t *testing.T) {
	svc, repo := newTestService(nil)
	sh := createShipment(t, svc, adminPrincipal())

	backdated := time.Now().Add(-48 * time.Hour)
	ev, err := svc.RecordCustomEvent(context.Background(), adminPrincipal(), sh.ID, "Colis retenu à la douane pour inspection", "Casablanca", &backdated)
	if err != nil {
		t.Fatalf("RecordCustomEvent: %v", err)
	}
	if ev.Type != domain.EventCustom {
		t.Errorf("event type = %s, want CUSTOM", ev.Type)
	}
	if !ev.OccurredAt.Equal(backdated) {
		t.Errorf("occurred_at not backdated: %v", ev.OccurredAt)
	}

	got, _ := repo.GetShipment(context.Background(), sh.ID)
	if got.Status != domain.StatusCreated {
		t.Errorf("custom event must not change status, got %s", got.Status)
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(nil)
	sh := createShipment(t, svc, adminPrincipal())

	agentCA := &auth.Principal{UserID: "ca-1", Role: domain.RoleAgentCA}
	if err := svc.Delete(context.Background(), agentCA, sh.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("agent delete: got %v, want ErrForbidden", err)
	}
	if err := svc.Delete(context.Background(), adminPrincipal(), sh.ID); err != nil {
		t.Errorf("admin delete: %v", err)
	}
}

func TestLookupRequiresDigits(t *testing.T) {
	svc, _ := newTestService(nil)
	if _, err := svc.Lookup(context.Background(), "51a"); !errors.Is(err, shipment.ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}
