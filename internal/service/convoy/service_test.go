package convoy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/transsahel/colis-tracker/internal/auth"
	"github.com/transsahel/colis-tracker/internal/domain"
	"github.com/transsahel/colis-tracker/internal/service/convoy"
)

// memRepo is an in-memory convoy repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	convoys   map[string]*domain.Convoy
	shipments []*domain.Shipment
}

func newMemRepo() *memRepo {
	return &memRepo{convoys: make(map[string]*domain.Convoy)}
}

func (m *memRepo) addConvoy(id string, direction domain.Direction) {
	m.convoys[id] = &domain.Convoy{ID: id, Date: time.Now(), Direction: direction}
}

func (m *memRepo) addShipment(convoyID, city string) *domain.Shipment {
	s := &domain.Shipment{
		ID:           convoyID + "-" + city + "-" + time.Now().Format("150405.000000000"),
		ConvoyID:     &convoyID,
		ReceiverCity: city,
		Status:       domain.StatusInTransit,
	}
	m.shipments = append(m.shipments, s)
	return s
}

func (m *memRepo) GetConvoy(_ context.Context, id string) (*domain.Convoy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convoys[id]
	if !ok {
		return nil, convoy.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) FindConvoyByDateDirection(_ context.Context, date time.Time, direction domain.Direction) (*domain.Convoy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.convoys {
		if c.Direction == direction && c.Date.Truncate(24*time.Hour).Equal(date) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, convoy.ErrNotFound
}

func (m *memRepo) ListConvoys(_ context.Context, limit int) ([]domain.Convoy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Convoy
	for _, c := range m.convoys {
		if len(out) < limit {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateShipmentsByConvoy(_ context.Context, convoyID string, status domain.Status, location string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.shipments {
		if s.ConvoyID != nil && *s.ConvoyID == convoyID {
			s.Status = status
			if location != "" {
				s.CurrentLocation = location
			}
			n++
		}
	}
	return n, nil
}

func (m *memRepo) UpdateShipmentsByConvoyAndCity(_ context.Context, convoyID, city string, status domain.Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.shipments {
		if s.ConvoyID != nil && *s.ConvoyID == convoyID && s.ReceiverCity == city {
			s.Status = status
			n++
		}
	}
	return n, nil
}

func admin() *auth.Principal {
	return &auth.Principal{UserID: "admin-1", Role: domain.RoleAdmin}
}

func TestUpdateConvoyUpdatesAllMembers(t *testing.T) {
	repo := newMemRepo()
	repo.addConvoy("c1", domain.DirectionNigerToCanada)
	repo.addConvoy("c2", domain.DirectionNigerToCanada)
	for i := 0; i < 5; i++ {
		repo.addShipment("c1", "Montréal")
	}
	other := repo.addShipment("c2", "Montréal")

	svc := convoy.NewService(repo, auth.NewAuthorizer())
	matched, err := svc.UpdateConvoy(context.Background(), admin(), "c1", "IN_CUSTOMS", "Montréal")
	if err != nil {
		t.Fatalf("UpdateConvoy: %v", err)
	}
	if matched != 5 {
		t.Errorf("matched = %d, want 5", matched)
	}
	for _, s := range repo.shipments[:5] {
		if s.Status != domain.StatusInCustoms {
			t.Errorf("shipment %s status = %s, want IN_CUSTOMS", s.ID, s.Status)
		}
	}
	if other.Status != domain.StatusInTransit {
		t.Errorf("other convoy's shipment was touched: %s", other.Status)
	}
}

func TestUpdateConvoyEmptyConvoy(t *testing.T) {
	repo := newMemRepo()
	repo.addConvoy("empty", domain.DirectionCanadaToNiger)

	svc := convoy.NewService(repo, auth.NewAuthorizer())
	matched, err := svc.UpdateConvoy(context.Background(), admin(), "empty", "IN_TRANSIT", "")
	if err != nil {
		t.Fatalf("empty convoy should not error: %v", err)
	}
	if matched != 0 {
		t.Errorf("matched = %d, want 0", matched)
	}
}

func TestUpdateConvoyUnknownID(t *testing.T) {
	svc := convoy.NewService(newMemRepo(), auth.NewAuthorizer())
	_, err := svc.UpdateConvoy(context.Background(), admin(), "missing", "IN_TRANSIT", "")
	if !errors.Is(err, convoy.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateConvoyInvalidStatus(t *testing.T) {
	repo := newMemRepo()
	repo.addConvoy("c1", domain.DirectionNigerToCanada)

	svc := convoy.NewService(repo, auth.NewAuthorizer())
	_, err := svc.UpdateConvoy(context.Background(), admin(), "c1", "VANISHED", "")
	if !errors.Is(err, convoy.ErrInvalidStatus) {
		t.Errorf("got %v, want ErrInvalidStatus", err)
	}
}

func TestUpdateConvoyDirectionScope(t *testing.T) {
	repo := newMemRepo()
	repo.addConvoy("to-guinea", domain.DirectionCanadaToGuinea)
	repo.addConvoy("to-niger", domain.DirectionCanadaToNiger)

	svc := convoy.NewService(repo, auth.NewAuthorizer())
	agentNE := &auth.Principal{UserID: "ne-1", Role: domain.RoleAgentNE}

	if _, err := svc.UpdateConvoy(context.Background(), agentNE, "to-guinea", "IN_TRANSIT", ""); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("wrong leg: got %v, want ErrForbidden", err)
	}
	if _, err := svc.UpdateConvoy(context.Background(), agentNE, "to-niger", "IN_TRANSIT", ""); err != nil {
		t.Errorf("own leg: %v", err)
	}
}

func TestUpdateByCityExactMatchOnly(t *testing.T) {
	repo := newMemRepo()
	repo.addConvoy("c1", domain.DirectionNigerToCanada)
	montreal := repo.addShipment("c1", "Montréal")
	montreal2 := repo.addShipment("c1", "Montréal")
	unaccented := repo.addShipment("c1", "Montreal")
	sherbrooke := repo.addShipment("c1", "Sherbrooke")

	svc := convoy.NewService(repo, auth.NewAuthorizer())
	matched, err := svc.UpdateByCity(context.Background(), admin(), "c1", "Montréal", "READY_FOR_PICKUP")
	if err != nil {
		t.Fatalf("UpdateByCity: %v", err)
	}
	if matched != 2 {
		t.Errorf("matched = %d, want 2", matched)
	}
	if montreal.Status != domain.StatusReadyForPickup || montreal2.Status != domain.StatusReadyForPickup {
		t.Error("exact-match shipments should be updated")
	}
	if unaccented.Status != domain.StatusInTransit {
		t.Errorf("city match must be exact as stored; %q was touched", unaccented.ReceiverCity)
	}
	if sherbrooke.Status != domain.StatusInTransit {
		t.Error("other cities must be untouched")
	}
}

func TestUpdateByCityRequiresCity(t *testing.T) {
	repo := newMemRepo()
	repo.addConvoy("c1", domain.DirectionNigerToCanada)

	svc := convoy.NewService(repo, auth.NewAuthorizer())
	_, err := svc.UpdateByCity(context.Background(), admin(), "c1", "  ", "READY_FOR_PICKUP")
	if !errors.Is(err, convoy.ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}
