package auth

import (
	"errors"
	"testing"

	"github.com/transsahel/colis-tracker/internal/domain"
)

func TestCanPerform(t *testing.T) {
	a := NewAuthorizer()

	cases := []struct {
		name      string
		role      domain.Role
		op        Operation
		direction domain.Direction
		want      bool
	}{
		{"admin may do everything", domain.RoleAdmin, OpDeleteShipment, domain.DirectionNigerToCanada, true},
		{"admin notify any leg", domain.RoleAdmin, OpNotifyConvoy, domain.DirectionCanadaToGuinea, true},

		{"agent CA both directions", domain.RoleAgentCA, OpUpdateConvoy, domain.DirectionCanadaToNiger, true},
		{"agent CA toward Canada", domain.RoleAgentCA, OpNotifyConvoy, domain.DirectionNigerToCanada, true},
		{"agent CA never deletes", domain.RoleAgentCA, OpDeleteShipment, domain.DirectionNigerToCanada, false},

		{"agent NE on its leg", domain.RoleAgentNE, OpUpdateConvoy, domain.DirectionCanadaToNiger, true},
		{"agent NE notify its leg", domain.RoleAgentNE, OpNotifyConvoy, domain.DirectionCanadaToNiger, true},
		{"agent NE wrong leg", domain.RoleAgentNE, OpUpdateConvoy, domain.DirectionCanadaToGuinea, false},
		{"agent NE opposite direction", domain.RoleAgentNE, OpTransitionShipment, domain.DirectionNigerToCanada, false},
		{"agent NE never deletes", domain.RoleAgentNE, OpDeleteShipment, domain.DirectionCanadaToNiger, false},

		{"agent GN creates on Guinea leg", domain.RoleAgentGN, OpCreateShipment, domain.DirectionCanadaToGuinea, true},
		{"agent GN transitions on Guinea leg", domain.RoleAgentGN, OpTransitionShipment, domain.DirectionGuineaToCanada, true},
		{"agent GN off Guinea leg", domain.RoleAgentGN, OpCreateShipment, domain.DirectionNigerToCanada, false},
		{"agent GN no convoy authority", domain.RoleAgentGN, OpUpdateConvoy, domain.DirectionCanadaToGuinea, false},
		{"agent GN no notify authority", domain.RoleAgentGN, OpNotifyConvoy, domain.DirectionGuineaToCanada, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.CanPerform(tc.role, tc.op, tc.direction); got != tc.want {
				t.Errorf("CanPerform(%s, %s, %s) = %v, want %v", tc.role, tc.op, tc.direction, got, tc.want)
			}
		})
	}
}

func TestRequireDistinguishesUnauthorizedFromForbidden(t *testing.T) {
	a := NewAuthorizer()

	if err := a.Require(nil, OpCreateShipment, domain.DirectionNigerToCanada); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("nil principal: got %v, want ErrUnauthorized", err)
	}

	p := &Principal{UserID: "u1", Role: domain.RoleAgentNE}
	if err := a.Require(p, OpUpdateConvoy, domain.DirectionCanadaToGuinea); !errors.Is(err, ErrForbidden) {
		t.Errorf("wrong leg: got %v, want ErrForbidden", err)
	}
	if err := a.Require(p, OpUpdateConvoy, domain.DirectionCanadaToNiger); err != nil {
		t.Errorf("own leg: got %v, want nil", err)
	}
}
