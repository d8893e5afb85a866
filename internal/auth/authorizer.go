package auth

import (
	"github.com/transsahel/colis-tracker/internal/domain"
)

// Principal is an authenticated actor as seen by the services.
type Principal struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
}

// Operation names a mutating action gated by the authorizer.
type Operation string

const (
	OpCreateShipment     Operation = "shipment.create"
	OpTransitionShipment Operation = "shipment.transition"
	OpDeleteShipment     Operation = "shipment.delete"
	OpUpdateConvoy       Operation = "convoy.update"
	OpNotifyConvoy       Operation = "convoy.notify"
)

// Authorizer decides which role may perform which operation on which route
// direction. It is stateless and safe for concurrent use.
type Authorizer struct{}

// NewAuthorizer returns the platform's role policy.
func NewAuthorizer() *Authorizer { return &Authorizer{} }

// CanPerform reports whether role may perform op scoped to direction.
// An empty direction means the scope could not be derived; only ADMIN and
// AGENT_CA (who may act on any leg) pass in that case.
func (a *Authorizer) CanPerform(role domain.Role, op Operation, direction domain.Direction) bool {
	if role == domain.RoleAdmin {
		return true
	}

	switch role {
	case domain.RoleAgentCA:
		// Home agent for the inbound-to-Canada legs, but trusted on both
		// directions for mutation and notification.
		return op != OpDeleteShipment

	case domain.RoleAgentNE:
		// Canada→Niger leg only, for every directional operation.
		if op == OpDeleteShipment {
			return false
		}
		return direction == domain.DirectionCanadaToNiger

	case domain.RoleAgentGN:
		// Creation and own-shipment edits on the Guinea legs; no
		// convoy-wide authority. Ownership is enforced by the shipment
		// service, which knows who created the record.
		switch op {
		case OpCreateShipment, OpTransitionShipment:
			return direction.InvolvesGuinea()
		}
		return false
	}

	return false
}

// Require gates an operation for a principal. A nil principal is an
// unauthenticated caller and always gets ErrUnauthorized; a wrong role or
// direction gets ErrForbidden.
func (a *Authorizer) Require(p *Principal, op Operation, direction domain.Direction) error {
	if p == nil {
		return ErrUnauthorized
	}
	if !a.CanPerform(p.Role, op, direction) {
		return ErrForbidden
	}
	return nil
}
