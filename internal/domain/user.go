package domain

import "time"

// Role scopes what an authenticated user may do.
type Role string

const (
	// RoleAdmin may perform every operation, including deletes.
	RoleAdmin Role = "ADMIN"
	// RoleAgentCA is the Canadian hub agent: full mutation and
	// notification rights on every route, no deletes.
	RoleAgentCA Role = "AGENT_CA"
	// RoleAgentNE is the Niger agent, restricted to the Canada→Niger leg.
	RoleAgentNE Role = "AGENT_NE"
	// RoleAgentGN is the Guinea agent, restricted to Guinea routes and,
	// for mutations, to shipments they registered themselves.
	RoleAgentGN Role = "AGENT_GN"
)

// ParseRole validates a role label.
func ParseRole(label string) (Role, bool) {
	switch r := Role(label); r {
	case RoleAdmin, RoleAgentCA, RoleAgentNE, RoleAgentGN:
		return r, true
	}
	return "", false
}

// User is an agent or administrator account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
