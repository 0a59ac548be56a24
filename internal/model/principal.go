package model

import "github.com/google/uuid"

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleStaff  Role = "STAFF"
)

// Principal is the authenticated caller extracted from the access token.
// Clients act on their own orders; staff run the approval lifecycle and the
// catalogue tooling.
type Principal struct {
	UserID   uuid.UUID
	ClientID uuid.UUID
	Role     Role
}

func (p Principal) IsStaff() bool  { return p.Role == RoleStaff }
func (p Principal) IsClient() bool { return p.Role == RoleClient }

// Owns reports whether the principal is the client owning the given order.
func (p Principal) Owns(o *Order) bool {
	return p.IsClient() && o != nil && o.ClientID == p.ClientID
}
