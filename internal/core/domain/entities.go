package domain

import "time"

// Role represents a user role in the system
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
)

// IsValid reports whether the role is one of the fixed enumerated values
func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// statusRank orders statuses for forward-only transitions.
// Terminal states have no outgoing edges.
var statusRank = map[OrderStatus]int{
	OrderPending:   0,
	OrderConfirmed: 1,
	OrderCompleted: 2,
}

// IsTerminal reports whether no further transitions are allowed
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanAdvanceTo reports whether a status update from s to next is a
// legal forward move. Cancellation is handled separately.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	if s.IsTerminal() || next == OrderCancelled {
		return false
	}
	from, ok1 := statusRank[s]
	to, ok2 := statusRank[next]
	return ok1 && ok2 && to > from
}

// User represents an identity in the domain layer
type User struct {
	ID        uint
	Email     string
	Username  string
	Password  string // bcrypt hash
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session represents a revocable login record, independent of
// token cryptographic validity
type Session struct {
	ID          string
	UserID      uint
	Fingerprint string // SHA-256 of the issued token
	ExpiresAt   time.Time
	CreatedAt   time.Time
	RevokedAt   *time.Time
}

// ClaimSet is the validated, immutable view of a token for one request.
// It is produced once by the token validator and threaded through the
// request chain; nothing downstream re-derives it from storage.
type ClaimSet struct {
	UserID      uint
	Email       string
	Username    string
	Role        Role
	Permissions []string
	SessionID   string
	ExpiresAt   time.Time
}

// HasPermission checks exact, case-sensitive membership
func (c *ClaimSet) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
