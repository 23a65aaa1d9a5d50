// Package rbac is the single source of truth for the permission model:
// which permissions each role bundles, and which permission every
// guarded operation requires. Both tables are read-only after process
// start.
package rbac

import "bookhaven/internal/core/domain"

// Permission identifiers. Permissions are deliberately more granular
// than roles so that new operations can be gated without redefining
// roles.
const (
	PermPlaceOrders       = "place_orders"
	PermViewOwnOrders     = "view_own_orders"
	PermWriteReviews      = "write_reviews"
	PermViewAllOrders     = "view_all_orders"
	PermProcessOrders     = "process_orders"
	PermUpdateOrderStatus = "update_order_status"
	PermManageUsers       = "manage_users"
	PermManageCatalog     = "manage_catalog"
	PermManageDiscounts   = "manage_discounts"
)

// Operation keys used by route gates
const (
	OpPlaceOrder        = "place_order"
	OpViewOwnOrders     = "view_own_orders"
	OpCancelOwnOrder    = "cancel_own_order"
	OpListAllOrders     = "list_all_orders"
	OpRedeemOrder       = "redeem_order"
	OpUpdateOrderStatus = "update_order_status"
	OpCancelAnyOrder    = "cancel_any_order"
	OpManageUsers       = "manage_users"
)

// rolePermissions maps each role to its permission bundle.
// Staff carries the narrow fulfillment list only; Admin is a superset
// of everything.
var rolePermissions = map[domain.Role][]string{
	domain.RoleMember: {
		PermPlaceOrders,
		PermViewOwnOrders,
		PermWriteReviews,
	},
	domain.RoleStaff: {
		PermViewAllOrders,
		PermProcessOrders,
		PermUpdateOrderStatus,
	},
	domain.RoleAdmin: {
		PermPlaceOrders,
		PermViewOwnOrders,
		PermWriteReviews,
		PermViewAllOrders,
		PermProcessOrders,
		PermUpdateOrderStatus,
		PermManageUsers,
		PermManageCatalog,
		PermManageDiscounts,
	},
}

// operationPermissions maps each guarded operation to the single
// permission it requires
var operationPermissions = map[string]string{
	OpPlaceOrder:        PermPlaceOrders,
	OpViewOwnOrders:     PermViewOwnOrders,
	OpCancelOwnOrder:    PermPlaceOrders,
	OpListAllOrders:     PermViewAllOrders,
	OpRedeemOrder:       PermProcessOrders,
	OpUpdateOrderStatus: PermUpdateOrderStatus,
	OpCancelAnyOrder:    PermProcessOrders,
	OpManageUsers:       PermManageUsers,
}

// PermissionsForRole returns the permission bundle for a role.
// An unknown role yields an empty set, not an error. The returned
// slice is a copy; callers may not mutate the catalog.
func PermissionsForRole(role domain.Role) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return []string{}
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// AllPermissions returns every permission known to the catalog,
// deduplicated, in stable role-then-declaration order
func AllPermissions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, role := range []domain.Role{domain.RoleMember, domain.RoleStaff, domain.RoleAdmin} {
		for _, p := range rolePermissions[role] {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// RequiredPermission resolves the permission a guarded operation
// requires. The second return is false for unknown operations so the
// gate can fail closed.
func RequiredPermission(operation string) (string, bool) {
	perm, ok := operationPermissions[operation]
	return perm, ok
}
