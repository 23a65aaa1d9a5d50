package rbac

import (
	"testing"

	"bookhaven/internal/core/domain"
)

func TestPermissionsForRole(t *testing.T) {
	tests := []struct {
		name string
		role domain.Role
		want []string
	}{
		{
			name: "member gets member bundle",
			role: domain.RoleMember,
			want: []string{PermPlaceOrders, PermViewOwnOrders, PermWriteReviews},
		},
		{
			name: "staff gets narrow fulfillment bundle",
			role: domain.RoleStaff,
			want: []string{PermViewAllOrders, PermProcessOrders, PermUpdateOrderStatus},
		},
		{
			name: "unknown role yields empty set",
			role: domain.Role("GHOST"),
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PermissionsForRole(tt.role)
			if len(got) != len(tt.want) {
				t.Fatalf("PermissionsForRole(%s) = %v, want %v", tt.role, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("PermissionsForRole(%s)[%d] = %s, want %s", tt.role, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPermissionsForRole_ReturnsCopy(t *testing.T) {
	perms := PermissionsForRole(domain.RoleStaff)
	perms[0] = "tampered"

	again := PermissionsForRole(domain.RoleStaff)
	if again[0] == "tampered" {
		t.Error("PermissionsForRole must return a copy, catalog was mutated")
	}
}

func TestRoleBundlesAreStrictSubsets(t *testing.T) {
	all := make(map[string]bool)
	for _, p := range AllPermissions() {
		all[p] = true
	}

	for _, role := range []domain.Role{domain.RoleMember, domain.RoleStaff, domain.RoleAdmin} {
		perms := PermissionsForRole(role)
		for _, p := range perms {
			if !all[p] {
				t.Errorf("role %s carries %q which is not in AllPermissions()", role, p)
			}
		}
	}

	// Member and Staff must each be strictly smaller than the full set
	if len(PermissionsForRole(domain.RoleMember)) >= len(all) {
		t.Error("member bundle is not a strict subset of all permissions")
	}
	if len(PermissionsForRole(domain.RoleStaff)) >= len(all) {
		t.Error("staff bundle is not a strict subset of all permissions")
	}
}

func TestMemberNeverHoldsFulfillmentPermissions(t *testing.T) {
	for _, p := range PermissionsForRole(domain.RoleMember) {
		if p == PermProcessOrders || p == PermUpdateOrderStatus {
			t.Errorf("member bundle must not contain %q", p)
		}
	}
}

func TestAllPermissionsHasNoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range AllPermissions() {
		if seen[p] {
			t.Errorf("AllPermissions() contains %q twice", p)
		}
		seen[p] = true
	}
}

func TestRequiredPermission(t *testing.T) {
	tests := []struct {
		operation string
		want      string
		wantOK    bool
	}{
		{OpRedeemOrder, PermProcessOrders, true},
		{OpUpdateOrderStatus, PermUpdateOrderStatus, true},
		{OpPlaceOrder, PermPlaceOrders, true},
		{OpManageUsers, PermManageUsers, true},
		{"unknown_operation", "", false},
	}

	for _, tt := range tests {
		got, ok := RequiredPermission(tt.operation)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("RequiredPermission(%q) = (%q, %v), want (%q, %v)",
				tt.operation, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestEveryOperationMapsToKnownPermission(t *testing.T) {
	all := make(map[string]bool)
	for _, p := range AllPermissions() {
		all[p] = true
	}

	ops := []string{
		OpPlaceOrder, OpViewOwnOrders, OpCancelOwnOrder,
		OpListAllOrders, OpRedeemOrder, OpUpdateOrderStatus,
		OpCancelAnyOrder, OpManageUsers,
	}
	for _, op := range ops {
		perm, ok := RequiredPermission(op)
		if !ok {
			t.Errorf("operation %q has no required permission", op)
			continue
		}
		if !all[perm] {
			t.Errorf("operation %q requires %q which no role grants", op, perm)
		}
	}
}
