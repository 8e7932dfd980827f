// Package security maps caller roles to the operations they may perform.
package security

import (
	"context"
	"slices"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
)

// Permission names a class of operations.
type Permission string

const (
	// PermissionRead covers listings, details and reports.
	PermissionRead Permission = "read"

	// PermissionRecord covers new sales, purchases, payments and return requests.
	PermissionRecord Permission = "record"

	// PermissionRevise covers cancellations, sale edits and return decisions.
	PermissionRevise Permission = "revise"

	// PermissionCatalog covers inventory and supplier maintenance.
	PermissionCatalog Permission = "catalog"
)

// Role is assigned to a user by the identity provider.
type Role string

const (
	RoleOwner Role = "OWNER"
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

var rolePermissions = map[Role][]Permission{
	RoleOwner: {PermissionRead, PermissionRecord, PermissionRevise, PermissionCatalog},
	RoleAdmin: {PermissionRead, PermissionRecord, PermissionRevise, PermissionCatalog},
	RoleStaff: {PermissionRead, PermissionRecord},
}

// ParseRole validates a role claim.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := rolePermissions[r]
	return r, ok
}

// Allows reports whether role grants perm.
func (r Role) Allows(perm Permission) bool {
	return slices.Contains(rolePermissions[r], perm)
}

// Require checks the caller in ctx against perm.
func Require(ctx context.Context, perm Permission) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if !Role(user.Role).Allows(perm) {
		return apperror.NewForbidden("insufficient permissions").
			WithDetail("required", string(perm)).
			WithDetail("role", user.Role)
	}
	return nil
}
