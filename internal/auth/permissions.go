package auth

import "fmt"

// Role is the access tier carried in a token.
type Role string

// Roles, from least to most privileged.
const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleViewer, RoleOperator, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermBusRead    Permission = "bus:read"
	PermBusOperate Permission = "bus:operate"
	PermBusReset   Permission = "bus:reset"
	PermAuditRead  Permission = "audit:read"
)

// rolePermissions maps each role to its granted permissions.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermBusRead,
	},
	RoleOperator: {
		PermBusRead,
		PermBusOperate,
		PermAuditRead,
	},
	RoleAdmin: {
		PermBusRead,
		PermBusOperate,
		PermBusReset,
		PermAuditRead,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
