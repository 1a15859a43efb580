package user

import "strings"

type Role string

const (
	RoleTenant  Role = "tenant"
	RoleOwner   Role = "owner"
	RoleUnknown Role = ""
)

// NormalizeRole collapses every owner-like and tenant-like label to one
// canonical value. Call it once at the boundary.
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "owner", "unit_owner", "unit-owner", "unitowner", "property_owner", "landlord":
		return RoleOwner
	case "tenant", "renter", "guest", "user":
		return RoleTenant
	default:
		return RoleUnknown
	}
}

func (r Role) Valid() bool { return r == RoleTenant || r == RoleOwner }
