package user

import "testing"

func TestNormalizeRole(t *testing.T) {
	cases := map[string]Role{
		"owner":       RoleOwner,
		" Unit_Owner": RoleOwner,
		"landlord":    RoleOwner,
		"tenant":      RoleTenant,
		"RENTER":      RoleTenant,
		"admin":       RoleUnknown,
		"":            RoleUnknown,
	}
	for in, want := range cases {
		if got := NormalizeRole(in); got != want {
			t.Fatalf("NormalizeRole(%q): want=%q got=%q", in, want, got)
		}
	}
	if RoleUnknown.Valid() {
		t.Fatalf("unknown role must not be valid")
	}
}
