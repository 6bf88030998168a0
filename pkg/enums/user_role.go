package enums

import "fmt"

// UserRole distinguishes landlords from tenants.
type UserRole string

const (
	UserRoleLandlord UserRole = "LANDLORD"
	UserRoleTenant   UserRole = "TENANT"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	return r == UserRoleLandlord || r == UserRoleTenant
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}
