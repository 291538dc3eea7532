package auth

// UserRole is the user's role
type UserRole string

const (
	// RoleUser is the default role for registered accounts
	RoleUser UserRole = "user"
	// RoleAdmin can list and manage every account
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role can manage other accounts
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// String returns the role name
func (r UserRole) String() string {
	return string(r)
}

// ParseRole returns the role matching s, or false when s is unknown
func ParseRole(s string) (UserRole, bool) {
	r := UserRole(s)
	return r, r.IsValid()
}
