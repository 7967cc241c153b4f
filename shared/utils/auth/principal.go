package utils

// Principal is the authenticated identity attached to the request context
// by the auth middleware. Handlers read it instead of raw token claims.
type Principal struct {
	UserID uint
	Email  string
	Roles  []string
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
