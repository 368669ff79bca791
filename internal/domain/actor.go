package domain

// Actor identifies the authenticated caller of an operation. Services
// perform their own role checks against it.
type Actor struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
