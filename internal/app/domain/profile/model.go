// Package profile defines identity-linked profiles, roles, and the
// capability table every data-access decision consults.
package profile

// Role determines a caller's capability set.
type Role string

const (
	// RoleVisitor is the implicit role of an unauthenticated caller. It is
	// never stored.
	RoleVisitor Role = "visitor"
	RoleUser    Role = "user"
	RoleDev     Role = "developer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a storable profile role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDev, RoleAdmin:
		return true
	}
	return false
}

// Profile is the application-side record for one identity-provider subject.
// The subject id and email are owned by the identity provider; only username
// and role are mutable here.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role"`
}

// Identity is the authenticated caller attached to a request. The zero value
// is a visitor.
type Identity struct {
	ID    string
	Email string
	Role  Role
}

// IsVisitor reports whether the identity carries no session.
func (i Identity) IsVisitor() bool {
	return i.ID == "" || i.Role == "" || i.Role == RoleVisitor
}
