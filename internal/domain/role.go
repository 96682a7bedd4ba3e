package domain

import "fmt"

// Role is the closed set of caller roles the core recognises. Anything outside
// the set is a policy violation at the boundary, never a silent default.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleDoctor, RoleReceptionist:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("role %q: %w", raw, ErrPolicy)
	}
}

func (r Role) String() string { return string(r) }
