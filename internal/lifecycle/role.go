package lifecycle

import (
	"fmt"
	"strings"
)

// Role identifies which kind of staff member invokes a transition.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleEditor  Role = "editor"
	RoleAdmin   Role = "admin"
)

// Roles returns every known role.
func Roles() []Role {
	return []Role{RoleTeacher, RoleEditor, RoleAdmin}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleEditor, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts user input into a Role.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("lifecycle: unknown role %q", value)
	}
	return role, nil
}

// Actor is the role-tagged identity invoking a transition. The role is
// asserted by the caller; nothing here authenticates it.
type Actor struct {
	Name string `json:"name" yaml:"name"`
	Role Role   `json:"role" yaml:"role"`
}

// Validate ensures the actor carries a name and a known role.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("lifecycle: actor name is required")
	}
	if !a.Role.Valid() {
		return fmt.Errorf("lifecycle: actor %s has unknown role %q", a.Name, a.Role)
	}
	return nil
}

func (a Actor) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Role)
}
