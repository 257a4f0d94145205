// Package role maps registration codes to account roles.
//
// Codes are plaintext capabilities compared by exact string equality. Whoever
// holds a code can register with the role it issues; the table is not a secret
// exchange and is not treated as one.
package role

import "fmt"

// Role governs feature access.
type Role string

const (
	Developer   Role = "developer"
	MainTeacher Role = "main_teacher"
	Teacher     Role = "teacher"
	VIP         Role = "vip"
	Student     Role = "student"
)

// All lists every role, privileged ones first.
var All = []Role{Developer, MainTeacher, Teacher, VIP, Student}

// Parse converts a role name to a Role.
func Parse(s string) (Role, error) {
	for _, r := range All {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// Privileged reports whether the role is issued by a registration code.
func (r Role) Privileged() bool {
	return r != Student && r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := Parse(string(r))
	return err == nil
}

// CanTeach reports whether the role may link students and view their progress.
func (r Role) CanTeach() bool {
	switch r {
	case Developer, MainTeacher, Teacher:
		return true
	}
	return false
}

// Resolver maps registration codes to roles. It is immutable after construction.
type Resolver struct {
	codes map[string]Role
}

// NewResolver copies codes into a new Resolver.
func NewResolver(codes map[string]Role) *Resolver {
	c := make(map[string]Role, len(codes))
	for code, r := range codes {
		c[code] = r
	}
	return &Resolver{codes: c}
}

// Resolve returns the role issued by code. Unknown and empty codes resolve to Student.
func (r *Resolver) Resolve(code string) Role {
	if code == "" {
		return Student
	}
	if role, ok := r.codes[code]; ok {
		return role
	}
	return Student
}
