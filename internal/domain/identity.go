// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxDisplayNameLen = 64

var (
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrUnknownRole        = errors.New("unknown role")
)

type UserID string

// Role is the coarse permission class of an identity.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return r, nil
	}
	return "", ErrUnknownRole
}

// Privileged reports whether the role may initiate broadcast actions.
func (r Role) Privileged() bool {
	return r == RoleInstructor || r == RoleAdmin
}

// Identity is the authenticated principal behind a connection.
// Resolved externally; never mutated by the push core.
type Identity struct {
	UserID      UserID `json:"user_id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewIdentity(id UserID, role Role, displayName string) (Identity, error) {
	if len(displayName) == 0 {
		return Identity{}, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return Identity{}, ErrDisplayNameTooLong
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Identity{}, err
	}
	return Identity{UserID: id, Role: role, DisplayName: displayName}, nil
}
