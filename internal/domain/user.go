package domain

import "time"

// Role enumerates what a user is allowed to do.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleEmployee Role = "employee"
)

// AllRoles returns the closed set of roles.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleAgent, RoleEmployee}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleEmployee:
		return true
	}
	return false
}

// User is anyone who creates, handles or administers requests.
type User struct {
	ID           int64
	FullName     string
	Email        string
	Role         Role
	IsActive     bool
	APIKeyPrefix string
	APIKeyHash   string
	CreatedAt    time.Time
}

// Identity returns the policy view of the user.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Role: u.Role, IsActive: u.IsActive}
}
