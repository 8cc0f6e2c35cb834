package dto

import (
	"net/mail"
	"strings"
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

const (
	fullNameMinLen = 2
	fullNameMaxLen = 100
)

// CreateUserRequest payload for POST /users.
type CreateUserRequest struct {
	FullName string       `json:"full_name"`
	Email    string       `json:"email"`
	Role     *domain.Role `json:"role"`
}

// Normalize trims and lower-cases fields.
func (r *CreateUserRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate checks the normalized payload.
func (r CreateUserRequest) Validate() error {
	errs := FieldErrors{}
	if n := runeLen(r.FullName); n < fullNameMinLen {
		errs.add("full_name", "full_name_too_short")
	} else if n > fullNameMaxLen {
		errs.add("full_name", "full_name_too_long")
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		errs.add("email", "must be a valid email address")
	}
	if r.Role != nil && !r.Role.Valid() {
		errs.add("role", "must be one of admin, agent, employee")
	}
	return errs.Err()
}

// UpdateRoleRequest payload for PATCH /users/:id/role.
type UpdateRoleRequest struct {
	Role domain.Role `json:"role"`
}

// Validate checks the role.
func (r UpdateRoleRequest) Validate() error {
	errs := FieldErrors{}
	if !r.Role.Valid() {
		errs.add("role", "must be one of admin, agent, employee")
	}
	return errs.Err()
}

// SetActiveRequest payload for PATCH /users/:id/active.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

// Validate requires the flag to be present.
func (r SetActiveRequest) Validate() error {
	errs := FieldErrors{}
	if r.IsActive == nil {
		errs.add("is_active", "is required")
	}
	return errs.Err()
}

// UserResponse is the public view of a user. Key material is never shown.
type UserResponse struct {
	ID        int64       `json:"id"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUserResponse maps the domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// UserCreatedResponse is returned once, with the plaintext API key.
type UserCreatedResponse struct {
	UserResponse
	APIKey string `json:"api_key"`
}

// TokenResponse standard response for POST /auth/token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
