package domain

import (
	"strings"
	"time"

	"bizzytrack/backend/internal/platform/apperr"
)

// User is a member of exactly one business.
type User struct {
	ID           string     `json:"id"`
	BusinessID   string     `json:"business_id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Snapshot is the audit representation of a user. It never carries the password hash.
type Snapshot struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Snapshot returns the audit representation of u.
func (u *User) Snapshot() Snapshot {
	return Snapshot{Email: u.Email, FullName: u.FullName, Role: u.Role, IsActive: u.IsActive}
}

// Validate validates the user for persistence. Returns the first validation failure.
func (u *User) Validate() error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FullName = strings.TrimSpace(u.FullName)
	if u.BusinessID == "" {
		return apperr.Invalid("business_id", "is required")
	}
	if u.Email == "" {
		return apperr.Invalid("email", "is required")
	}
	if u.FullName == "" {
		return apperr.Invalid("full_name", "is required")
	}
	if u.PasswordHash == "" {
		return apperr.Invalid("password", "is required")
	}
	return nil
}
