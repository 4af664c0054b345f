package domain

import (
	"strings"
	"time"

	"bizzytrack/backend/internal/platform/apperr"
)

// Customer belongs to exactly one business.
type Customer struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Input is the writable part of a customer. Any business_id in a request body is ignored.
type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// Snapshot is the audit representation of a customer.
type Snapshot struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Snapshot returns the audit representation of c.
func (c *Customer) Snapshot() Snapshot {
	return Snapshot{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address, Notes: c.Notes}
}

// Apply copies in onto c after trimming.
func (c *Customer) Apply(in Input) {
	c.Name = strings.TrimSpace(in.Name)
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	c.Phone = strings.TrimSpace(in.Phone)
	c.Address = strings.TrimSpace(in.Address)
	c.Notes = strings.TrimSpace(in.Notes)
}

// Validate returns the first validation failure.
func (c *Customer) Validate() error {
	if c.BusinessID == "" {
		return apperr.Invalid("business_id", "is required")
	}
	if c.Name == "" {
		return apperr.Invalid("name", "is required")
	}
	if len(c.Name) > 200 {
		return apperr.Invalid("name", "must be at most 200 characters")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return apperr.Invalid("email", "invalid format")
	}
	return nil
}
