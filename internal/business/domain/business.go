package domain

import (
	"strings"
	"time"

	"bizzytrack/backend/internal/platform/apperr"
)

// Business is a tenant. Every tenant-owned row carries its ID.
type Business struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Currency  string         `json:"currency"`
	Timezone  string         `json:"timezone"`
	Status    BusinessStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type BusinessStatus string

const (
	BusinessStatusActive    BusinessStatus = "active"
	BusinessStatusSuspended BusinessStatus = "suspended"
)

// Validate validates the business for persistence and fills defaults. Returns the first validation failure.
func (b *Business) Validate() error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return apperr.Invalid("business_name", "is required")
	}
	b.Currency = strings.ToUpper(strings.TrimSpace(b.Currency))
	if b.Currency == "" {
		b.Currency = "USD"
	}
	if len(b.Currency) != 3 {
		return apperr.Invalid("currency", "must be a 3-letter ISO code")
	}
	if b.Timezone == "" {
		b.Timezone = "UTC"
	}
	if b.Status == "" {
		b.Status = BusinessStatusActive
	}
	return nil
}
