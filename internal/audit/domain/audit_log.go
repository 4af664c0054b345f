package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is one append-only audit entry. It always belongs to exactly one business.
type AuditLog struct {
	ID           string          `json:"id"`
	BusinessID   string          `json:"business_id"`
	UserID       string          `json:"user_id,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   *string         `json:"resource_id"`
	OldValues    json.RawMessage `json:"old_values"`
	NewValues    json.RawMessage `json:"new_values"`
	IPAddress    string          `json:"ip_address,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Filter narrows a per-business audit listing. Empty fields match everything.
type Filter struct {
	ResourceType string
	ResourceID   string
	Action       string
	UserID       string
	Limit        int
	Offset       int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Normalize clamps Limit to (0, MaxLimit] and Offset to >= 0.
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
