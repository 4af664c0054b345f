package domain

import (
	"errors"
	"strings"
	"testing"

	"bizzytrack/backend/internal/platform/apperr"
)

func TestCustomerValidate(t *testing.T) {
	testCases := []struct {
		name string
		in   Input
		ok   bool
	}{
		{"name only", Input{Name: "Jane"}, true},
		{"full", Input{Name: "Jane", Email: "Jane@X.io", Phone: "555"}, true},
		{"blank name", Input{Name: "   "}, false},
		{"long name", Input{Name: strings.Repeat("x", 201)}, false},
		{"bad email", Input{Name: "Jane", Email: "jane"}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Customer{BusinessID: "biz-1"}
			c.Apply(tc.in)
			err := c.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tc.ok && !errors.Is(err, apperr.ErrInvalid) {
				t.Fatalf("Validate err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestApplyNormalises(t *testing.T) {
	c := &Customer{}
	c.Apply(Input{Name: " Jane ", Email: " Jane@X.IO "})
	if c.Name != "Jane" || c.Email != "jane@x.io" {
		t.Errorf("Apply = %+v", c)
	}
}
