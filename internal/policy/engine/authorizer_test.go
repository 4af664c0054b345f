package engine

import (
	"context"
	"errors"
	"testing"
)

func newAuthorizer(t *testing.T) *OPAAuthorizer {
	t.Helper()
	a, err := NewOPAAuthorizer(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAAuthorizer: %v", err)
	}
	return a
}

func TestOPAAuthorizer_HealthCheck(t *testing.T) {
	if err := newAuthorizer(t).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAAuthorizer_DefaultPolicy(t *testing.T) {
	a := newAuthorizer(t)
	testCases := []struct {
		role       string
		permission string
		want       bool
	}{
		{"owner", "business:write", true},
		{"owner", "user:delete", true},
		{"owner", "audit:read", true},
		{"manager", "business:read", true},
		{"manager", "business:write", false},
		{"manager", "business:delete", false},
		{"manager", "user:write", true},
		{"manager", "user:delete", false},
		{"manager", "audit:read", true},
		{"manager", "customer:delete", true},
		{"staff", "customer:read", true},
		{"staff", "customer:write", true},
		{"staff", "customer:delete", false},
		{"staff", "sale:write", true},
		{"staff", "expense:write", true},
		{"staff", "inventory:write", false},
		{"staff", "audit:read", false},
		{"staff", "user:read", false},
		{"staff", "business:read", true},
		{"", "customer:read", false},
		{"superuser", "customer:read", false},
	}
	for _, tc := range testCases {
		t.Run(tc.role+"/"+tc.permission, func(t *testing.T) {
			got, err := a.Allow(context.Background(), tc.role, tc.permission)
			if err != nil {
				t.Fatalf("Allow: %v", err)
			}
			if got != tc.want {
				t.Errorf("Allow(%q, %q) = %v, want %v", tc.role, tc.permission, got, tc.want)
			}
		})
	}
}

func TestOPAAuthorizer_InvalidPermission(t *testing.T) {
	a := newAuthorizer(t)
	for _, p := range []string{"", "customer", "customer:", ":read", "customer:approve", "a:b:c"} {
		ok, err := a.Allow(context.Background(), "owner", p)
		if ok {
			t.Errorf("Allow(owner, %q) = true", p)
		}
		if !errors.Is(err, ErrInvalidPermission) {
			t.Errorf("Allow(owner, %q) err = %v, want ErrInvalidPermission", p, err)
		}
	}
}

func TestNewOPAAuthorizer_CustomPolicy(t *testing.T) {
	policy := `package bizzytrack.authz

default allow := false

allow if input.role == "auditor"
`
	a, err := NewOPAAuthorizer(context.Background(), policy)
	if err != nil {
		t.Fatalf("NewOPAAuthorizer: %v", err)
	}
	ok, err := a.Allow(context.Background(), "auditor", "audit:read")
	if err != nil || !ok {
		t.Errorf("custom policy Allow = %v, %v", ok, err)
	}
}

func TestNewOPAAuthorizer_CompileError(t *testing.T) {
	if _, err := NewOPAAuthorizer(context.Background(), "package broken\n\nallow if {"); err == nil {
		t.Fatal("expected compile error")
	}
}
