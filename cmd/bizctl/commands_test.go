package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"bizzytrack/backend/internal/security"
)

const testSecret = "bizctl-test-secret-minimum-32-characters"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"bizctl"}, args...))
	return out.String(), err
}

func TestHashThenVerify(t *testing.T) {
	out, err := run(t, "hash", "--password", "s3cretpass", "--cost", "4")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hash := strings.TrimSpace(out)
	if !strings.HasPrefix(hash, "$2a$04$") {
		t.Fatalf("hash = %q, want bcrypt cost 4", hash)
	}

	out, err = run(t, "verify", "--password", "s3cretpass", "--hash", hash)
	if err != nil || strings.TrimSpace(out) != "ok" {
		t.Fatalf("verify = %q, %v", out, err)
	}
	if _, err := run(t, "verify", "--password", "wrong", "--hash", hash); !errors.Is(err, errPasswordMismatch) {
		t.Errorf("verify wrong password: err = %v", err)
	}
	if _, err := run(t, "verify", "--password", "x", "--hash", "not-a-hash"); !errors.Is(err, security.ErrMalformedHash) {
		t.Errorf("verify malformed hash: err = %v", err)
	}
}

func TestTokenIssueThenVerify(t *testing.T) {
	out, err := run(t, "token", "issue",
		"--secret", testSecret, "--issuer", "bizzytrack-api", "--ttl", "1h",
		"--user", "user-9", "--business", "biz-1", "--role", "owner", "--email", "owner@demo.local")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	token := strings.SplitN(out, "\n", 2)[0]

	out, err = run(t, "token", "verify", "--secret", testSecret, "--issuer", "bizzytrack-api", "--ttl", "1h", token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	var claims security.Claims
	if err := json.Unmarshal([]byte(out), &claims); err != nil {
		t.Fatalf("claims output: %v\n%s", err, out)
	}
	if claims.UserID != "user-9" || claims.BusinessID != "biz-1" || claims.Role != "owner" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := run(t, "token", "verify", "--secret", "another-secret-of-sufficient-length", "--issuer", "bizzytrack-api", "--ttl", "1h", token); !errors.Is(err, security.ErrInvalidToken) {
		t.Errorf("verify with wrong secret: err = %v", err)
	}
}

func TestTokenIssue_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_SECRET_FILE", "")
	_, err := run(t, "token", "issue", "--ttl", "1h", "--user", "u", "--business", "b")
	if !errors.Is(err, security.ErrMissingSecret) {
		t.Errorf("err = %v, want ErrMissingSecret", err)
	}
}
