package security

import "time"

// testSecret is the HS256 secret for unit tests only. Do not use in production.
const testSecret = "test-secret-key-minimum-32-characters-long-for-hmac"

// NewTestTokenProvider returns a TokenProvider using the embedded test secret and issuer "test-issuer".
// For unit tests only. Callers must not use in production.
func NewTestTokenProvider() *TokenProvider {
	p, err := NewTokenProvider([]byte(testSecret), "test-issuer", DefaultTokenTTL)
	if err != nil {
		panic(err)
	}
	return p
}

// WithClock returns a copy of p that reads the current time from now. For tests that exercise expiry.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	cp := *p
	cp.now = now
	return &cp
}
