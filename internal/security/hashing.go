package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrHashing is returned when bcrypt fails to produce a hash. Callers treat it as fatal for the request.
	ErrHashing = errors.New("password hashing failed")
	// ErrMalformedHash is returned by Verify when the stored hash is not a valid bcrypt hash.
	ErrMalformedHash = errors.New("malformed password hash")
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// MaxPasswordBytes is the longest password bcrypt accepts. Longer input makes Hash fail with ErrHashing.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Zero or negative
// cost selects DefaultBcryptCost.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a salted bcrypt hash of password suitable for storage.
// Every call yields a different string for the same password.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. The comparison is constant-time.
// A mismatch returns (false, nil); a hash that bcrypt cannot parse returns ErrMalformedHash.
func (h *Hasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}
