package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, badly signed, or carries incomplete claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a correctly signed token is past its exp claim.
	ErrExpiredToken = errors.New("token expired")
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")
)

// DefaultTokenTTL is the session token lifetime when none is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims is the session token payload: identity and tenant membership.
type Claims struct {
	UserID     string `json:"user_id"`
	BusinessID string `json:"business_id"`
	Role       string `json:"role"`
	Email      string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenProvider issues and verifies HS256 session tokens with a server-held secret.
// Tokens are stateless: there is no refresh, rotation, or server-side revocation.
type TokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenProvider returns a TokenProvider. ttl <= 0 selects DefaultTokenTTL.
// Returns ErrMissingSecret when secret is empty.
func NewTokenProvider(secret []byte, issuer string, ttl time.Duration) (*TokenProvider, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenProvider{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the configured token lifetime.
func (p *TokenProvider) TTL() time.Duration { return p.ttl }

// Issue signs claims and returns the token and its expiry. Registered claims
// (iat, exp, iss, sub, jti) are set by the provider; caller values are overwritten.
func (p *TokenProvider) Issue(c Claims) (token string, expiresAt time.Time, err error) {
	if p == nil || len(p.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	if c.UserID == "" || c.BusinessID == "" {
		return "", time.Time{}, fmt.Errorf("%w: user_id and business_id are required", ErrInvalidToken)
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.now().UTC()
	expiresAt = now.Add(p.ttl)
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        jti,
		Subject:   c.UserID,
		Issuer:    p.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, err = t.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt.Truncate(time.Second), nil
}

// Verify parses and validates tokenString (signature, alg, exp, iss) and returns its claims.
// Returns ErrExpiredToken for an expired but otherwise valid token and ErrInvalidToken for everything else.
func (p *TokenProvider) Verify(tokenString string) (*Claims, error) {
	if p == nil || len(p.secret) == 0 {
		return nil, ErrMissingSecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.BusinessID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseTTL parses a token lifetime. It accepts Go durations ("12h", "90m") and
// whole days with a "d" suffix ("7d").
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
