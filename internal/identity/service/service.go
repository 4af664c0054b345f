// Package service implements tenant registration, login and staff management.
package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bizzytrack/backend/internal/audit"
	businessdomain "bizzytrack/backend/internal/business/domain"
	"bizzytrack/backend/internal/db"
	identityrepo "bizzytrack/backend/internal/identity/repository"
	"bizzytrack/backend/internal/platform/apperr"
	"bizzytrack/backend/internal/platform/rbac"
	"bizzytrack/backend/internal/security"
	"bizzytrack/backend/internal/server/middleware"
	userdomain "bizzytrack/backend/internal/user/domain"
	userrepo "bizzytrack/backend/internal/user/repository"
)

// Sentinel errors; the HTTP layer maps their kinds to status codes.
var (
	ErrEmailAlreadyRegistered = apperr.New(apperr.ErrConflict, "email already registered")
	ErrInvalidCredentials     = apperr.New(apperr.ErrUnauthorized, "invalid email or password")
	ErrUserNotFound           = apperr.New(apperr.ErrNotFound, "user not found")
	ErrBusinessNotFound       = apperr.New(apperr.ErrNotFound, "business not found")
	ErrRoleNotAllowed         = apperr.New(apperr.ErrForbidden, "role not allowed")
)

// Audit actions recorded by this service besides the create wrapper.
const (
	ActionLogin           = "user.login"
	ActionPasswordChanged = "user.password_changed"
)

// BusinessRepo is the minimal business repository needed by the service.
type BusinessRepo interface {
	GetByID(ctx context.Context, id string) (*businessdomain.Business, error)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string                   `json:"token"`
	ExpiresAt time.Time                `json:"expires_at"`
	User      *userdomain.User         `json:"user"`
	Business  *businessdomain.Business `json:"business"`
}

// Profile is the caller's user and business.
type Profile struct {
	User     *userdomain.User         `json:"user"`
	Business *businessdomain.Business `json:"business"`
}

// RegisterInput is the body of a registration.
type RegisterInput struct {
	BusinessName string `json:"business_name"`
	Currency     string `json:"currency"`
	Timezone     string `json:"timezone"`
	OwnerName    string `json:"owner_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// CreateUserInput is the body of a staff creation. The business comes from the Request Context.
type CreateUserInput struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Service implements registration, login and user management.
type Service struct {
	users      userrepo.Repository
	businesses BusinessRepo
	registrar  identityrepo.TenantRegistrar
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	audit      audit.Recorder
	now        func() time.Time

	// dummyHash is compared against on failed lookups so unknown emails cost one bcrypt run too.
	dummyOnce sync.Once
	dummyHash string
}

// NewService returns a Service with the given dependencies.
func NewService(
	users userrepo.Repository,
	businesses BusinessRepo,
	registrar identityrepo.TenantRegistrar,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	recorder audit.Recorder,
) *Service {
	return &Service{
		users:      users,
		businesses: businesses,
		registrar:  registrar,
		hasher:     hasher,
		tokens:     tokens,
		audit:      recorder,
		now:        time.Now,
	}
}

// Register creates a business and its owner in one transaction and returns a session token for the owner.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return nil, apperr.Invalid("timezone", "unknown IANA zone")
		}
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	now := s.now().UTC()
	biz := &businessdomain.Business{
		ID:        uuid.NewString(),
		Name:      in.BusinessName,
		Currency:  in.Currency,
		Timezone:  in.Timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := biz.Validate(); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	owner := &userdomain.User{
		ID:           uuid.NewString(),
		BusinessID:   biz.ID,
		Email:        email,
		FullName:     in.OwnerName,
		Role:         rbac.RoleOwner,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := s.registrar.RegisterTenant(ctx, biz, owner); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	s.audit.LogAction(ctx, audit.Entry{
		BusinessID:   biz.ID,
		UserID:       owner.ID,
		Action:       audit.ActionName("business", audit.VerbCreated),
		ResourceType: "business",
		ResourceID:   biz.ID,
		NewValues:    biz,
	})
	s.audit.LogAction(ctx, audit.Entry{
		BusinessID:   biz.ID,
		UserID:       owner.ID,
		Action:       audit.ActionName("user", audit.VerbCreated),
		ResourceType: "user",
		ResourceID:   owner.ID,
		NewValues:    owner.Snapshot(),
	})
	return s.issue(owner, biz)
}

// Login verifies email and password and returns a session token. Unknown emails, wrong passwords
// and inactive users all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		_, _ = s.hasher.Verify(password, s.fallbackHash())
		return nil, ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok || !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	biz, err := s.businesses.GetByID(ctx, u.BusinessID)
	if err != nil {
		return nil, err
	}
	if biz == nil || biz.Status != businessdomain.BusinessStatusActive {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLoginAt = &now
	s.audit.LogAction(ctx, audit.Entry{
		BusinessID:   u.BusinessID,
		UserID:       u.ID,
		Action:       ActionLogin,
		ResourceType: "user",
		ResourceID:   u.ID,
	})
	return s.issue(u, biz)
}

func (s *Service) fallbackHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *Service) issue(u *userdomain.User, biz *businessdomain.Business) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(security.Claims{
		UserID:     u.ID,
		BusinessID: u.BusinessID,
		Role:       u.Role,
		Email:      u.Email,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: u, Business: biz}, nil
}

// Me returns the caller's user and business.
func (s *Service) Me(ctx context.Context) (*Profile, error) {
	rc, ok := middleware.FromContext(ctx)
	if !ok {
		return nil, rbac.ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, rc.BusinessID, rc.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	biz, err := s.businesses.GetByID(ctx, rc.BusinessID)
	if err != nil {
		return nil, err
	}
	if biz == nil {
		return nil, ErrBusinessNotFound
	}
	return &Profile{User: u, Business: biz}, nil
}

// CreateUser adds a user to the caller's business. Managers may only create staff.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*userdomain.User, error) {
	rc, ok := middleware.FromContext(ctx)
	if !ok {
		return nil, rbac.ErrUnauthenticated
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = rbac.RoleStaff
	}
	if !rbac.ValidRole(role) {
		return nil, apperr.Invalid("role", "must be owner, manager or staff")
	}
	if rc.Role != rbac.RoleOwner && role != rbac.RoleStaff {
		return nil, ErrRoleNotAllowed
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &userdomain.User{
		ID:           uuid.NewString(),
		BusinessID:   rc.BusinessID,
		Email:        email,
		FullName:     in.FullName,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	s.audit.LogCreate(ctx, "user", u.ID, u.Snapshot())
	return u, nil
}

// ListUsers returns the users of the caller's business.
func (s *Service) ListUsers(ctx context.Context) ([]*userdomain.User, error) {
	rc, ok := middleware.FromContext(ctx)
	if !ok {
		return nil, rbac.ErrUnauthenticated
	}
	return s.users.ListByBusiness(ctx, rc.BusinessID)
}

// ChangePassword sets a new password for userID in the caller's business. Users changing their own
// password must supply the current one; changing someone else's requires the owner role.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	rc, ok := middleware.FromContext(ctx)
	if !ok {
		return rbac.ErrUnauthenticated
	}
	self := userID == rc.UserID
	if !self && rc.Role != rbac.RoleOwner {
		return rbac.ErrPermissionDenied
	}
	if _, err := uuid.Parse(userID); err != nil {
		return ErrUserNotFound
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, rc.BusinessID, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if self {
		ok, err := s.hasher.Verify(currentPassword, u.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidCredentials
		}
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, rc.BusinessID, userID, hash, s.now().UTC()); err != nil {
		return err
	}
	s.audit.LogAction(ctx, audit.Entry{
		Action:       ActionPasswordChanged,
		ResourceType: "user",
		ResourceID:   userID,
		Metadata:     map[string]any{"request_id": rc.RequestID, "self_service": self},
	})
	return nil
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return apperr.Invalid("email", "is required")
	}
	if !emailPattern.MatchString(email) {
		return apperr.Invalid("email", "invalid format")
	}
	return nil
}

// validatePassword requires 8 to 72 bytes with a letter and a number.
func validatePassword(password string) error {
	if len(password) < 8 {
		return apperr.Invalid("password", "must be at least 8 characters")
	}
	if len(password) > security.MaxPasswordBytes {
		return apperr.Invalid("password", fmt.Sprintf("must be at most %d bytes", security.MaxPasswordBytes))
	}
	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}
	if !hasLetter {
		return apperr.Invalid("password", "must contain at least one letter")
	}
	if !hasNumber {
		return apperr.Invalid("password", "must contain at least one number")
	}
	return nil
}
