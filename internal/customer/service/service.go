// Package service implements customer actions. Every action is scoped to the business of the
// Request Context and recorded in the audit trail after it succeeds.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"bizzytrack/backend/internal/audit"
	"bizzytrack/backend/internal/customer/domain"
	"bizzytrack/backend/internal/customer/repository"
	"bizzytrack/backend/internal/platform/apperr"
	"bizzytrack/backend/internal/platform/rbac"
	"bizzytrack/backend/internal/server/middleware"
)

const resourceType = "customer"

// ErrCustomerNotFound is returned for ids that do not exist in the caller's business.
var ErrCustomerNotFound = apperr.New(apperr.ErrNotFound, "customer not found")

// ListOptions pages and filters a customer listing.
type ListOptions struct {
	Search string
	Limit  int
	Offset int
}

// Service implements customer CRUD.
type Service struct {
	repo  repository.Repository
	audit audit.Recorder
	now   func() time.Time
}

// NewService returns a customer service.
func NewService(repo repository.Repository, recorder audit.Recorder) *Service {
	return &Service{repo: repo, audit: recorder, now: time.Now}
}

func tenant(ctx context.Context) (middleware.RequestContext, error) {
	rc, ok := middleware.FromContext(ctx)
	if !ok {
		return rc, rbac.ErrUnauthenticated
	}
	return rc, nil
}

// Get returns customer id of the caller's business. Ids that are not UUIDs are not found.
func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	rc, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrCustomerNotFound
	}
	c, err := s.repo.GetByID(ctx, rc.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// List returns customers of the caller's business.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*domain.Customer, error) {
	rc, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return s.repo.List(ctx, rc.BusinessID, strings.TrimSpace(opts.Search), opts.Limit, opts.Offset)
}

// Create adds a customer to the caller's business.
func (s *Service) Create(ctx context.Context, in domain.Input) (*domain.Customer, error) {
	rc, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := &domain.Customer{ID: uuid.NewString(), BusinessID: rc.BusinessID, CreatedAt: now, UpdatedAt: now}
	c.Apply(in)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.audit.LogCreate(ctx, resourceType, c.ID, c.Snapshot())
	return c, nil
}

// Update replaces the writable fields of customer id.
func (s *Service) Update(ctx context.Context, id string, in domain.Input) (*domain.Customer, error) {
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c := *old
	c.Apply(in)
	c.UpdatedAt = s.now().UTC()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	s.audit.LogUpdate(ctx, resourceType, c.ID, old.Snapshot(), c.Snapshot())
	return &c, nil
}

// Delete removes customer id.
func (s *Service) Delete(ctx context.Context, id string) error {
	old, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, old.BusinessID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}
	s.audit.LogDelete(ctx, resourceType, id, old.Snapshot())
	return nil
}
