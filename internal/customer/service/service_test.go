package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"bizzytrack/backend/internal/audit"
	auditdomain "bizzytrack/backend/internal/audit/domain"
	"bizzytrack/backend/internal/customer/domain"
	"bizzytrack/backend/internal/customer/repository"
	"bizzytrack/backend/internal/platform/apperr"
	"bizzytrack/backend/internal/platform/rbac"
	"bizzytrack/backend/internal/server/middleware"
)

type memCustomerRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Customer
}

func newMemRepo() *memCustomerRepo { return &memCustomerRepo{m: map[string]*domain.Customer{}} }

func (r *memCustomerRepo) GetByID(ctx context.Context, businessID, id string) (*domain.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.m[id]
	if c == nil || c.BusinessID != businessID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCustomerRepo) List(ctx context.Context, businessID, search string, limit, offset int) ([]*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Customer
	for _, c := range r.m {
		if c.BusinessID == businessID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.m[c.ID] = &cp
	return nil
}

func (r *memCustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.m[c.ID]
	if cur == nil || cur.BusinessID != c.BusinessID {
		return repository.ErrNotFound
	}
	cp := *c
	r.m[c.ID] = &cp
	return nil
}

func (r *memCustomerRepo) Delete(ctx context.Context, businessID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.m[id]
	if cur == nil || cur.BusinessID != businessID {
		return repository.ErrNotFound
	}
	delete(r.m, id)
	return nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*auditdomain.AuditLog
	err     error
}

func (r *memAuditRepo) Create(ctx context.Context, a *auditdomain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, a)
	return nil
}

func (r *memAuditRepo) ListByBusiness(ctx context.Context, businessID string, f auditdomain.Filter) ([]*auditdomain.AuditLog, error) {
	return nil, nil
}

func ctxFor(businessID, userID string) context.Context {
	return middleware.WithRequestContext(context.Background(), middleware.RequestContext{
		BusinessID: businessID, UserID: userID, Role: rbac.RoleStaff, IPAddress: "203.0.113.7", UserAgent: "ua",
	})
}

func newService() (*Service, *memCustomerRepo, *memAuditRepo) {
	repo := newMemRepo()
	audits := &memAuditRepo{}
	svc := NewService(repo, audit.NewSyncRecorder(audits))
	svc.now = func() time.Time { return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo, audits
}

func TestCreate_AuditsCustomerCreated(t *testing.T) {
	svc, _, audits := newService()

	c, err := svc.Create(ctxFor("biz-1", "user-9"), domain.Input{Name: " Jane "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.BusinessID != "biz-1" || c.Name != "Jane" {
		t.Errorf("Create = %+v", c)
	}
	if len(audits.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audits.entries))
	}
	e := audits.entries[0]
	if e.Action != "customer.created" || e.BusinessID != "biz-1" || e.UserID != "user-9" {
		t.Errorf("audit = %+v", e)
	}
	if e.ResourceID == nil || *e.ResourceID != c.ID {
		t.Errorf("resource_id = %v, want %s", e.ResourceID, c.ID)
	}
	if string(e.NewValues) != `{"name":"Jane"}` || e.OldValues != nil {
		t.Errorf("payloads = %s / %s", e.OldValues, e.NewValues)
	}
}

func TestCreate_AuditFailureDoesNotFailAction(t *testing.T) {
	svc, repo, audits := newService()
	audits.err = errors.New("audit_logs unavailable")

	c, err := svc.Create(ctxFor("biz-1", "user-9"), domain.Input{Name: "Jane"})
	if err != nil {
		t.Fatalf("Create should succeed despite audit failure: %v", err)
	}
	if _, ok := repo.m[c.ID]; !ok {
		t.Error("customer should be persisted")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, audits := newService()
	if _, err := svc.Create(ctxFor("biz-1", "u"), domain.Input{Name: "  "}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if len(audits.entries) != 0 {
		t.Error("rejected action must not be audited")
	}
}

func TestRequiresRequestContext(t *testing.T) {
	svc, _, _ := newService()
	if _, err := svc.Create(context.Background(), domain.Input{Name: "Jane"}); !errors.Is(err, rbac.ErrUnauthenticated) {
		t.Errorf("Create err = %v", err)
	}
	if _, err := svc.List(context.Background(), ListOptions{}); !errors.Is(err, rbac.ErrUnauthenticated) {
		t.Errorf("List err = %v", err)
	}
}

func TestUpdate_AuditsOldAndNew(t *testing.T) {
	svc, _, audits := newService()
	ctx := ctxFor("biz-1", "user-9")
	c, _ := svc.Create(ctx, domain.Input{Name: "Jane"})

	updated, err := svc.Update(ctx, c.ID, domain.Input{Name: "Jane", Phone: "555"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Phone != "555" {
		t.Errorf("Update = %+v", updated)
	}
	e := audits.entries[1]
	if e.Action != "customer.updated" || string(e.OldValues) != `{"name":"Jane"}` || string(e.NewValues) != `{"name":"Jane","phone":"555"}` {
		t.Errorf("audit = %s %s %s", e.Action, e.OldValues, e.NewValues)
	}
}

func TestDelete_AuditsOldValues(t *testing.T) {
	svc, repo, audits := newService()
	ctx := ctxFor("biz-1", "user-9")
	c, _ := svc.Create(ctx, domain.Input{Name: "Jane"})

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.m) != 0 {
		t.Error("customer should be deleted")
	}
	e := audits.entries[1]
	if e.Action != "customer.deleted" || string(e.OldValues) != `{"name":"Jane"}` || e.NewValues != nil {
		t.Errorf("audit = %s %s %s", e.Action, e.OldValues, e.NewValues)
	}
}

func TestCrossTenantAccessIsNotFound(t *testing.T) {
	svc, repo, audits := newService()
	c, _ := svc.Create(ctxFor("biz-1", "user-9"), domain.Input{Name: "Jane"})
	other := ctxFor("biz-2", "user-1")

	if _, err := svc.Get(other, c.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("Get err = %v, want not found", err)
	}
	if _, err := svc.Update(other, c.ID, domain.Input{Name: "Hijack"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Update err = %v, want not found", err)
	}
	if err := svc.Delete(other, c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Delete err = %v, want not found", err)
	}
	if repo.m[c.ID].Name != "Jane" {
		t.Error("customer of another business was modified")
	}
	if len(audits.entries) != 1 {
		t.Errorf("audit entries = %d, want only the create", len(audits.entries))
	}
	list, _ := svc.List(other, ListOptions{})
	if len(list) != 0 {
		t.Errorf("List in other business = %d customers", len(list))
	}
}

func TestMalformedIDIsNotFound(t *testing.T) {
	svc, _, audits := newService()
	ctx := ctxFor("biz-1", "user-9")
	for _, id := range []string{"abc", "", "1; DROP TABLE customers"} {
		if _, err := svc.Get(ctx, id); !errors.Is(err, ErrCustomerNotFound) {
			t.Errorf("Get(%q) err = %v, want not found", id, err)
		}
		if _, err := svc.Update(ctx, id, domain.Input{Name: "X"}); !errors.Is(err, ErrCustomerNotFound) {
			t.Errorf("Update(%q) err = %v, want not found", id, err)
		}
		if err := svc.Delete(ctx, id); !errors.Is(err, ErrCustomerNotFound) {
			t.Errorf("Delete(%q) err = %v, want not found", id, err)
		}
	}
	if len(audits.entries) != 0 {
		t.Errorf("audit entries = %d, want none", len(audits.entries))
	}
}
