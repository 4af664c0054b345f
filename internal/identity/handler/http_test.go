package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	businessdomain "bizzytrack/backend/internal/business/domain"
	"bizzytrack/backend/internal/identity/service"
	"bizzytrack/backend/internal/platform/rbac"
	"bizzytrack/backend/internal/server/middleware"
	userdomain "bizzytrack/backend/internal/user/domain"
)

type stubService struct {
	registerIn  service.RegisterInput
	loginErr    error
	changedID   string
	changeErr   error
	createdWith service.CreateUserInput
}

func (s *stubService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	s.registerIn = in
	return &service.AuthResult{Token: "tok", ExpiresAt: time.Unix(0, 0).UTC(),
		User: &userdomain.User{ID: "u-1", PasswordHash: "$2a$12$hash"}, Business: &businessdomain.Business{ID: "biz-1"}}, nil
}

func (s *stubService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &service.AuthResult{Token: "tok", User: &userdomain.User{ID: "u-1"}, Business: &businessdomain.Business{ID: "biz-1"}}, nil
}

func (s *stubService) Me(ctx context.Context) (*service.Profile, error) {
	rc, _ := middleware.FromContext(ctx)
	return &service.Profile{User: &userdomain.User{ID: rc.UserID}, Business: &businessdomain.Business{ID: rc.BusinessID}}, nil
}

func (s *stubService) CreateUser(ctx context.Context, in service.CreateUserInput) (*userdomain.User, error) {
	s.createdWith = in
	return &userdomain.User{ID: "u-2", Email: in.Email, Role: "staff"}, nil
}

func (s *stubService) ListUsers(ctx context.Context) ([]*userdomain.User, error) {
	return nil, nil
}

func (s *stubService) ChangePassword(ctx context.Context, userID, current, next string) error {
	s.changedID = userID
	return s.changeErr
}

type roleAuthorizer map[string]bool

func (a roleAuthorizer) Allow(ctx context.Context, role, permission string) (bool, error) {
	return a[role+" "+permission], nil
}

func newRouter(svc Service, rc *middleware.RequestContext) http.Handler {
	h := NewHandler(svc, roleAuthorizer{"owner user:read": true, "owner user:write": true}, nil)
	r := chi.NewRouter()
	h.Public(r)
	r.Group(func(pr chi.Router) {
		pr.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if rc != nil {
					req = req.WithContext(middleware.WithRequestContext(req.Context(), *rc))
				}
				next.ServeHTTP(w, req)
			})
		})
		h.Protected(pr)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegister_Created(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newRouter(svc, nil), http.MethodPost, "/api/auth/register",
		`{"business_name":"Demo Shop","email":"o@demo.local","password":"DemoOwner2026","owner_name":"O"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Demo Shop", svc.registerIn.BusinessName)
	assert.NotContains(t, rec.Body.String(), "$2a$12$hash")
	assert.Contains(t, rec.Body.String(), `"token":"tok"`)
}

func TestRegister_MalformedBody(t *testing.T) {
	rec := do(t, newRouter(&stubService{}, nil), http.MethodPost, "/api/auth/register", `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	rec := do(t, newRouter(&stubService{loginErr: service.ErrInvalidCredentials}, nil), http.MethodPost, "/api/auth/login",
		`{"email":"o@demo.local","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid email or password", body["error"])
}

func TestMe_UsesRequestContext(t *testing.T) {
	rc := &middleware.RequestContext{BusinessID: "biz-7", UserID: "u-7", Role: rbac.RoleStaff}
	rec := do(t, newRouter(&stubService{}, rc), http.MethodGet, "/api/auth/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"biz-7"`)
}

func TestUsers_Permissions(t *testing.T) {
	staff := &middleware.RequestContext{BusinessID: "biz-1", UserID: "u-3", Role: rbac.RoleStaff}
	owner := &middleware.RequestContext{BusinessID: "biz-1", UserID: "u-1", Role: rbac.RoleOwner}

	rec := do(t, newRouter(&stubService{}, staff), http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, newRouter(&stubService{}, nil), http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, newRouter(&stubService{}, owner), http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"users":[]}`, rec.Body.String())

	svc := &stubService{}
	rec = do(t, newRouter(svc, owner), http.MethodPost, "/api/users", `{"email":"s@demo.local","full_name":"S","password":"Staff1234","business_id":"biz-OTHER"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s@demo.local", svc.createdWith.Email)
}

func TestChangePassword(t *testing.T) {
	owner := &middleware.RequestContext{BusinessID: "biz-1", UserID: "u-1", Role: rbac.RoleOwner}
	svc := &stubService{}
	rec := do(t, newRouter(svc, owner), http.MethodPut, "/api/users/u-5/password", `{"new_password":"Another123"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u-5", svc.changedID)

	svc = &stubService{changeErr: rbac.ErrPermissionDenied}
	rec = do(t, newRouter(svc, owner), http.MethodPut, "/api/users/u-5/password", `{"new_password":"Another123"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
