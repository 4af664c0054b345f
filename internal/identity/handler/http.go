// Package handler exposes registration, login and user management over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/identity/service"
	"bizzytrack/backend/internal/platform/rbac"
	"bizzytrack/backend/internal/server/respond"
	userdomain "bizzytrack/backend/internal/user/domain"
)

// Service is the identity service used by the handler.
type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Me(ctx context.Context) (*service.Profile, error)
	CreateUser(ctx context.Context, in service.CreateUserInput) (*userdomain.User, error)
	ListUsers(ctx context.Context) ([]*userdomain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// Handler serves /api/auth and /api/users.
type Handler struct {
	svc    Service
	authz  rbac.Authorizer
	logger *zap.Logger
}

// NewHandler returns an identity handler.
func NewHandler(svc Service, authz rbac.Authorizer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, authz: authz, logger: logger}
}

// Public mounts the routes reachable without a token.
func (h *Handler) Public(r chi.Router) {
	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/login", h.login)
}

// Protected mounts the routes that require an authenticated Request Context.
func (h *Handler) Protected(r chi.Router) {
	r.Get("/api/auth/me", h.me)
	r.With(rbac.Require(h.authz, rbac.PermUserRead, h.logger)).Get("/api/users", h.listUsers)
	r.With(rbac.Require(h.authz, rbac.PermUserWrite, h.logger)).Post("/api/users", h.createUser)
	r.Put("/api/users/{id}/password", h.changePassword)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	res, err := h.svc.Register(r.Context(), in)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	res, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Me(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if users == nil {
		users = []*userdomain.User{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	u, err := h.svc.CreateUser(r.Context(), in)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, u)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var in changePasswordRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), chi.URLParam(r, "id"), in.CurrentPassword, in.NewPassword); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
