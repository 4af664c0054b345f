// Package handler exposes customer CRUD over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/customer/domain"
	"bizzytrack/backend/internal/customer/service"
	"bizzytrack/backend/internal/platform/rbac"
	"bizzytrack/backend/internal/server/respond"
)

// Service is the customer service used by the handler.
type Service interface {
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, opts service.ListOptions) ([]*domain.Customer, error)
	Create(ctx context.Context, in domain.Input) (*domain.Customer, error)
	Update(ctx context.Context, id string, in domain.Input) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
}

// Handler serves /api/customers.
type Handler struct {
	svc    Service
	authz  rbac.Authorizer
	logger *zap.Logger
}

// NewHandler returns a customer handler.
func NewHandler(svc Service, authz rbac.Authorizer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, authz: authz, logger: logger}
}

// Protected mounts the routes; r must already authenticate.
func (h *Handler) Protected(r chi.Router) {
	r.Route("/api/customers", func(r chi.Router) {
		r.With(rbac.Require(h.authz, rbac.PermCustomerRead, h.logger)).Get("/", h.list)
		r.With(rbac.Require(h.authz, rbac.PermCustomerWrite, h.logger)).Post("/", h.create)
		r.With(rbac.Require(h.authz, rbac.PermCustomerRead, h.logger)).Get("/{id}", h.get)
		r.With(rbac.Require(h.authz, rbac.PermCustomerWrite, h.logger)).Put("/{id}", h.update)
		r.With(rbac.Require(h.authz, rbac.PermCustomerDel, h.logger)).Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	customers, err := h.svc.List(r.Context(), service.ListOptions{Search: q.Get("search"), Limit: limit, Offset: offset})
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if customers == nil {
		customers = []*domain.Customer{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.Input
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in domain.Input
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
