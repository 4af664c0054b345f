// Package middleware builds the per-request Request Context and provides the HTTP middleware chain.
package middleware

import "context"

type contextKey struct{ name string }

var requestContextKey = contextKey{"request_context"}

// RequestContext is the verified identity, tenant and transport metadata of one request.
// It is built once by Authenticate and is the only source of the business id for tenant scoping.
type RequestContext struct {
	BusinessID string
	UserID     string
	Role       string
	Email      string
	IPAddress  string
	UserAgent  string
	RequestID  string
}

// WithRequestContext returns a copy of ctx carrying rc.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// FromContext returns the RequestContext from ctx and true if set; otherwise a zero value and false.
func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey).(RequestContext)
	if !ok || rc.BusinessID == "" {
		return RequestContext{}, false
	}
	return rc, true
}

var clientInfoKey = contextKey{"client_info"}

// ClientInfo is the transport metadata of a request, available before authentication.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// WithClientInfo returns a copy of ctx carrying ci.
func WithClientInfo(ctx context.Context, ci ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey, ci)
}

// ClientInfoFromContext returns the transport metadata of the request, or the metadata held by
// its RequestContext.
func ClientInfoFromContext(ctx context.Context) (ClientInfo, bool) {
	if ci, ok := ctx.Value(clientInfoKey).(ClientInfo); ok {
		return ci, true
	}
	if rc, ok := FromContext(ctx); ok {
		return ClientInfo{IPAddress: rc.IPAddress, UserAgent: rc.UserAgent, RequestID: rc.RequestID}, true
	}
	return ClientInfo{}, false
}
