package middleware

import (
	"context"
	"testing"
)

func TestRequestContext_RoundTrip(t *testing.T) {
	rc := RequestContext{BusinessID: "biz-1", UserID: "user-9", Role: "owner", IPAddress: "10.0.0.1", UserAgent: "curl/8"}
	got, ok := FromContext(WithRequestContext(context.Background(), rc))
	if !ok {
		t.Fatal("FromContext: not found")
	}
	if got != rc {
		t.Errorf("FromContext = %+v, want %+v", got, rc)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext on empty context should report false")
	}
	// A context without a tenant is not a usable Request Context.
	if _, ok := FromContext(WithRequestContext(context.Background(), RequestContext{UserID: "u"})); ok {
		t.Error("FromContext without business id should report false")
	}
}

func TestClientInfoFromContext(t *testing.T) {
	ctx := WithClientInfo(context.Background(), ClientInfo{IPAddress: "1.2.3.4", UserAgent: "ua"})
	ci, ok := ClientInfoFromContext(ctx)
	if !ok || ci.IPAddress != "1.2.3.4" || ci.UserAgent != "ua" {
		t.Errorf("ClientInfoFromContext = %+v, %v", ci, ok)
	}

	ctx = WithRequestContext(context.Background(), RequestContext{BusinessID: "b", IPAddress: "5.6.7.8"})
	ci, ok = ClientInfoFromContext(ctx)
	if !ok || ci.IPAddress != "5.6.7.8" {
		t.Errorf("ClientInfoFromContext via RequestContext = %+v, %v", ci, ok)
	}

	if _, ok := ClientInfoFromContext(context.Background()); ok {
		t.Error("ClientInfoFromContext on empty context should report false")
	}
}
