package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *PushRequest) {
	t.Helper()
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestPushAuditJSON(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	c, err := NewClient(srv.URL+"/", nil)
	if err != nil {
		t.Fatal(err)
	}
	raw := []byte(`{"id":"a-1","business_id":"7f1c2a9e-0000-4000-8000-000000000001","action":"customer.created","resource_type":"customer","created_at":"2026-05-01T10:00:00Z"}`)

	if err := c.PushAuditJSON(context.Background(), raw); err != nil {
		t.Fatalf("PushAuditJSON: %v", err)
	}
	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d", len(got.Streams))
	}
	s := got.Streams[0]
	want := map[string]string{
		"job":           "bizzytrack",
		"business_id":   "7f1c2a9e-0000-4000-8000-000000000001",
		"action":        "customer.created",
		"resource_type": "customer",
	}
	for k, v := range want {
		if s.Stream[k] != v {
			t.Errorf("label %s = %q, want %q", k, s.Stream[k], v)
		}
	}
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).UnixNano()
	if s.Values[0][0] != itoa(ts) || s.Values[0][1] != string(raw) {
		t.Errorf("values = %v", s.Values)
	}
}

func TestPushAuditJSON_Unparseable(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	c, _ := NewClient(srv.URL, nil)
	if err := c.PushAuditJSON(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("PushAuditJSON: %v", err)
	}
	if len(got.Streams[0].Stream) != 1 || got.Streams[0].Values[0][1] != "not json" {
		t.Errorf("stream = %+v", got.Streams[0])
	}
}

func TestPush_Non2xx(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadRequest)
	c, _ := NewClient(srv.URL, nil)
	if err := c.Push(context.Background(), time.Now(), "x", nil); err == nil {
		t.Fatal("Push should fail on 400")
	}
}

func TestPush_SanitisesLabels(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	c, _ := NewClient(srv.URL, nil)
	if err := c.Push(context.Background(), time.Now(), "x", map[string]string{"action": "user login!", "empty": " "}); err != nil {
		t.Fatal(err)
	}
	if got.Streams[0].Stream["action"] != "user_login_" {
		t.Errorf("action label = %q", got.Streams[0].Stream["action"])
	}
	if _, ok := got.Streams[0].Stream["empty"]; ok {
		t.Error("empty label should be dropped")
	}
}

func TestNewClient_EmptyURL(t *testing.T) {
	if _, err := NewClient("  ", nil); err == nil {
		t.Fatal("NewClient should reject an empty URL")
	}
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
