package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/kanvasboard/kanvas/internal/logger"
)

func TestRequestIDGenerated(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("expected generated uuid, got %q: %v", got, err)
	}
	if rec.Header().Get("X-Request-ID") != got {
		t.Errorf("response header %q does not match context id %q", rec.Header().Get("X-Request-ID"), got)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "abc-123" {
		t.Errorf("expected propagated id abc-123, got %q", got)
	}
}

func TestIdentityHeader(t *testing.T) {
	var got string
	h := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Kanvas-User", "alice")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "alice" {
		t.Errorf("expected alice, got %q", got)
	}
}

func TestIdentityDefault(t *testing.T) {
	var got string
	h := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFrom(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != DefaultUser {
		t.Errorf("expected %q, got %q", DefaultUser, got)
	}
}
