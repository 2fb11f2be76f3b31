package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kanvasboard/kanvas/internal/config"
	"github.com/kanvasboard/kanvas/internal/domain"
	"github.com/kanvasboard/kanvas/internal/resilience"
)

func testConfig(url string) config.GitHub {
	return config.GitHub{
		APIBaseURL:         url,
		Timeout:            2 * time.Second,
		StatusCacheTTL:     time.Minute,
		BreakerMaxFailures: 3,
		BreakerCooldown:    time.Minute,
	}
}

func TestCombinedStatus(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/repos/octo/repo/commits/abc123/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state": "success",
			"statuses": []map[string]string{
				{"state": "success", "context": "ci/build", "description": "ok"},
				{"state": "pending", "context": "ci/lint"},
			},
		})
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	statuses, err := c.CombinedStatus(context.Background(), "octo", "repo", "abc123", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].State != "success" || statuses[0].Context != "ci/build" {
		t.Errorf("unexpected first status: %+v", statuses[0])
	}
}

func TestVerifyRepoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	err = c.VerifyRepo(context.Background(), "octo", "gone", "tok")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/octo/repo/hooks" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Events []string `json:"events"`
			Config struct {
				URL    string `json:"url"`
				Secret string `json:"secret"`
			} `json:"config"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Config.URL != "https://kanvas.example.com/api/v1/webhooks/github" {
			t.Errorf("unexpected callback url %q", body.Config.URL)
		}
		if body.Config.Secret == "" {
			t.Error("expected a secret in hook config")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 991}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	id, err := c.CreateHook(context.Background(), "octo", "repo",
		"https://kanvas.example.com/api/v1/webhooks/github", "s3cret", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 991 {
		t.Errorf("expected hook id 991, got %d", id)
	}
}

func TestBreakerOpensOnRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BreakerMaxFailures = 2
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for range 2 {
		if err := c.VerifyRepo(ctx, "o", "r", "t"); err == nil {
			t.Fatal("expected error from 502")
		}
	}

	err = c.VerifyRepo(ctx, "o", "r", "t")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected circuit open, got %v", err)
	}
}

func TestListBranches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"main"},{"name":"develop"}]`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	branches, err := c.ListBranches(context.Background(), "octo", "repo", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(branches) != 2 || branches[0] != "main" {
		t.Errorf("unexpected branches: %v", branches)
	}
}
