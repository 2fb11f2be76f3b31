package gitlab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kanvasboard/kanvas/internal/port/gitprovider"
)

func TestVerifyRepoEncodesProjectPath(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.VerifyRepo(context.Background(), "acme", "widgets", "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v4/projects/acme%2Fwidgets" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotToken != "tok" {
		t.Errorf("expected PRIVATE-TOKEN header, got %q", gotToken)
	}
}

func TestListBranches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"main"},{"name":"develop"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	branches, err := c.ListBranches(context.Background(), "acme", "widgets", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(branches) != 2 || branches[0] != "main" {
		t.Errorf("unexpected branches: %v", branches)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	c := NewClient("https://gitlab.example.com")

	if _, err := c.CreateHook(context.Background(), "a", "b", "u", "s", "t"); !errors.Is(err, gitprovider.ErrNotSupported) {
		t.Errorf("CreateHook: expected ErrNotSupported, got %v", err)
	}
	if err := c.DeleteHook(context.Background(), "a", "b", 1, "t"); !errors.Is(err, gitprovider.ErrNotSupported) {
		t.Errorf("DeleteHook: expected ErrNotSupported, got %v", err)
	}
	if _, err := c.CombinedStatus(context.Background(), "a", "b", "sha", "t"); !errors.Is(err, gitprovider.ErrNotSupported) {
		t.Errorf("CombinedStatus: expected ErrNotSupported, got %v", err)
	}
}
