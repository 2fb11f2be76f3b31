// Package gitprovider defines the port for talking to a Git hosting platform:
// repository verification, remote webhook management, and CI status lookup.
package gitprovider

import (
	"context"
	"errors"
)

// ErrNotSupported is returned for operations a provider does not implement.
var ErrNotSupported = errors.New("operation not supported by provider")

// CIStatus is one CI context's state for a commit.
type CIStatus struct {
	State       string `json:"state"` // pending|success|failure|error
	Context     string `json:"context"`
	Description string `json:"description,omitempty"`
	TargetURL   string `json:"target_url,omitempty"`
}

// Repo identifies a remote repository.
type Repo struct {
	Owner   string `json:"owner"`
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

// Client is the port interface for a Git hosting provider's API.
// All calls are bounded by the context; implementations apply their own
// request timeout on top.
type Client interface {
	// Name returns the provider identifier (e.g. "github").
	Name() string

	// VerifyRepo confirms the token can see owner/repo.
	VerifyRepo(ctx context.Context, owner, repo, token string) error

	// ListRepos returns repositories visible to the token.
	ListRepos(ctx context.Context, token string) ([]Repo, error)

	// ListBranches returns branch names for owner/repo.
	ListBranches(ctx context.Context, owner, repo, token string) ([]string, error)

	// CombinedStatus returns the CI statuses recorded for a commit.
	CombinedStatus(ctx context.Context, owner, repo, sha, token string) ([]CIStatus, error)

	// CreateHook registers a webhook pointing at callbackURL and returns the
	// remote hook id.
	CreateHook(ctx context.Context, owner, repo, callbackURL, secret, token string) (int64, error)

	// DeleteHook removes a previously registered webhook.
	DeleteHook(ctx context.Context, owner, repo string, hookID int64, token string) error
}
