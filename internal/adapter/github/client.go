// Package github implements the gitprovider.Client port against the GitHub
// REST API. Outbound calls are bounded by a configurable timeout and guarded
// by a circuit breaker; combined-status lookups are cached briefly so a burst
// of deliveries for one commit does not hammer the API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/kanvasboard/kanvas/internal/config"
	"github.com/kanvasboard/kanvas/internal/domain"
	"github.com/kanvasboard/kanvas/internal/port/gitprovider"
	"github.com/kanvasboard/kanvas/internal/resilience"
)

// Client talks to the GitHub REST API.
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	breaker  *resilience.Breaker
	statuses *ristretto.Cache[string, []gitprovider.CIStatus]
	cacheTTL time.Duration
}

// NewClient creates a GitHub API client from config.
func NewClient(cfg config.GitHub) (*Client, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []gitprovider.CIStatus]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("status cache: %w", err)
	}

	return &Client{
		baseURL:  cfg.APIBaseURL,
		timeout:  cfg.Timeout,
		http:     &http.Client{Timeout: cfg.Timeout},
		breaker:  resilience.NewBreaker(cfg.BreakerMaxFailures, cfg.BreakerCooldown),
		statuses: cache,
		cacheTTL: cfg.StatusCacheTTL,
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "github" }

// VerifyRepo confirms the token can see owner/repo.
func (c *Client) VerifyRepo(ctx context.Context, owner, repo, token string) error {
	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	return c.do(ctx, http.MethodGet, path, token, nil, nil)
}

// ListRepos returns repositories visible to the token.
func (c *Client) ListRepos(ctx context.Context, token string) ([]gitprovider.Repo, error) {
	var raw []struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
		Private bool `json:"private"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/repos?per_page=100&sort=updated", token, nil, &raw); err != nil {
		return nil, err
	}

	repos := make([]gitprovider.Repo, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, gitprovider.Repo{Owner: r.Owner.Login, Name: r.Name, Private: r.Private})
	}
	return repos, nil
}

// ListBranches returns branch names for owner/repo.
func (c *Client) ListBranches(ctx context.Context, owner, repo, token string) ([]string, error) {
	var raw []struct {
		Name string `json:"name"`
	}
	path := fmt.Sprintf("/repos/%s/%s/branches?per_page=100", owner, repo)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(raw))
	for _, b := range raw {
		names = append(names, b.Name)
	}
	return names, nil
}

// CombinedStatus returns the CI statuses recorded for a commit.
func (c *Client) CombinedStatus(ctx context.Context, owner, repo, sha, token string) ([]gitprovider.CIStatus, error) {
	key := owner + "/" + repo + "@" + sha
	if cached, ok := c.statuses.Get(key); ok {
		return cached, nil
	}

	var raw struct {
		Statuses []struct {
			State       string `json:"state"`
			Context     string `json:"context"`
			Description string `json:"description"`
			TargetURL   string `json:"target_url"`
		} `json:"statuses"`
	}
	path := fmt.Sprintf("/repos/%s/%s/commits/%s/status", owner, repo, sha)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}

	statuses := make([]gitprovider.CIStatus, 0, len(raw.Statuses))
	for _, s := range raw.Statuses {
		statuses = append(statuses, gitprovider.CIStatus{
			State:       s.State,
			Context:     s.Context,
			Description: s.Description,
			TargetURL:   s.TargetURL,
		})
	}

	c.statuses.SetWithTTL(key, statuses, 1, c.cacheTTL)
	return statuses, nil
}

// CreateHook registers a webhook and returns the remote hook id.
func (c *Client) CreateHook(ctx context.Context, owner, repo, callbackURL, secret, token string) (int64, error) {
	body := map[string]any{
		"name":   "web",
		"active": true,
		"events": []string{"push", "pull_request", "status", "create"},
		"config": map[string]string{
			"url":          callbackURL,
			"content_type": "json",
			"secret":       secret,
		},
	}

	var created struct {
		ID int64 `json:"id"`
	}
	path := fmt.Sprintf("/repos/%s/%s/hooks", owner, repo)
	if err := c.do(ctx, http.MethodPost, path, token, body, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// DeleteHook removes a previously registered webhook.
func (c *Client) DeleteHook(ctx context.Context, owner, repo string, hookID int64, token string) error {
	path := fmt.Sprintf("/repos/%s/%s/hooks/%d", owner, repo, hookID)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil)
}

// do performs one API round-trip through the breaker, JSON-encoding the
// request body and decoding the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var reqBody io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("marshal request: %w", err)
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("github %s %s: %w", method, path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("github %s %s: %w", method, path, domain.ErrNotFound)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("github %s %s: status %d: %s", method, path, resp.StatusCode, snippet)
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode github response: %w", err)
			}
		}
		return nil
	})
}
