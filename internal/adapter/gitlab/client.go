// Package gitlab is a placeholder gitprovider.Client for GitLab instances.
// Only repository verification and branch listing work against the REST API
// v4; webhook management and commit statuses return ErrNotSupported until
// the integration is finished.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kanvasboard/kanvas/internal/port/gitprovider"
)

const providerName = "gitlab"

// Client partially implements gitprovider.Client for GitLab's REST API v4.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a GitLab client against the given base URL
// (e.g. https://gitlab.com).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api/v4",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Name() string { return providerName }

// projectPath is GitLab's URL-encoded "owner/repo" project identifier.
func projectPath(owner, repo string) string {
	return url.PathEscape(owner + "/" + repo)
}

func (c *Client) VerifyRepo(ctx context.Context, owner, repo, token string) error {
	return c.get(ctx, "/projects/"+projectPath(owner, repo), token, nil)
}

func (c *Client) ListRepos(ctx context.Context, token string) ([]gitprovider.Repo, error) {
	var projects []struct {
		Path      string `json:"path"`
		Namespace struct {
			Path string `json:"path"`
		} `json:"namespace"`
		Visibility string `json:"visibility"`
	}
	if err := c.get(ctx, "/projects?membership=true&per_page=100", token, &projects); err != nil {
		return nil, err
	}

	repos := make([]gitprovider.Repo, 0, len(projects))
	for _, p := range projects {
		repos = append(repos, gitprovider.Repo{
			Owner:   p.Namespace.Path,
			Name:    p.Path,
			Private: p.Visibility == "private",
		})
	}
	return repos, nil
}

func (c *Client) ListBranches(ctx context.Context, owner, repo, token string) ([]string, error) {
	var branches []struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/projects/"+projectPath(owner, repo)+"/repository/branches", token, &branches); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	return names, nil
}

func (c *Client) CombinedStatus(context.Context, string, string, string, string) ([]gitprovider.CIStatus, error) {
	return nil, fmt.Errorf("gitlab commit statuses: %w", gitprovider.ErrNotSupported)
}

func (c *Client) CreateHook(context.Context, string, string, string, string, string) (int64, error) {
	return 0, fmt.Errorf("gitlab webhook management: %w", gitprovider.ErrNotSupported)
}

func (c *Client) DeleteHook(context.Context, string, string, int64, string) error {
	return fmt.Errorf("gitlab webhook management: %w", gitprovider.ErrNotSupported)
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gitlab request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gitlab request %s: unexpected status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gitlab response: %w", err)
	}
	return nil
}
