// Package integration defines the stored link between a board and an
// external repository, including the webhook secret and sync policy.
package integration

import (
	"fmt"
	"time"

	"github.com/kanvasboard/kanvas/internal/domain"
	"github.com/kanvasboard/kanvas/internal/domain/board"
)

// Provider identifies the Git hosting platform an integration targets.
type Provider string

const (
	ProviderGitHub    Provider = "github"
	ProviderGitLab    Provider = "gitlab"
	ProviderBitbucket Provider = "bitbucket"
)

// Valid reports whether p is a known provider value.
func (p Provider) Valid() bool {
	return p == ProviderGitHub || p == ProviderGitLab || p == ProviderBitbucket
}

// BranchRule maps a git branch name to a target column. Rules are ordered;
// the first rule whose branch matches wins.
type BranchRule struct {
	Branch string       `json:"branch"`
	Column board.Column `json:"column"`
}

// Integration links one board to one external repository.
type Integration struct {
	ID              string       `json:"id"`
	BoardID         string       `json:"board_id"`
	Provider        Provider     `json:"provider"`
	RepoOwner       string       `json:"repo_owner"`
	RepoName        string       `json:"repo_name"`
	WebhookSecret   string       `json:"-"`
	AccessToken     string       `json:"-"`
	RemoteHookID    int64        `json:"remote_hook_id,omitempty"`
	BranchRules     []BranchRule `json:"branch_rules"`
	AutoCreateCards bool         `json:"auto_create_cards"`
	AutoCloseCards  bool         `json:"auto_close_cards"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Repo returns the "owner/name" form of the linked repository.
func (i *Integration) Repo() string {
	return i.RepoOwner + "/" + i.RepoName
}

// ColumnForBranch resolves the target column for a branch via the ordered
// branch rules, falling back to todo when no rule matches.
func (i *Integration) ColumnForBranch(branch string) board.Column {
	for _, rule := range i.BranchRules {
		if rule.Branch == branch {
			return rule.Column
		}
	}
	return board.ColumnTodo
}

// Validate checks the fields a caller must supply when creating an integration.
func (i *Integration) Validate() error {
	if i.BoardID == "" {
		return fmt.Errorf("%w: board_id is required", domain.ErrValidation)
	}
	if !i.Provider.Valid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrValidation, i.Provider)
	}
	if i.RepoOwner == "" || i.RepoName == "" {
		return fmt.Errorf("%w: repo_owner and repo_name are required", domain.ErrValidation)
	}
	for _, rule := range i.BranchRules {
		if rule.Branch == "" {
			return fmt.Errorf("%w: branch rule with empty branch", domain.ErrValidation)
		}
		if !rule.Column.Valid() {
			return fmt.Errorf("%w: branch rule %q targets unknown column %q", domain.ErrValidation, rule.Branch, rule.Column)
		}
	}
	return nil
}
