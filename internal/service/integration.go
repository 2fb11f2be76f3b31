package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kanvasboard/kanvas/internal/domain"
	"github.com/kanvasboard/kanvas/internal/domain/integration"
	"github.com/kanvasboard/kanvas/internal/port/gitprovider"
	"github.com/kanvasboard/kanvas/internal/port/store"
	"github.com/kanvasboard/kanvas/internal/signature"
)

// IntegrationService manages the board-to-repository links: verification,
// remote webhook registration, secret rotation, and teardown.
type IntegrationService struct {
	integrations store.IntegrationStore
	boards       store.BoardStore
	providers    map[integration.Provider]gitprovider.Client
	publicURL    string
}

// NewIntegrationService creates the service. providers maps each supported
// platform to its API client; publicURL is the externally reachable base URL
// remote webhooks are pointed at.
func NewIntegrationService(integrations store.IntegrationStore, boards store.BoardStore, providers map[integration.Provider]gitprovider.Client, publicURL string) *IntegrationService {
	return &IntegrationService{
		integrations: integrations,
		boards:       boards,
		providers:    providers,
		publicURL:    publicURL,
	}
}

// providerFor resolves the API client for the integration's platform.
func (s *IntegrationService) providerFor(p integration.Provider) (gitprovider.Client, error) {
	client, ok := s.providers[p]
	if !ok {
		return nil, fmt.Errorf("%w: no client for provider %q", domain.ErrValidation, p)
	}
	return client, nil
}

// callbackURL is where the provider delivers webhooks for this integration.
func (s *IntegrationService) callbackURL(integ *integration.Integration) string {
	return fmt.Sprintf("%s/api/v1/webhooks/%s", s.publicURL, integ.Provider)
}

// Create verifies the repository is reachable with the supplied token,
// registers a remote webhook with a fresh secret, and stores the
// integration. The (provider, owner, name) pair is unique; a second link to
// the same repository fails with ErrConflict before any remote call.
func (s *IntegrationService) Create(ctx context.Context, integ *integration.Integration) (*integration.Integration, error) {
	if err := integ.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.boards.GetBoard(ctx, integ.BoardID); err != nil {
		return nil, err
	}
	client, err := s.providerFor(integ.Provider)
	if err != nil {
		return nil, err
	}
	if err := client.VerifyRepo(ctx, integ.RepoOwner, integ.RepoName, integ.AccessToken); err != nil {
		return nil, fmt.Errorf("verify repo %s: %w", integ.Repo(), err)
	}

	secret, err := signature.NewSecret()
	if err != nil {
		return nil, fmt.Errorf("generate webhook secret: %w", err)
	}
	integ.ID = uuid.NewString()
	integ.WebhookSecret = secret

	hookID, err := client.CreateHook(ctx, integ.RepoOwner, integ.RepoName, s.callbackURL(integ), integ.WebhookSecret, integ.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("register webhook on %s: %w", integ.Repo(), err)
	}
	integ.RemoteHookID = hookID

	if err := s.integrations.Create(ctx, integ); err != nil {
		// The remote hook was registered but the row wasn't written. Undo the
		// hook so the repo isn't left delivering to a dead endpoint.
		if derr := client.DeleteHook(ctx, integ.RepoOwner, integ.RepoName, hookID, integ.AccessToken); derr != nil {
			slog.Warn("orphaned remote webhook", "repo", integ.Repo(), "hook_id", hookID, "error", derr)
		}
		return nil, err
	}

	slog.Info("integration created",
		"integration", integ.ID, "board", integ.BoardID, "repo", integ.Repo(), "hook_id", hookID)
	return integ, nil
}

// Get returns one integration by id.
func (s *IntegrationService) Get(ctx context.Context, id string) (*integration.Integration, error) {
	return s.integrations.FindByID(ctx, id)
}

// ListForBoard returns the integrations linked to a board.
func (s *IntegrationService) ListForBoard(ctx context.Context, boardID string) ([]integration.Integration, error) {
	return s.integrations.ListByBoard(ctx, boardID)
}

// UpdateSettings applies new branch rules and sync toggles to an existing
// integration. Repository identity and credentials are immutable here.
func (s *IntegrationService) UpdateSettings(ctx context.Context, id string, rules []integration.BranchRule, autoCreate, autoClose bool) (*integration.Integration, error) {
	integ, err := s.integrations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	integ.BranchRules = rules
	integ.AutoCreateCards = autoCreate
	integ.AutoCloseCards = autoClose
	if err := integ.Validate(); err != nil {
		return nil, err
	}
	if err := s.integrations.Update(ctx, integ); err != nil {
		return nil, err
	}
	return integ, nil
}

// RotateSecret replaces the webhook secret and re-registers the remote hook
// so future deliveries sign with the new value. The old hook is removed
// best-effort after the new one is live.
func (s *IntegrationService) RotateSecret(ctx context.Context, id string) (*integration.Integration, error) {
	integ, err := s.integrations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client, err := s.providerFor(integ.Provider)
	if err != nil {
		return nil, err
	}

	secret, err := signature.NewSecret()
	if err != nil {
		return nil, fmt.Errorf("generate webhook secret: %w", err)
	}
	oldHookID := integ.RemoteHookID
	integ.WebhookSecret = secret

	hookID, err := client.CreateHook(ctx, integ.RepoOwner, integ.RepoName, s.callbackURL(integ), integ.WebhookSecret, integ.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("register webhook on %s: %w", integ.Repo(), err)
	}
	integ.RemoteHookID = hookID

	if err := s.integrations.Update(ctx, integ); err != nil {
		if derr := client.DeleteHook(ctx, integ.RepoOwner, integ.RepoName, hookID, integ.AccessToken); derr != nil {
			slog.Warn("orphaned remote webhook", "repo", integ.Repo(), "hook_id", hookID, "error", derr)
		}
		return nil, err
	}

	if oldHookID != 0 {
		if err := client.DeleteHook(ctx, integ.RepoOwner, integ.RepoName, oldHookID, integ.AccessToken); err != nil {
			slog.Warn("stale remote webhook left behind", "repo", integ.Repo(), "hook_id", oldHookID, "error", err)
		}
	}

	slog.Info("integration secret rotated", "integration", integ.ID, "repo", integ.Repo())
	return integ, nil
}

// SetToken replaces the provider access token after verifying it can see
// the repository.
func (s *IntegrationService) SetToken(ctx context.Context, id, token string) error {
	integ, err := s.integrations.FindByID(ctx, id)
	if err != nil {
		return err
	}
	client, err := s.providerFor(integ.Provider)
	if err != nil {
		return err
	}
	if err := client.VerifyRepo(ctx, integ.RepoOwner, integ.RepoName, token); err != nil {
		return fmt.Errorf("verify repo %s: %w", integ.Repo(), err)
	}
	integ.AccessToken = token
	return s.integrations.Update(ctx, integ)
}

// Delete removes the integration. The remote hook is deleted best-effort;
// the row goes away regardless, so deliveries from a lingering hook fail
// the registry lookup with 404 from then on.
func (s *IntegrationService) Delete(ctx context.Context, id string) error {
	integ, err := s.integrations.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if integ.RemoteHookID != 0 {
		client, cerr := s.providerFor(integ.Provider)
		if cerr != nil {
			slog.Warn("remote webhook removal skipped", "repo", integ.Repo(), "hook_id", integ.RemoteHookID, "error", cerr)
		} else if err := client.DeleteHook(ctx, integ.RepoOwner, integ.RepoName, integ.RemoteHookID, integ.AccessToken); err != nil {
			slog.Warn("remote webhook removal failed", "repo", integ.Repo(), "hook_id", integ.RemoteHookID, "error", err)
		}
	}
	return s.integrations.Delete(ctx, id)
}
