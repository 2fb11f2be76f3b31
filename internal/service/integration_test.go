package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kanvasboard/kanvas/internal/domain"
	"github.com/kanvasboard/kanvas/internal/domain/integration"
	"github.com/kanvasboard/kanvas/internal/port/gitprovider"
)

type fakeIntegrationStore struct {
	byID      map[string]*integration.Integration
	createErr error
}

func newFakeIntegrationStore() *fakeIntegrationStore {
	return &fakeIntegrationStore{byID: map[string]*integration.Integration{}}
}

func (f *fakeIntegrationStore) Create(_ context.Context, integ *integration.Integration) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *integ
	f.byID[integ.ID] = &cp
	return nil
}

func (f *fakeIntegrationStore) FindByID(_ context.Context, id string) (*integration.Integration, error) {
	integ, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: integration %s", domain.ErrNotFound, id)
	}
	cp := *integ
	return &cp, nil
}

func (f *fakeIntegrationStore) FindByRepo(_ context.Context, provider integration.Provider, owner, name string) (*integration.Integration, error) {
	for _, integ := range f.byID {
		if integ.Provider == provider && integ.RepoOwner == owner && integ.RepoName == name {
			cp := *integ
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: no integration for %s/%s", domain.ErrNotFound, owner, name)
}

func (f *fakeIntegrationStore) ListByBoard(_ context.Context, boardID string) ([]integration.Integration, error) {
	var out []integration.Integration
	for _, integ := range f.byID {
		if integ.BoardID == boardID {
			out = append(out, *integ)
		}
	}
	return out, nil
}

func (f *fakeIntegrationStore) Update(_ context.Context, integ *integration.Integration) error {
	if _, ok := f.byID[integ.ID]; !ok {
		return fmt.Errorf("%w: integration %s", domain.ErrNotFound, integ.ID)
	}
	cp := *integ
	f.byID[integ.ID] = &cp
	return nil
}

func (f *fakeIntegrationStore) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

// hookProvider records webhook management calls.
type hookProvider struct {
	verifyErr  error
	createErr  error
	nextHookID int64
	created    []string
	deleted    []int64
}

func (p *hookProvider) Name() string { return "github" }
func (p *hookProvider) VerifyRepo(context.Context, string, string, string) error {
	return p.verifyErr
}
func (p *hookProvider) ListRepos(context.Context, string) ([]gitprovider.Repo, error) {
	return nil, nil
}
func (p *hookProvider) ListBranches(context.Context, string, string, string) ([]string, error) {
	return nil, nil
}
func (p *hookProvider) CombinedStatus(context.Context, string, string, string, string) ([]gitprovider.CIStatus, error) {
	return nil, nil
}
func (p *hookProvider) CreateHook(_ context.Context, _, _, callbackURL, secret, _ string) (int64, error) {
	if p.createErr != nil {
		return 0, p.createErr
	}
	p.nextHookID++
	p.created = append(p.created, callbackURL+"|"+secret)
	return p.nextHookID, nil
}
func (p *hookProvider) DeleteHook(_ context.Context, _, _ string, hookID int64, _ string) error {
	p.deleted = append(p.deleted, hookID)
	return nil
}

func githubProviders(p gitprovider.Client) map[integration.Provider]gitprovider.Client {
	return map[integration.Provider]gitprovider.Client{integration.ProviderGitHub: p}
}

func newIntegrationRequest() *integration.Integration {
	return &integration.Integration{
		BoardID:     "b1",
		Provider:    integration.ProviderGitHub,
		RepoOwner:   "acme",
		RepoName:    "widgets",
		AccessToken: "tok",
	}
}

func TestIntegrationCreate(t *testing.T) {
	is := newFakeIntegrationStore()
	bp := &hookProvider{}
	svc := NewIntegrationService(is, newFakeBoardStore(nil), githubProviders(bp), "https://kanvas.example.com")

	integ, err := svc.Create(context.Background(), newIntegrationRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if integ.ID == "" {
		t.Error("expected generated id")
	}
	if len(integ.WebhookSecret) != 64 {
		t.Errorf("expected 32-byte hex secret, got %d chars", len(integ.WebhookSecret))
	}
	if integ.RemoteHookID != 1 {
		t.Errorf("expected remote hook id 1, got %d", integ.RemoteHookID)
	}
	if len(bp.created) != 1 {
		t.Fatalf("expected one remote hook, got %d", len(bp.created))
	}
	want := "https://kanvas.example.com/api/v1/webhooks/github|" + integ.WebhookSecret
	if bp.created[0] != want {
		t.Errorf("hook registered with %q, want %q", bp.created[0], want)
	}
	if _, err := is.FindByID(context.Background(), integ.ID); err != nil {
		t.Errorf("integration not persisted: %v", err)
	}
}

func TestIntegrationCreateRejectsInvalid(t *testing.T) {
	svc := NewIntegrationService(newFakeIntegrationStore(), newFakeBoardStore(nil), githubProviders(&hookProvider{}), "https://x")

	req := newIntegrationRequest()
	req.RepoOwner = ""
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestIntegrationCreateUnwiredProvider(t *testing.T) {
	bp := &hookProvider{}
	svc := NewIntegrationService(newFakeIntegrationStore(), newFakeBoardStore(nil), githubProviders(bp), "https://x")

	req := newIntegrationRequest()
	req.Provider = integration.ProviderBitbucket
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for provider without a client, got %v", err)
	}
	if len(bp.created) != 0 {
		t.Error("no remote calls must be made for an unsupported provider")
	}
}

func TestIntegrationCreateVerifyFailure(t *testing.T) {
	bp := &hookProvider{verifyErr: errors.New("401 bad credentials")}
	svc := NewIntegrationService(newFakeIntegrationStore(), newFakeBoardStore(nil), githubProviders(bp), "https://x")

	if _, err := svc.Create(context.Background(), newIntegrationRequest()); err == nil {
		t.Fatal("expected verification error")
	}
	if len(bp.created) != 0 {
		t.Error("no hook must be registered when verification fails")
	}
}

func TestIntegrationCreateUndoesHookOnStoreFailure(t *testing.T) {
	is := newFakeIntegrationStore()
	is.createErr = fmt.Errorf("%w: repo already linked", domain.ErrConflict)
	bp := &hookProvider{}
	svc := NewIntegrationService(is, newFakeBoardStore(nil), githubProviders(bp), "https://x")

	if _, err := svc.Create(context.Background(), newIntegrationRequest()); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(bp.deleted) != 1 || bp.deleted[0] != 1 {
		t.Errorf("expected the registered hook to be removed, got %+v", bp.deleted)
	}
}

func TestIntegrationRotateSecret(t *testing.T) {
	is := newFakeIntegrationStore()
	bp := &hookProvider{}
	svc := NewIntegrationService(is, newFakeBoardStore(nil), githubProviders(bp), "https://x")

	integ, err := svc.Create(context.Background(), newIntegrationRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldSecret := integ.WebhookSecret

	rotated, err := svc.RotateSecret(context.Background(), integ.ID)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.WebhookSecret == oldSecret {
		t.Error("secret did not change")
	}
	if rotated.RemoteHookID != 2 {
		t.Errorf("expected new hook id 2, got %d", rotated.RemoteHookID)
	}
	if len(bp.deleted) != 1 || bp.deleted[0] != 1 {
		t.Errorf("old hook should be removed, got %+v", bp.deleted)
	}
}

func TestIntegrationDeleteRemovesRemoteHook(t *testing.T) {
	is := newFakeIntegrationStore()
	bp := &hookProvider{}
	svc := NewIntegrationService(is, newFakeBoardStore(nil), githubProviders(bp), "https://x")

	integ, err := svc.Create(context.Background(), newIntegrationRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), integ.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(bp.deleted) != 1 {
		t.Errorf("expected remote hook removal, got %+v", bp.deleted)
	}
	if _, err := is.FindByID(context.Background(), integ.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected row gone, got %v", err)
	}
}

func TestIntegrationUpdateSettings(t *testing.T) {
	is := newFakeIntegrationStore()
	svc := NewIntegrationService(is, newFakeBoardStore(nil), githubProviders(&hookProvider{}), "https://x")

	integ, err := svc.Create(context.Background(), newIntegrationRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rules := []integration.BranchRule{{Branch: "main", Column: "done"}}
	updated, err := svc.UpdateSettings(context.Background(), integ.ID, rules, true, false)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.AutoCreateCards || updated.AutoCloseCards {
		t.Errorf("toggles not applied: %+v", updated)
	}
	if len(updated.BranchRules) != 1 || updated.BranchRules[0].Branch != "main" {
		t.Errorf("branch rules not applied: %+v", updated.BranchRules)
	}

	if _, err := svc.UpdateSettings(context.Background(), integ.ID,
		[]integration.BranchRule{{Branch: "", Column: "done"}}, true, true); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for empty branch, got %v", err)
	}
}
