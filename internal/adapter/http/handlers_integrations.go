package http

import (
	"net/http"

	"github.com/kanvasboard/kanvas/internal/domain/integration"
)

type createIntegrationRequest struct {
	BoardID         string                   `json:"board_id"`
	Provider        string                   `json:"provider"`
	RepoOwner       string                   `json:"repo_owner"`
	RepoName        string                   `json:"repo_name"`
	AccessToken     string                   `json:"access_token"`
	BranchRules     []integration.BranchRule `json:"branch_rules"`
	AutoCreateCards bool                     `json:"auto_create_cards"`
	AutoCloseCards  bool                     `json:"auto_close_cards"`
}

// CreateIntegration handles POST /api/v1/integrations
func (h *Handlers) CreateIntegration(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[createIntegrationRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.AccessToken, "access_token") {
		return
	}

	integ, err := h.Integrations.Create(r.Context(), &integration.Integration{
		BoardID:         req.BoardID,
		Provider:        integration.Provider(req.Provider),
		RepoOwner:       req.RepoOwner,
		RepoName:        req.RepoName,
		AccessToken:     req.AccessToken,
		BranchRules:     req.BranchRules,
		AutoCreateCards: req.AutoCreateCards,
		AutoCloseCards:  req.AutoCloseCards,
	})
	if err != nil {
		writeDomainError(w, err, "board not found")
		return
	}
	writeJSON(w, http.StatusCreated, integ)
}

// ListIntegrations handles GET /api/v1/boards/{id}/integrations
func (h *Handlers) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	integs, err := h.Integrations.ListForBoard(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if integs == nil {
		integs = []integration.Integration{}
	}
	writeJSON(w, http.StatusOK, integs)
}

// GetIntegration handles GET /api/v1/integrations/{id}
func (h *Handlers) GetIntegration(w http.ResponseWriter, r *http.Request) {
	integ, err := h.Integrations.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "integration not found")
		return
	}
	writeJSON(w, http.StatusOK, integ)
}

type updateIntegrationRequest struct {
	BranchRules     []integration.BranchRule `json:"branch_rules"`
	AutoCreateCards bool                     `json:"auto_create_cards"`
	AutoCloseCards  bool                     `json:"auto_close_cards"`
}

// UpdateIntegration handles PUT /api/v1/integrations/{id}
func (h *Handlers) UpdateIntegration(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[updateIntegrationRequest](w, r)
	if !ok {
		return
	}

	integ, err := h.Integrations.UpdateSettings(r.Context(), urlParam(r, "id"),
		req.BranchRules, req.AutoCreateCards, req.AutoCloseCards)
	if err != nil {
		writeDomainError(w, err, "integration not found")
		return
	}
	writeJSON(w, http.StatusOK, integ)
}

// RotateIntegrationSecret handles POST /api/v1/integrations/{id}/rotate-secret
func (h *Handlers) RotateIntegrationSecret(w http.ResponseWriter, r *http.Request) {
	integ, err := h.Integrations.RotateSecret(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "integration not found")
		return
	}
	writeJSON(w, http.StatusOK, integ)
}

// DeleteIntegration handles DELETE /api/v1/integrations/{id}
func (h *Handlers) DeleteIntegration(w http.ResponseWriter, r *http.Request) {
	if err := h.Integrations.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "integration not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
