package event

import (
	"encoding/json"
	"strings"
)

// Normalize maps a raw GitHub webhook payload into its Event variant.
// It is a pure mapping: no I/O, tolerant of missing optional fields, and
// unrecognized event types come back as TypeUnknown rather than an error.
// Raw provider field names do not leak past this function.
func Normalize(eventType string, payload []byte) Event {
	switch eventType {
	case "push":
		return normalizePush(payload)
	case "pull_request":
		return normalizePullRequest(payload)
	case "status":
		return normalizeStatus(payload)
	case "create":
		return normalizeCreate(payload)
	default:
		return Event{Type: TypeUnknown}
	}
}

// RepoIdentity extracts the repository owner and name from a raw payload
// without normalizing the rest of it. Used for the integration lookup that
// precedes signature verification.
func RepoIdentity(payload []byte) (owner, name string, ok bool) {
	var raw struct {
		Repository struct {
			Name  string `json:"name"`
			Owner struct {
				Login string `json:"login"`
				Name  string `json:"name"`
			} `json:"owner"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return "", "", false
	}
	owner = raw.Repository.Owner.Login
	if owner == "" {
		// Push payloads carry owner.name instead of owner.login.
		owner = raw.Repository.Owner.Name
	}
	if owner == "" || raw.Repository.Name == "" {
		return "", "", false
	}
	return owner, raw.Repository.Name, true
}

func normalizePush(payload []byte) Event {
	var raw struct {
		Ref        string `json:"ref"`
		HeadCommit *struct {
			ID      string `json:"id"`
			Message string `json:"message"`
			URL     string `json:"url"`
			Author  struct {
				Name string `json:"name"`
			} `json:"author"`
		} `json:"head_commit"`
		Commits []struct {
			ID      string `json:"id"`
			Message string `json:"message"`
			URL     string `json:"url"`
			Author  struct {
				Name string `json:"name"`
			} `json:"author"`
		} `json:"commits"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{Type: TypeUnknown}
	}

	p := &Push{Branch: branchFromRef(raw.Ref)}
	switch {
	case raw.HeadCommit != nil:
		p.SHA = raw.HeadCommit.ID
		p.Message = raw.HeadCommit.Message
		p.URL = raw.HeadCommit.URL
		p.Author = raw.HeadCommit.Author.Name
	case len(raw.Commits) > 0:
		p.SHA = raw.Commits[0].ID
		p.Message = raw.Commits[0].Message
		p.URL = raw.Commits[0].URL
		p.Author = raw.Commits[0].Author.Name
	}
	return Event{Type: TypePush, Push: p}
}

func normalizePullRequest(payload []byte) Event {
	var raw struct {
		Action      string `json:"action"`
		PullRequest struct {
			Number  int    `json:"number"`
			Title   string `json:"title"`
			Body    string `json:"body"`
			State   string `json:"state"`
			Merged  bool   `json:"merged"`
			HTMLURL string `json:"html_url"`
			Head    struct {
				Ref string `json:"ref"`
				SHA string `json:"sha"`
			} `json:"head"`
			Base struct {
				Ref string `json:"ref"`
			} `json:"base"`
		} `json:"pull_request"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{Type: TypeUnknown}
	}

	state := PRState(raw.PullRequest.State)
	if raw.Action == "closed" && raw.PullRequest.Merged {
		state = PRMerged
	}
	switch state {
	case PROpen, PRClosed, PRMerged:
	default:
		state = PROpen
	}

	return Event{Type: TypePullRequest, PullRequest: &PullRequest{
		Number:  raw.PullRequest.Number,
		Title:   raw.PullRequest.Title,
		Body:    raw.PullRequest.Body,
		State:   state,
		HeadRef: raw.PullRequest.Head.Ref,
		HeadSHA: raw.PullRequest.Head.SHA,
		BaseRef: raw.PullRequest.Base.Ref,
		URL:     raw.PullRequest.HTMLURL,
	}}
}

func normalizeStatus(payload []byte) Event {
	var raw struct {
		SHA         string `json:"sha"`
		State       string `json:"state"`
		Context     string `json:"context"`
		Description string `json:"description"`
		TargetURL   string `json:"target_url"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{Type: TypeUnknown}
	}

	state := CIState(raw.State)
	switch state {
	case CIPending, CISuccess, CIFailure, CIError, CICancelled:
	default:
		state = CIPending
	}

	return Event{Type: TypeStatus, Status: &Status{
		SHA:         raw.SHA,
		State:       state,
		Context:     raw.Context,
		Description: raw.Description,
		TargetURL:   raw.TargetURL,
	}}
}

func normalizeCreate(payload []byte) Event {
	var raw struct {
		Ref     string `json:"ref"`
		RefType string `json:"ref_type"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{Type: TypeUnknown}
	}

	bc := &BranchCreate{}
	if raw.RefType == "branch" {
		bc.Ref = raw.Ref
	}
	return Event{Type: TypeBranchCreate, BranchCreate: bc}
}

// branchFromRef strips the fixed refs/heads/ prefix from a git ref.
func branchFromRef(ref string) string {
	const prefix = "refs/heads/"
	if strings.HasPrefix(ref, prefix) {
		return ref[len(prefix):]
	}
	return ref
}
