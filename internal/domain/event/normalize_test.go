package event

import "testing"

func TestNormalizePush(t *testing.T) {
	payload := []byte(`{
		"ref": "refs/heads/main",
		"head_commit": {
			"id": "abc123",
			"message": "fix login card-9f2a",
			"url": "https://example.com/commit/abc123",
			"author": {"name": "Dev One"}
		},
		"commits": [
			{"id": "zzz", "message": "older", "author": {"name": "Other"}}
		]
	}`)

	ev := Normalize("push", payload)
	if ev.Type != TypePush {
		t.Fatalf("expected push, got %q", ev.Type)
	}
	if ev.Push.SHA != "abc123" {
		t.Errorf("expected head_commit to win, got sha %q", ev.Push.SHA)
	}
	if ev.Push.Branch != "main" {
		t.Errorf("expected branch 'main', got %q", ev.Push.Branch)
	}
	if ev.Push.Author != "Dev One" {
		t.Errorf("expected author 'Dev One', got %q", ev.Push.Author)
	}
}

func TestNormalizePushFallsBackToCommits(t *testing.T) {
	payload := []byte(`{
		"ref": "refs/heads/feature/x",
		"commits": [
			{"id": "first", "message": "m1", "author": {"name": "A"}},
			{"id": "second", "message": "m2", "author": {"name": "B"}}
		]
	}`)

	ev := Normalize("push", payload)
	if ev.Push.SHA != "first" {
		t.Errorf("expected first commit, got %q", ev.Push.SHA)
	}
	if ev.Push.Branch != "feature/x" {
		t.Errorf("expected 'feature/x', got %q", ev.Push.Branch)
	}
}

func TestNormalizePullRequest(t *testing.T) {
	tests := []struct {
		name   string
		action string
		state  string
		merged bool
		want   PRState
	}{
		{"opened", "opened", "open", false, PROpen},
		{"closed unmerged", "closed", "closed", false, PRClosed},
		{"closed merged", "closed", "closed", true, PRMerged},
		{"synchronize", "synchronize", "open", false, PROpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte(`{
				"action": "` + tt.action + `",
				"pull_request": {
					"number": 42,
					"title": "Add widget",
					"body": "see task-77",
					"state": "` + tt.state + `",
					"merged": ` + boolStr(tt.merged) + `,
					"html_url": "https://example.com/pr/42",
					"head": {"ref": "feature/widget", "sha": "deadbeef"},
					"base": {"ref": "main"}
				}
			}`)

			ev := Normalize("pull_request", payload)
			if ev.Type != TypePullRequest {
				t.Fatalf("expected pull_request, got %q", ev.Type)
			}
			if ev.PullRequest.State != tt.want {
				t.Errorf("expected state %q, got %q", tt.want, ev.PullRequest.State)
			}
			if ev.PullRequest.Number != 42 {
				t.Errorf("expected number 42, got %d", ev.PullRequest.Number)
			}
			if ev.PullRequest.HeadSHA != "deadbeef" {
				t.Errorf("expected head sha, got %q", ev.PullRequest.HeadSHA)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	payload := []byte(`{
		"sha": "abc123",
		"state": "success",
		"context": "ci/build",
		"description": "Build passed",
		"target_url": "https://ci.example.com/1"
	}`)

	ev := Normalize("status", payload)
	if ev.Type != TypeStatus {
		t.Fatalf("expected status, got %q", ev.Type)
	}
	if ev.Status.State != CISuccess {
		t.Errorf("expected success, got %q", ev.Status.State)
	}
	if ev.Status.Context != "ci/build" {
		t.Errorf("expected context 'ci/build', got %q", ev.Status.Context)
	}
}

func TestNormalizeStatusUnknownState(t *testing.T) {
	ev := Normalize("status", []byte(`{"sha":"x","state":"weird"}`))
	if ev.Status.State != CIPending {
		t.Errorf("unknown CI state should degrade to pending, got %q", ev.Status.State)
	}
}

func TestNormalizeCreate(t *testing.T) {
	ev := Normalize("create", []byte(`{"ref":"card-12ab-fix","ref_type":"branch"}`))
	if ev.Type != TypeBranchCreate {
		t.Fatalf("expected create, got %q", ev.Type)
	}
	if ev.BranchCreate.Ref != "card-12ab-fix" {
		t.Errorf("expected branch ref, got %q", ev.BranchCreate.Ref)
	}

	tag := Normalize("create", []byte(`{"ref":"v1.0.0","ref_type":"tag"}`))
	if tag.BranchCreate.Ref != "" {
		t.Errorf("tag creation should leave ref empty, got %q", tag.BranchCreate.Ref)
	}
}

func TestNormalizeUnknownEventType(t *testing.T) {
	ev := Normalize("workflow_run", []byte(`{"anything":true}`))
	if ev.Type != TypeUnknown {
		t.Fatalf("expected unknown, got %q", ev.Type)
	}
}

func TestNormalizeMalformedPayload(t *testing.T) {
	ev := Normalize("push", []byte(`{not json`))
	if ev.Type != TypeUnknown {
		t.Fatalf("malformed payload should normalize to unknown, got %q", ev.Type)
	}
}

func TestRepoIdentity(t *testing.T) {
	owner, name, ok := RepoIdentity([]byte(`{"repository":{"name":"repo","owner":{"login":"octo"}}}`))
	if !ok || owner != "octo" || name != "repo" {
		t.Fatalf("got %q/%q ok=%v", owner, name, ok)
	}

	// Push payloads use owner.name.
	owner, name, ok = RepoIdentity([]byte(`{"repository":{"name":"repo","owner":{"name":"octo"}}}`))
	if !ok || owner != "octo" || name != "repo" {
		t.Fatalf("got %q/%q ok=%v", owner, name, ok)
	}

	if _, _, ok := RepoIdentity([]byte(`{"zen":"none"}`)); ok {
		t.Error("expected ok=false for payload without repository")
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
