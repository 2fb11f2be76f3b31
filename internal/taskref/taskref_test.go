package taskref

import (
	"strings"
	"testing"

	"github.com/kanvasboard/kanvas/internal/domain/board"
)

func TestParse(t *testing.T) {
	src := Source{Type: "commit", URL: "https://example.com/c/abc", SHA: "abc"}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single ref", "fix login flow card-9f2a", []string{"card-9f2a"}},
		{"multiple refs", "card-9f2a and task-77 done", []string{"card-9f2a", "task-77"}},
		{"pr ref", "follow-up to pr-42", []string{"pr-42"}},
		{"case insensitive", "Fixes CARD-9F2A", []string{"card-9f2a"}},
		{"no refs", "plain message without tokens", nil},
		{"duplicate collapses", "card-1 again card-1", []string{"card-1"}},
		{"not a ref inside word", "discard-9 is not one", nil},
		{"empty text", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := Parse(tt.text, src)
			if len(refs) != len(tt.want) {
				t.Fatalf("expected %d refs, got %d: %+v", len(tt.want), len(refs), refs)
			}
			for i, id := range tt.want {
				if refs[i].CardID != id {
					t.Errorf("ref %d: expected %q, got %q", i, id, refs[i].CardID)
				}
				if refs[i].SHA != "abc" {
					t.Errorf("ref %d: provenance sha not carried", i)
				}
			}
		})
	}
}

func TestParseCapsScannedLength(t *testing.T) {
	// A reference placed beyond the scan cap must not be found.
	text := strings.Repeat("x", maxScanBytes) + " card-late"
	if refs := Parse(text, Source{Type: "commit"}); len(refs) != 0 {
		t.Fatalf("expected no refs past the cap, got %+v", refs)
	}

	// One inside the cap still is.
	text = "card-early " + strings.Repeat("x", maxScanBytes)
	refs := Parse(text, Source{Type: "commit"})
	if len(refs) != 1 || refs[0].CardID != "card-early" {
		t.Fatalf("expected card-early, got %+v", refs)
	}
}

func TestParseCapturesContext(t *testing.T) {
	refs := Parse("this commit resolves card-9f2a for good", Source{Type: "commit"})
	if len(refs) != 1 {
		t.Fatalf("expected 1 ref, got %d", len(refs))
	}
	if !strings.Contains(refs[0].Context, "resolves card-9f2a for good") {
		t.Errorf("context missing surrounding text: %q", refs[0].Context)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		cardID string
		refID  string
		want   bool
	}{
		{"exact", "card-9f2a", "card-9f2a", true},
		{"case fold", "pr-42", "PR-42", true},
		{"prefix is not a match", "card-9f2a", "card-9f", false},
		{"superstring is not a match", "card-9f", "card-9f2a", false},
		{"different id", "card-1", "card-2", false},
		{"empty card id", "", "card-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := board.TaskReference{CardID: strings.ToLower(tt.refID)}
			// Parse lower-cases ids; Matches must still fold the card side.
			ref.CardID = tt.refID
			if got := Matches(tt.cardID, ref); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.cardID, tt.refID, got, tt.want)
			}
		})
	}
}
