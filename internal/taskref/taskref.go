// Package taskref detects card identifiers inside free text (commit messages,
// pull request titles and bodies, branch names) and matches detected
// references against candidate cards.
package taskref

import (
	"regexp"
	"strings"

	"github.com/kanvasboard/kanvas/internal/domain/board"
)

// maxScanBytes caps how much text is scanned for references. Commit messages
// beyond the cap are ignored past it, keeping the scan O(cap) on hostile input.
const maxScanBytes = 4096

// contextRadius is how many bytes of surrounding text are captured per match.
const contextRadius = 40

// idPattern matches a card-identifying token: a known prefix, a dash, then a
// short lowercase alphanumeric tail. Case-insensitive on input; ids are
// normalized to lower case.
var idPattern = regexp.MustCompile(`(?i)\b(?:card|task|pr)-[a-z0-9][a-z0-9-]{0,30}\b`)

// Source describes where a piece of text came from, for provenance.
type Source struct {
	Type string // "commit" or "pull_request"
	URL  string
	SHA  string
}

// Parse scans text for card references. It returns an empty slice when
// nothing matches and never fails.
func Parse(text string, src Source) []board.TaskReference {
	if len(text) > maxScanBytes {
		text = text[:maxScanBytes]
	}

	matches := idPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]board.TaskReference, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		id := strings.ToLower(text[m[0]:m[1]])
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		refs = append(refs, board.TaskReference{
			CardID:  id,
			Context: surrounding(text, m[0], m[1]),
			Type:    src.Type,
			URL:     src.URL,
			SHA:     src.SHA,
		})
	}
	return refs
}

// Matches reports whether ref identifies the card with the given id. It is
// the single source of truth for reference identity: exact equality,
// case-insensitive, no substring or prefix matching.
func Matches(cardID string, ref board.TaskReference) bool {
	return cardID != "" && strings.EqualFold(cardID, ref.CardID)
}

func surrounding(text string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(text[lo:hi])
}
