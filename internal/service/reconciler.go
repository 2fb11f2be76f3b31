// Package service implements the application services: board reconciliation
// from normalized webhook events, integration lifecycle, and the board/chat
// surfaces the HTTP adapter exposes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	kotel "github.com/kanvasboard/kanvas/internal/adapter/otel"
	"github.com/kanvasboard/kanvas/internal/domain/board"
	"github.com/kanvasboard/kanvas/internal/domain/event"
	"github.com/kanvasboard/kanvas/internal/domain/integration"
	"github.com/kanvasboard/kanvas/internal/port/broadcast"
	"github.com/kanvasboard/kanvas/internal/port/gitprovider"
	"github.com/kanvasboard/kanvas/internal/port/store"
	"github.com/kanvasboard/kanvas/internal/taskref"
)

// EventKanbanUpdate is the realtime event name carrying a full board snapshot.
const EventKanbanUpdate = "kanban:update"

// ReconcilerService applies normalized webhook events to board state.
// Mutations go through targeted store operations; a single snapshot
// broadcast follows when at least one of them changed a row.
type ReconcilerService struct {
	boards   store.BoardStore
	provider gitprovider.Client
	sink     broadcast.Broadcaster
	metrics  *kotel.Metrics
}

// NewReconcilerService creates the reconciler. metrics may be nil when
// telemetry is disabled.
func NewReconcilerService(boards store.BoardStore, provider gitprovider.Client, sink broadcast.Broadcaster, metrics *kotel.Metrics) *ReconcilerService {
	return &ReconcilerService{boards: boards, provider: provider, sink: sink, metrics: metrics}
}

// Process applies one normalized event for the given integration. It returns
// whether any board state changed. Store errors abort processing; partial
// mutations already applied stay applied (each is individually idempotent,
// so a redelivery converges).
func (s *ReconcilerService) Process(ctx context.Context, integ *integration.Integration, ev event.Event) (bool, error) {
	ctx, span := kotel.StartReconcileSpan(ctx, integ.BoardID, string(ev.Type))
	defer span.End()
	start := time.Now()

	var (
		changed bool
		err     error
	)
	switch ev.Type {
	case event.TypePush:
		changed, err = s.processPush(ctx, integ, ev.Push)
	case event.TypePullRequest:
		changed, err = s.processPullRequest(ctx, integ, ev.PullRequest)
	case event.TypeStatus:
		changed, err = s.processStatus(ctx, integ, ev.Status)
	case event.TypeBranchCreate:
		changed, err = s.processBranchCreate(ctx, integ, ev.BranchCreate)
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if s.metrics != nil {
		s.metrics.ReconcileDuration.Record(ctx, time.Since(start).Seconds())
	}

	if changed {
		if err := s.broadcastSnapshot(ctx, integ.BoardID); err != nil {
			slog.Warn("snapshot broadcast skipped", "board", integ.BoardID, "error", err)
		}
	}
	return changed, nil
}

// processPush annotates referenced cards with commit provenance, or creates
// a new card from the commit when nothing was referenced and the integration
// allows it.
func (s *ReconcilerService) processPush(ctx context.Context, integ *integration.Integration, p *event.Push) (bool, error) {
	// Branch deletions arrive as push events carrying no commits at all.
	// There is nothing to annotate and nothing worth a card.
	if p.SHA == "" && p.Message == "" {
		return false, nil
	}

	snap, err := s.boards.Snapshot(ctx, integ.BoardID)
	if err != nil {
		return false, err
	}

	refs := taskref.Parse(p.Message, taskref.Source{Type: "commit", URL: p.URL, SHA: p.SHA})

	changed := false
	matched := false
	for _, ref := range refs {
		for _, c := range snap.Cards() {
			if !taskref.Matches(c.ID, ref) {
				continue
			}
			matched = true
			ok, err := s.boards.AppendReference(ctx, integ.BoardID, c.ID, ref)
			if err != nil {
				return changed, err
			}
			changed = changed || ok
		}
	}
	if matched || !integ.AutoCreateCards {
		return changed, nil
	}

	card := &board.Card{
		ID:    "card-" + uuid.NewString()[:8],
		Title: firstLine(p.Message),
		Meta: board.CardMeta{
			SHA:      p.SHA,
			Type:     "commit",
			Branch:   p.Branch,
			URL:      p.URL,
			CIStatus: s.lookupCIStatus(ctx, integ, p.SHA),
			ReferencedIn: []board.TaskReference{{
				CardID:  "",
				Context: firstLine(p.Message),
				Type:    "commit",
				URL:     p.URL,
				SHA:     p.SHA,
			}},
		},
	}
	card.Meta.ReferencedIn[0].CardID = card.ID

	col := integ.ColumnForBranch(p.Branch)
	if err := s.boards.CreateCard(ctx, integ.BoardID, col, card); err != nil {
		return changed, err
	}
	if s.metrics != nil {
		s.metrics.CardsCreated.Add(ctx, 1)
	}
	slog.Info("card created from commit",
		"board", integ.BoardID, "card", card.ID, "sha", p.SHA, "column", col)
	return true, nil
}

// processPullRequest keeps the deterministic pr-<number> card in sync with
// the pull request's state and annotates any other cards its text references.
func (s *ReconcilerService) processPullRequest(ctx context.Context, integ *integration.Integration, pr *event.PullRequest) (bool, error) {
	snap, err := s.boards.Snapshot(ctx, integ.BoardID)
	if err != nil {
		return false, err
	}

	cardID := fmt.Sprintf("pr-%d", pr.Number)
	target := board.ColumnDone
	if pr.State == event.PROpen {
		target = board.ColumnDoing
	}

	changed := false
	if existing, _ := snap.FindCard(cardID); existing != nil {
		ok, err := s.boards.AnnotatePR(ctx, integ.BoardID, cardID, pr.HeadSHA, pr.HeadRef)
		if err != nil {
			return false, err
		}
		changed = changed || ok

		moved, err := s.boards.MoveCard(ctx, integ.BoardID, cardID, target)
		if err != nil {
			return changed, err
		}
		if moved && s.metrics != nil {
			s.metrics.CardsMoved.Add(ctx, 1)
		}
		changed = changed || moved
	} else if integ.AutoCreateCards {
		card := &board.Card{
			ID:          cardID,
			Title:       pr.Title,
			Description: pr.Body,
			Meta: board.CardMeta{
				SHA:    pr.HeadSHA,
				Type:   "pull_request",
				Branch: pr.HeadRef,
				URL:    pr.URL,
			},
		}
		if err := s.boards.CreateCard(ctx, integ.BoardID, target, card); err != nil {
			return changed, err
		}
		if s.metrics != nil {
			s.metrics.CardsCreated.Add(ctx, 1)
		}
		changed = true
	}

	refs := taskref.Parse(pr.Title+"\n"+pr.Body, taskref.Source{Type: "pull_request", URL: pr.URL, SHA: pr.HeadSHA})
	for _, ref := range refs {
		for _, c := range snap.Cards() {
			if c.ID == cardID || !taskref.Matches(c.ID, ref) {
				continue
			}
			ok, err := s.boards.AppendReference(ctx, integ.BoardID, c.ID, ref)
			if err != nil {
				return changed, err
			}
			changed = changed || ok
		}
	}
	return changed, nil
}

// processStatus writes the CI state onto every card tracking the commit.
// A success with AutoCloseCards also moves those cards to done, atomically
// with the status write.
func (s *ReconcilerService) processStatus(ctx context.Context, integ *integration.Integration, st *event.Status) (bool, error) {
	moveToDone := st.State == event.CISuccess && integ.AutoCloseCards
	n, err := s.boards.ApplyCIStatus(ctx, integ.BoardID, st.SHA, string(st.State), moveToDone)
	if err != nil {
		return false, err
	}
	if n > 0 && moveToDone && s.metrics != nil {
		s.metrics.CardsMoved.Add(ctx, n)
	}
	return n > 0, nil
}

// processBranchCreate records the new branch on every card the branch name
// references. No cards are created or moved.
func (s *ReconcilerService) processBranchCreate(ctx context.Context, integ *integration.Integration, bc *event.BranchCreate) (bool, error) {
	if bc.Ref == "" {
		return false, nil
	}

	refs := taskref.Parse(bc.Ref, taskref.Source{Type: "commit"})
	if len(refs) == 0 {
		return false, nil
	}

	snap, err := s.boards.Snapshot(ctx, integ.BoardID)
	if err != nil {
		return false, err
	}

	changed := false
	for _, ref := range refs {
		for _, c := range snap.Cards() {
			if !taskref.Matches(c.ID, ref) {
				continue
			}
			ok, err := s.boards.SetCardBranch(ctx, integ.BoardID, c.ID, bc.Ref)
			if err != nil {
				return changed, err
			}
			changed = changed || ok
		}
	}
	return changed, nil
}

// lookupCIStatus asks the provider for the commit's combined status. Any
// failure degrades to an empty status; card creation never blocks on the
// provider API.
func (s *ReconcilerService) lookupCIStatus(ctx context.Context, integ *integration.Integration, sha string) string {
	statuses, err := s.provider.CombinedStatus(ctx, integ.RepoOwner, integ.RepoName, sha, integ.AccessToken)
	if err != nil {
		slog.Debug("ci status lookup failed", "repo", integ.Repo(), "sha", sha, "error", err)
		return ""
	}
	return overallCIState(statuses)
}

// overallCIState folds per-context statuses into one value: any failure or
// error wins, then pending, then success.
func overallCIState(statuses []gitprovider.CIStatus) string {
	if len(statuses) == 0 {
		return ""
	}
	state := "success"
	for _, st := range statuses {
		switch st.State {
		case "failure", "error":
			return "failure"
		case "pending":
			state = "pending"
		}
	}
	return state
}

func (s *ReconcilerService) broadcastSnapshot(ctx context.Context, boardID string) error {
	snap, err := s.boards.Snapshot(ctx, boardID)
	if err != nil {
		return err
	}
	s.sink.Emit(ctx, boardID, EventKanbanUpdate, snap)
	if s.metrics != nil {
		s.metrics.BroadcastsSent.Add(ctx, 1)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
