package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanvasboard/kanvas/internal/domain/board"
	"github.com/kanvasboard/kanvas/internal/port/store"
)

// BoardStore implements store.BoardStore on PostgreSQL. Every card mutation
// is a single statement scoped to one card (or one sha), relying on row-level
// atomicity instead of read-modify-write of a board snapshot.
type BoardStore struct {
	pool *pgxpool.Pool
}

// NewBoardStore creates a BoardStore backed by the given pool.
func NewBoardStore(pool *pgxpool.Pool) *BoardStore {
	return &BoardStore{pool: pool}
}

func (s *BoardStore) CreateBoard(ctx context.Context, b *board.Board) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO boards (id, owner_id, title)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		b.ID, b.OwnerID, b.Title)
	if err := row.Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("create board: %w", err)
	}
	return nil
}

func (s *BoardStore) GetBoard(ctx context.Context, id string) (*board.Board, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, created_at, updated_at FROM boards WHERE id = $1`, id)

	var b board.Board
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Title, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, notFoundWrap(err, "get board %s", id)
	}
	return &b, nil
}

func (s *BoardStore) ListBoards(ctx context.Context, ownerID string) ([]board.Board, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, title, created_at, updated_at
		 FROM boards WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	var boards []board.Board
	for rows.Next() {
		var b board.Board
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Title, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (s *BoardStore) DeleteBoard(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete board %s", id)
}

func (s *BoardStore) HasAccess(ctx context.Context, boardID, userID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM boards WHERE id = $1 AND owner_id = $2)`,
		boardID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check board access: %w", err)
	}
	return ok, nil
}

func (s *BoardStore) Snapshot(ctx context.Context, boardID string) (*board.Snapshot, error) {
	// Existence check so an empty board is distinguishable from an unknown one.
	if _, err := s.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, list, title, description, metadata, created_at, updated_at
		 FROM cards WHERE board_id = $1 ORDER BY position, created_at`, boardID)
	if err != nil {
		return nil, fmt.Errorf("snapshot board %s: %w", boardID, err)
	}
	defer rows.Close()

	snap := &board.Snapshot{
		BoardID: boardID,
		Lists: map[board.Column][]board.Card{
			board.ColumnTodo:  {},
			board.ColumnDoing: {},
			board.ColumnDone:  {},
		},
	}
	for rows.Next() {
		var c board.Card
		var list board.Column
		if err := scanCard(rows, &c, &list); err != nil {
			return nil, err
		}
		snap.Lists[list] = append(snap.Lists[list], c)
	}
	return snap, rows.Err()
}

func (s *BoardStore) CreateCard(ctx context.Context, boardID string, col board.Column, c *board.Card) error {
	meta, err := json.Marshal(c.Meta)
	if err != nil {
		return fmt.Errorf("marshal card metadata: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO cards (id, board_id, list, position, title, description, metadata)
		 VALUES ($1, $2, $3,
		         COALESCE((SELECT MAX(position) + 1 FROM cards WHERE board_id = $2 AND list = $3), 0),
		         $4, $5, $6)
		 RETURNING created_at, updated_at`,
		c.ID, boardID, col, c.Title, c.Description, meta)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create card %s: %w", c.ID, err)
	}
	return nil
}

func (s *BoardStore) UpdateCard(ctx context.Context, boardID, cardID string, patch store.CardPatch) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards
		 SET title       = COALESCE($3, title),
		     description = COALESCE($4, description),
		     updated_at  = now()
		 WHERE board_id = $1 AND id = $2`,
		boardID, cardID, patch.Title, patch.Description)
	if err != nil {
		return false, fmt.Errorf("update card %s: %w", cardID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *BoardStore) DeleteCard(ctx context.Context, boardID, cardID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM cards WHERE board_id = $1 AND id = $2`, boardID, cardID)
	return execExpectOne(tag, err, "delete card %s", cardID)
}

func (s *BoardStore) MoveCard(ctx context.Context, boardID, cardID string, to board.Column) (bool, error) {
	// Pull-then-push expressed as one conditional update: the list predicate
	// makes re-moving a card to its current list a no-op.
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards
		 SET list       = $3,
		     position   = COALESCE((SELECT MAX(position) + 1 FROM cards WHERE board_id = $1 AND list = $3), 0),
		     updated_at = now()
		 WHERE board_id = $1 AND id = $2 AND list <> $3`,
		boardID, cardID, to)
	if err != nil {
		return false, fmt.Errorf("move card %s to %s: %w", cardID, to, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *BoardStore) AppendReference(ctx context.Context, boardID, cardID string, ref board.TaskReference) (bool, error) {
	entry, err := json.Marshal([]board.TaskReference{ref})
	if err != nil {
		return false, fmt.Errorf("marshal reference: %w", err)
	}

	// Dedup by provenance key: source sha when present, source URL otherwise.
	// The containment guard lives in the WHERE clause, so a redelivered event
	// racing with itself still appends at most once.
	probe, err := dedupProbe(ref)
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE cards
		 SET metadata = jsonb_set(metadata, '{referencedIn}',
		                COALESCE(metadata->'referencedIn', '[]'::jsonb) || $3::jsonb),
		     updated_at = now()
		 WHERE board_id = $1 AND id = $2
		   AND NOT COALESCE(metadata->'referencedIn', '[]'::jsonb) @> $4::jsonb`,
		boardID, cardID, entry, probe)
	if err != nil {
		return false, fmt.Errorf("append reference to card %s: %w", cardID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *BoardStore) SetCardBranch(ctx context.Context, boardID, cardID, branch string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards
		 SET metadata   = jsonb_set(metadata, '{branch}', to_jsonb($3::text)),
		     updated_at = now()
		 WHERE board_id = $1 AND id = $2
		   AND metadata->>'branch' IS DISTINCT FROM $3`,
		boardID, cardID, branch)
	if err != nil {
		return false, fmt.Errorf("set branch on card %s: %w", cardID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *BoardStore) AnnotatePR(ctx context.Context, boardID, cardID, sha, branch string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards
		 SET metadata   = jsonb_set(jsonb_set(metadata, '{sha}', to_jsonb($3::text)), '{branch}', to_jsonb($4::text)),
		     updated_at = now()
		 WHERE board_id = $1 AND id = $2
		   AND (metadata->>'sha' IS DISTINCT FROM $3 OR metadata->>'branch' IS DISTINCT FROM $4)`,
		boardID, cardID, sha, branch)
	if err != nil {
		return false, fmt.Errorf("annotate card %s: %w", cardID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *BoardStore) ApplyCIStatus(ctx context.Context, boardID, sha, status string, moveToDone bool) (int64, error) {
	// Status write and done-move happen in one statement so a reader never
	// observes the intermediate state. The WHERE predicate makes redelivery
	// of an already-applied status a no-op (zero rows, no broadcast).
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards
		 SET metadata = jsonb_set(metadata, '{ciStatus}', to_jsonb($3::text)),
		     list = CASE WHEN $4::boolean AND list <> 'done' THEN 'done' ELSE list END,
		     position = CASE WHEN $4::boolean AND list <> 'done'
		                     THEN COALESCE((SELECT MAX(position) + 1 FROM cards WHERE board_id = $1 AND list = 'done'), 0)
		                     ELSE position END,
		     updated_at = now()
		 WHERE board_id = $1 AND metadata->>'sha' = $2
		   AND (metadata->>'ciStatus' IS DISTINCT FROM $3 OR ($4::boolean AND list <> 'done'))`,
		boardID, sha, status, moveToDone)
	if err != nil {
		return 0, fmt.Errorf("apply ci status for sha %s: %w", sha, err)
	}
	return tag.RowsAffected(), nil
}

func scanCard(row scannable, c *board.Card, list *board.Column) error {
	var meta []byte
	if err := row.Scan(&c.ID, list, &c.Title, &c.Description, &meta, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("scan card: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Meta); err != nil {
			return fmt.Errorf("unmarshal card metadata: %w", err)
		}
	}
	return nil
}

func dedupProbe(ref board.TaskReference) ([]byte, error) {
	// Commit references key on the sha. Pull-request references key on the
	// PR URL: the head sha changes on every synchronize, but it is still the
	// same pull request and must not pile up entries.
	var key map[string]string
	switch {
	case ref.Type == "pull_request" && ref.URL != "":
		key = map[string]string{"source_url": ref.URL}
	case ref.SHA != "":
		key = map[string]string{"source_sha": ref.SHA}
	default:
		key = map[string]string{"source_url": ref.URL}
	}
	probe, err := json.Marshal([]map[string]string{key})
	if err != nil {
		return nil, fmt.Errorf("marshal dedup probe: %w", err)
	}
	return probe, nil
}
