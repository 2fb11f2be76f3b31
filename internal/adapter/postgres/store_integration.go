package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanvasboard/kanvas/internal/domain"
	"github.com/kanvasboard/kanvas/internal/domain/integration"
)

// IntegrationStore implements store.IntegrationStore on PostgreSQL.
type IntegrationStore struct {
	pool *pgxpool.Pool
}

// NewIntegrationStore creates an IntegrationStore backed by the given pool.
func NewIntegrationStore(pool *pgxpool.Pool) *IntegrationStore {
	return &IntegrationStore{pool: pool}
}

const integrationColumns = `id, board_id, provider, repo_owner, repo_name, webhook_secret,
	access_token, remote_hook_id, branch_rules, auto_create_cards, auto_close_cards,
	created_at, updated_at`

func (s *IntegrationStore) Create(ctx context.Context, integ *integration.Integration) error {
	rules, err := json.Marshal(integ.BranchRules)
	if err != nil {
		return fmt.Errorf("marshal branch rules: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO integrations (id, board_id, provider, repo_owner, repo_name,
		                           webhook_secret, access_token, branch_rules,
		                           auto_create_cards, auto_close_cards)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		integ.ID, integ.BoardID, integ.Provider, integ.RepoOwner, integ.RepoName,
		integ.WebhookSecret, integ.AccessToken, rules,
		integ.AutoCreateCards, integ.AutoCloseCards)
	if err := row.Scan(&integ.CreatedAt, &integ.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("integration for %s/%s/%s already exists: %w",
				integ.Provider, integ.RepoOwner, integ.RepoName, domain.ErrConflict)
		}
		return fmt.Errorf("create integration: %w", err)
	}
	return nil
}

func (s *IntegrationStore) FindByID(ctx context.Context, id string) (*integration.Integration, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+integrationColumns+` FROM integrations WHERE id = $1`, id)

	integ, err := scanIntegration(row)
	if err != nil {
		return nil, notFoundWrap(err, "get integration %s", id)
	}
	return integ, nil
}

func (s *IntegrationStore) FindByRepo(ctx context.Context, provider integration.Provider, owner, name string) (*integration.Integration, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+integrationColumns+`
		 FROM integrations
		 WHERE provider = $1 AND repo_owner = $2 AND repo_name = $3`,
		provider, owner, name)

	integ, err := scanIntegration(row)
	if err != nil {
		return nil, notFoundWrap(err, "find integration for %s/%s/%s", provider, owner, name)
	}
	return integ, nil
}

func (s *IntegrationStore) ListByBoard(ctx context.Context, boardID string) ([]integration.Integration, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+integrationColumns+`
		 FROM integrations WHERE board_id = $1 ORDER BY created_at`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list integrations for board %s: %w", boardID, err)
	}
	defer rows.Close()

	var out []integration.Integration
	for rows.Next() {
		integ, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan integration: %w", err)
		}
		out = append(out, *integ)
	}
	return out, rows.Err()
}

func (s *IntegrationStore) Update(ctx context.Context, integ *integration.Integration) error {
	rules, err := json.Marshal(integ.BranchRules)
	if err != nil {
		return fmt.Errorf("marshal branch rules: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE integrations
		 SET webhook_secret = $2, access_token = $3, remote_hook_id = $4,
		     branch_rules = $5, auto_create_cards = $6, auto_close_cards = $7,
		     updated_at = now()
		 WHERE id = $1`,
		integ.ID, integ.WebhookSecret, integ.AccessToken, integ.RemoteHookID,
		rules, integ.AutoCreateCards, integ.AutoCloseCards)
	return execExpectOne(tag, err, "update integration %s", integ.ID)
}

func (s *IntegrationStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM integrations WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete integration %s", id)
}

func scanIntegration(row scannable) (*integration.Integration, error) {
	var integ integration.Integration
	var rules []byte
	err := row.Scan(&integ.ID, &integ.BoardID, &integ.Provider, &integ.RepoOwner,
		&integ.RepoName, &integ.WebhookSecret, &integ.AccessToken, &integ.RemoteHookID,
		&rules, &integ.AutoCreateCards, &integ.AutoCloseCards,
		&integ.CreatedAt, &integ.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &integ.BranchRules); err != nil {
			return nil, fmt.Errorf("unmarshal branch rules: %w", err)
		}
	}
	return &integ, nil
}
