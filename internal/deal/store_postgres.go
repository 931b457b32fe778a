package deal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dealdesk/internal/advisory"
	"dealdesk/internal/intake"
	"dealdesk/internal/routing"
	"dealdesk/internal/rules"
)

// PostgresStore persists deals and overrides in PostgreSQL. Evaluation,
// decision, and advisory payloads are stored as JSONB documents alongside the
// scalar deal columns, so the pure cores stay free of persistence concerns.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the deal tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	deal_type TEXT NOT NULL,
	customer_segment TEXT NOT NULL,
	annual_contract_value DOUBLE PRECISION NOT NULL,
	discount_percentage DOUBLE PRECISION NOT NULL,
	payment_terms_days INTEGER NOT NULL,
	region TEXT NOT NULL,
	custom_security_clause BOOLEAN NOT NULL,
	clause_text TEXT NOT NULL DEFAULT '',
	evaluation_json JSONB,
	decision_json JSONB,
	advisory_json JSONB,
	status TEXT NOT NULL DEFAULT 'validated'
);

CREATE TABLE IF NOT EXISTS overrides (
	id BIGSERIAL PRIMARY KEY,
	deal_id TEXT NOT NULL REFERENCES deals(id),
	override_reason TEXT NOT NULL,
	override_notes TEXT NOT NULL DEFAULT '',
	overridden_by TEXT NOT NULL DEFAULT 'approver',
	created_at TIMESTAMPTZ NOT NULL,
	original_decision_json JSONB NOT NULL
);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure deal schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, deal intake.ValidatedDeal) error {
	query := `
		INSERT INTO deals (id, created_at, deal_type, customer_segment,
			annual_contract_value, discount_percentage, payment_terms_days,
			region, custom_security_clause, clause_text, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		deal.ID, deal.CreatedAt, deal.DealType, deal.CustomerSegment,
		deal.AnnualContractValue, deal.DiscountPercentage, deal.PaymentTermsDays,
		deal.Region, deal.CustomSecurityClause, deal.ClauseText, StatusValidated)
	if err != nil {
		return fmt.Errorf("failed to insert deal: %w", err)
	}
	return nil
}

const dealColumns = `id, created_at, deal_type, customer_segment,
	annual_contract_value, discount_percentage, payment_terms_days,
	region, custom_security_clause, clause_text,
	evaluation_json, decision_json, advisory_json, status`

func (s *PostgresStore) Get(ctx context.Context, dealID string) (*Record, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, dealID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	query := `SELECT ` + dealColumns + ` FROM deals ORDER BY created_at DESC`
	return s.listQuery(ctx, query)
}

func (s *PostgresStore) ListProcessed(ctx context.Context) ([]Record, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE status = $1 ORDER BY created_at DESC`
	return s.listQuery(ctx, query, StatusProcessed)
}

func (s *PostgresStore) listQuery(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deal rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec          Record
		evalJSON     []byte
		decisionJSON []byte
		advisoryJSON []byte
	)
	err := row.Scan(
		&rec.Deal.ID, &rec.Deal.CreatedAt, &rec.Deal.DealType, &rec.Deal.CustomerSegment,
		&rec.Deal.AnnualContractValue, &rec.Deal.DiscountPercentage, &rec.Deal.PaymentTermsDays,
		&rec.Deal.Region, &rec.Deal.CustomSecurityClause, &rec.Deal.ClauseText,
		&evalJSON, &decisionJSON, &advisoryJSON, &rec.Status)
	if err != nil {
		return nil, err
	}

	if len(evalJSON) > 0 {
		rec.Evaluation = &rules.EvaluationResult{}
		if err := json.Unmarshal(evalJSON, rec.Evaluation); err != nil {
			return nil, fmt.Errorf("decode evaluation: %w", err)
		}
	}
	if len(decisionJSON) > 0 {
		rec.Decision = &routing.Decision{}
		if err := json.Unmarshal(decisionJSON, rec.Decision); err != nil {
			return nil, fmt.Errorf("decode decision: %w", err)
		}
	}
	if len(advisoryJSON) > 0 {
		rec.Advisory = &advisory.ClauseAdvisory{}
		if err := json.Unmarshal(advisoryJSON, rec.Advisory); err != nil {
			return nil, fmt.Errorf("decode advisory: %w", err)
		}
	}
	return &rec, nil
}

func (s *PostgresStore) AttachDecision(ctx context.Context, dealID string, evaluation rules.EvaluationResult, decision routing.Decision, adv *advisory.ClauseAdvisory) error {
	evalJSON, err := json.Marshal(evaluation)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	decisionJSON, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	var advisoryJSON []byte
	if adv != nil {
		if advisoryJSON, err = json.Marshal(adv); err != nil {
			return fmt.Errorf("encode advisory: %w", err)
		}
	}

	query := `
		UPDATE deals
		SET evaluation_json = $1, decision_json = $2, advisory_json = $3, status = $4
		WHERE id = $5`

	result, err := s.db.ExecContext(ctx, query, evalJSON, decisionJSON, advisoryJSON, StatusProcessed, dealID)
	if err != nil {
		return fmt.Errorf("failed to attach decision: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check attach result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RecordOverride(ctx context.Context, ov Override) (int64, error) {
	decisionJSON, err := json.Marshal(ov.OriginalDecision)
	if err != nil {
		return 0, fmt.Errorf("encode original decision: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin override transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO overrides (deal_id, override_reason, override_notes,
			overridden_by, created_at, original_decision_json)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		ov.DealID, ov.Reason, ov.Notes, ov.OverriddenBy, ov.CreatedAt, decisionJSON).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert override: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE deals SET status = $1 WHERE id = $2`, StatusOverridden, ov.DealID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark deal overridden: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check override result: %w", err)
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit override: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Overrides(ctx context.Context) ([]Override, error) {
	query := `
		SELECT id, deal_id, override_reason, override_notes, overridden_by,
			created_at, original_decision_json
		FROM overrides ORDER BY created_at DESC, id DESC`
	return s.overrideQuery(ctx, query)
}

func (s *PostgresStore) OverridesForDeal(ctx context.Context, dealID string) ([]Override, error) {
	query := `
		SELECT id, deal_id, override_reason, override_notes, overridden_by,
			created_at, original_decision_json
		FROM overrides WHERE deal_id = $1 ORDER BY created_at DESC, id DESC`
	return s.overrideQuery(ctx, query, dealID)
}

func (s *PostgresStore) overrideQuery(ctx context.Context, query string, args ...any) ([]Override, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	var out []Override
	for rows.Next() {
		var (
			ov           Override
			decisionJSON []byte
		)
		if err := rows.Scan(&ov.ID, &ov.DealID, &ov.Reason, &ov.Notes,
			&ov.OverriddenBy, &ov.CreatedAt, &decisionJSON); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		if err := json.Unmarshal(decisionJSON, &ov.OriginalDecision); err != nil {
			return nil, fmt.Errorf("decode original decision: %w", err)
		}
		out = append(out, ov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate override rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM overrides`); err != nil {
		return fmt.Errorf("failed to delete overrides: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM deals`); err != nil {
		return fmt.Errorf("failed to delete deals: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
