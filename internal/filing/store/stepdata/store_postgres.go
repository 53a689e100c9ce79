package stepdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/ports"
	id "taxfile/pkg/domain"
	"taxfile/pkg/platform/sentinel"
	"taxfile/pkg/requestcontext"
)

// PostgresStore persists step data in the filing_steps table, one JSONB row
// per filing and step.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetStep(ctx context.Context, filingID id.FilingID, step models.StepID) (ports.StepData, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM filing_steps WHERE filing_id = $1 AND step = $2`,
		uuid.UUID(filingID), int(step),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.StepData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get step data: %w", err)
	}
	return decode(payload)
}

// SaveStep upserts the step's data. The upsert only touches rows owned by
// owner, so a save against someone else's filing affects nothing and reports
// sentinel.ErrConflict.
func (s *PostgresStore) SaveStep(ctx context.Context, filingID id.FilingID, owner id.UserID, step models.StepID, data ports.StepData) error {
	if !step.Valid() {
		return fmt.Errorf("save step %d: invalid step", step)
	}
	payload, err := encode(data)
	if err != nil {
		return err
	}
	existing, found, err := s.Owner(ctx, filingID)
	if err != nil {
		return err
	}
	if found && existing != owner {
		return sentinel.ErrConflict
	}
	query := `
		INSERT INTO filing_steps (filing_id, step, owner_id, data, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (filing_id, step) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
		WHERE filing_steps.owner_id = EXCLUDED.owner_id
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(filingID),
		int(step),
		uuid.UUID(owner),
		payload,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("save step data: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Owner(ctx context.Context, filingID id.FilingID) (id.UserID, bool, error) {
	var owner uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_id FROM filing_steps WHERE filing_id = $1 LIMIT 1`,
		uuid.UUID(filingID),
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return id.UserID{}, false, nil
	}
	if err != nil {
		return id.UserID{}, false, fmt.Errorf("find filing owner: %w", err)
	}
	return id.UserID(owner), true, nil
}
