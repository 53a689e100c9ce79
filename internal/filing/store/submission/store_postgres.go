package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"taxfile/internal/filing/models"
	id "taxfile/pkg/domain"
	"taxfile/pkg/platform/sentinel"
	txcontext "taxfile/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists accepted submissions in the submissions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Save inserts sub, joining the caller's transaction when there is one. A
// second submission for the same filing fails with sentinel.ErrConflict.
func (s *PostgresStore) Save(ctx context.Context, sub *models.Submission) error {
	income := sub.Income()
	sources := make([]string, len(income))
	for i, line := range income {
		sources[i] = line.Source
	}
	incomeJSON, err := json.Marshal(income)
	if err != nil {
		return fmt.Errorf("encode income lines: %w", err)
	}

	query := `
		INSERT INTO submissions (
			id, filing_id, filer_id, filer_role, tax_year, income_sources,
			income, total_income, tax_credit_total, fields, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(sub.ID()),
		uuid.UUID(sub.FilingID()),
		uuid.UUID(sub.Filer().ID),
		sub.Filer().Role,
		sub.TaxYear(),
		pq.Array(sources),
		incomeJSON,
		sub.TotalIncome(),
		sub.TaxCreditTotal(),
		[]byte(sub.Fields()),
		sub.CreatedAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	var (
		subID, filingID, filerID uuid.UUID
		role, taxYear            string
		incomeJSON, fields       []byte
		creditTotal              float64
		createdAt                time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filing_id, filer_id, filer_role, tax_year, income,
		       tax_credit_total, fields, created_at
		FROM submissions
		WHERE id = $1
	`, uuid.UUID(submissionID)).Scan(
		&subID, &filingID, &filerID, &role, &taxYear, &incomeJSON,
		&creditTotal, &fields, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find submission: %w", err)
	}

	var income []models.IncomeLine
	if err := json.Unmarshal(incomeJSON, &income); err != nil {
		return nil, fmt.Errorf("decode income lines: %w", err)
	}
	return models.NewSubmission(models.SubmissionParams{
		ID:             id.SubmissionID(subID),
		FilingID:       id.FilingID(filingID),
		Filer:          models.Filer{ID: id.UserID(filerID), Role: role},
		TaxYear:        taxYear,
		Fields:         fields,
		Income:         income,
		TaxCreditTotal: creditTotal,
		CreatedAt:      createdAt,
	})
}
