// internal/storage/applications.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/models"

	"github.com/google/uuid"
)

// ApplicationStore is the durable write-behind target for decision records.
// The worker inserts after the cache write succeeds; status lookup never
// reads this table, so it is an audit trail rather than a fallback path.
type ApplicationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicationStore(db *sql.DB, log logger.Logger) *ApplicationStore {
	return &ApplicationStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "application-store"}),
	}
}

// Insert persists a decided application as a new row. Each decision is an
// independent record; re-processing the same message after a worker restart
// produces an additional row, which the audit trail tolerates.
func (s *ApplicationStore) Insert(ctx context.Context, rec *models.DecisionRecord) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loan_applications (
			id, applicant_id, amount, term_months, status, created_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		rec.ApplicantID,
		rec.Amount,
		rec.TermMonths,
		string(rec.Status),
		now,
		rec.DecidedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertError(fmt.Errorf("insert loan application: %w", err))
	}

	return nil
}
