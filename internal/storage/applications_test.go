// internal/storage/applications_test.go
package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func setupTestStore(t *testing.T) (*ApplicationStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewApplicationStore(db, logger.NewTestLogger(t)), mock
}

func testRecord() *models.DecisionRecord {
	return &models.DecisionRecord{
		ApplicantID: "u1",
		Amount:      5000,
		TermMonths:  12,
		Status:      models.StatusApproved,
		DecidedAt:   time.Now().UTC(),
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestApplicationStore_Insert_Success(t *testing.T) {
	store, mock := setupTestStore(t)
	rec := testRecord()

	mock.ExpectExec("INSERT INTO loan_applications").
		WithArgs(sqlmock.AnyArg(), rec.ApplicantID, rec.Amount, rec.TermMonths,
			string(rec.Status), sqlmock.AnyArg(), rec.DecidedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Insert(context.Background(), rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationStore_Insert_EachCallIsANewRow(t *testing.T) {
	store, mock := setupTestStore(t)
	rec := testRecord()

	mock.ExpectExec("INSERT INTO loan_applications").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO loan_applications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Insert(context.Background(), rec))
	require.NoError(t, store.Insert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestApplicationStore_Insert_DatabaseError(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectExec("INSERT INTO loan_applications").
		WillReturnError(errors.New("connection refused"))

	err := store.Insert(context.Background(), testRecord())
	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDatabaseInsertFailed, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
