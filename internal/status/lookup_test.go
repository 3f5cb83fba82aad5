// internal/status/lookup_test.go
package status

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanflow/internal/cache"
	apperrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func setupTestLookup(t *testing.T) (*Lookup, redismock.ClientMock) {
	client, mock := redismock.NewClientMock()
	store := cache.NewStore(client, cache.DefaultKeyPrefix, time.Hour)
	return NewLookup(store, logger.NewTestLogger(t)), mock
}

// ==========================
// Core Functionality Tests
// ==========================

func TestLookup_Get_ReturnsCachedDecision(t *testing.T) {
	lookup, mock := setupTestLookup(t)

	rec := models.DecisionRecord{
		ApplicantID: "u1",
		Amount:      5000,
		TermMonths:  12,
		Status:      models.StatusApproved,
		DecidedAt:   time.Now().UTC().Truncate(time.Second),
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectGet("app_status:u1").SetVal(string(data))

	got, err := lookup.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ApplicantID)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookup_Get_UnknownApplicantIsNotFound(t *testing.T) {
	lookup, mock := setupTestLookup(t)

	mock.ExpectGet("app_status:never_submitted").RedisNil()

	got, err := lookup.Get(context.Background(), "never_submitted")
	assert.Nil(t, got)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookup_Get_CacheFailureIsReadError(t *testing.T) {
	lookup, mock := setupTestLookup(t)

	mock.ExpectGet("app_status:u1").SetErr(assert.AnError)

	got, err := lookup.Get(context.Background(), "u1")
	assert.Nil(t, got)
	assert.False(t, apperrors.IsNotFound(err))
	assert.Equal(t, apperrors.ErrCodeCacheReadFailed, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
