// internal/intake/service_test.go
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakePublisher struct {
	published []publishedMessage
	err       error
}

type publishedMessage struct {
	key   []byte
	value []byte
}

func (f *fakePublisher) Publish(_ context.Context, key, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedMessage{key: key, value: value})
	return nil
}

func createTestService(t *testing.T, pub *fakePublisher) *Service {
	return NewService(pub, logger.NewTestLogger(t))
}

// ==========================
// Validation Tests
// ==========================

func TestService_Submit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{name: "zero amount", req: SubmitRequest{ApplicantID: "u1", Amount: 0, TermMonths: 12}},
		{name: "negative amount", req: SubmitRequest{ApplicantID: "u1", Amount: -500, TermMonths: 12}},
		{name: "term below minimum", req: SubmitRequest{ApplicantID: "u1", Amount: 5000, TermMonths: 0}},
		{name: "term above maximum", req: SubmitRequest{ApplicantID: "u1", Amount: 5000, TermMonths: 61}},
		{name: "negative term", req: SubmitRequest{ApplicantID: "u1", Amount: 5000, TermMonths: -1}},
		{name: "empty applicant id", req: SubmitRequest{ApplicantID: "", Amount: 5000, TermMonths: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			svc := createTestService(t, pub)

			app, err := svc.Submit(context.Background(), tt.req)

			assert.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeApplicationValidationFailed, apperrors.CodeOf(err))
			assert.Nil(t, app)
			// A rejected submission must leave no trace on the channel.
			assert.Empty(t, pub.published)
		})
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestService_Submit_Success(t *testing.T) {
	pub := &fakePublisher{}
	svc := createTestService(t, pub)

	app, err := svc.Submit(context.Background(), SubmitRequest{
		ApplicantID: "u1",
		Amount:      5000,
		TermMonths:  12,
	})

	require.NoError(t, err)
	require.NotNil(t, app)

	assert.NotEmpty(t, app.ID)
	assert.Equal(t, "u1", app.ApplicantID)
	assert.Equal(t, float64(5000), app.Amount)
	assert.Equal(t, 12, app.TermMonths)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.False(t, app.SubmittedAt.IsZero())

	// Exactly one event appended, keyed by applicant identity.
	require.Len(t, pub.published, 1)
	assert.Equal(t, []byte("u1"), pub.published[0].key)

	var msg models.ApplicationMessage
	require.NoError(t, json.Unmarshal(pub.published[0].value, &msg))
	assert.Equal(t, "u1", msg.ApplicantID)
	assert.Equal(t, float64(5000), msg.Amount)
	assert.Equal(t, 12, msg.TermMonths)
}

func TestService_Submit_DispatchError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker unreachable")}
	svc := createTestService(t, pub)

	app, err := svc.Submit(context.Background(), SubmitRequest{
		ApplicantID: "u1",
		Amount:      5000,
		TermMonths:  12,
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDispatchFailed, apperrors.CodeOf(err))
	assert.Nil(t, app)
}

func TestService_Submit_EachSubmissionIsANewRecord(t *testing.T) {
	pub := &fakePublisher{}
	svc := createTestService(t, pub)

	req := SubmitRequest{ApplicantID: "u1", Amount: 5000, TermMonths: 12}

	first, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	// Publishing is not idempotent: a retried submission is a fresh record.
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, pub.published, 2)
}

func TestService_Submit_TermBoundaries(t *testing.T) {
	pub := &fakePublisher{}
	svc := createTestService(t, pub)

	for _, term := range []int{1, 60} {
		app, err := svc.Submit(context.Background(), SubmitRequest{
			ApplicantID: "u1",
			Amount:      5000,
			TermMonths:  term,
		})
		require.NoError(t, err)
		assert.Equal(t, term, app.TermMonths)
	}
}
