// internal/intake/service.go
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/common/metrics"
	"loanflow/internal/models"

	"github.com/google/uuid"
)

const (
	minTermMonths = 1
	maxTermMonths = 60
)

// Publisher is the channel-append side of the message channel. A nil error
// means the event was durably appended and acknowledged.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// SubmitRequest carries the caller-supplied fields of a new application.
type SubmitRequest struct {
	ApplicantID string  `json:"applicantId"`
	Amount      float64 `json:"amount"`
	TermMonths  int     `json:"termMonths"`
}

// Service accepts new loan applications, validates them and hands them to
// the asynchronous pipeline. It never waits for a decision: a successful
// Submit only guarantees the event reached the message channel.
type Service struct {
	publisher Publisher
	logger    logger.Logger
}

func NewService(publisher Publisher, log logger.Logger) *Service {
	return &Service{
		publisher: publisher,
		logger:    log.WithFields(map[string]interface{}{"component": "intake"}),
	}
}

// Submit validates the request, constructs the application record and
// publishes it to the message channel, blocking on the append acknowledgment.
// Validation failures reject before any side effect; publish failures surface
// as a DispatchError and leave no trace in the cache.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Application, error) {
	if err := validate(req); err != nil {
		metrics.ApplicationsSubmitted.WithLabelValues("rejected").Inc()
		return nil, err
	}

	app := &models.Application{
		ID:          uuid.New().String(),
		ApplicantID: req.ApplicantID,
		Amount:      req.Amount,
		TermMonths:  req.TermMonths,
		Status:      models.StatusPending,
		SubmittedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(models.ApplicationMessage{
		ApplicantID: app.ApplicantID,
		Amount:      app.Amount,
		TermMonths:  app.TermMonths,
	})
	if err != nil {
		return nil, apperrors.NewDispatchError(fmt.Errorf("marshal event: %w", err))
	}

	// The applicant identity keys the message so all submissions for one
	// applicant land on the same partition.
	if err := s.publisher.Publish(ctx, []byte(app.ApplicantID), payload); err != nil {
		metrics.ApplicationsSubmitted.WithLabelValues("dispatch_failed").Inc()
		s.logger.Error("failed to publish application", map[string]interface{}{
			"applicationId": app.ID,
			"applicantId":   app.ApplicantID,
			"error":         err.Error(),
		})
		return nil, apperrors.NewDispatchError(err)
	}

	metrics.ApplicationsSubmitted.WithLabelValues("accepted").Inc()
	s.logger.Info("application accepted", map[string]interface{}{
		"applicationId": app.ID,
		"applicantId":   app.ApplicantID,
		"amount":        app.Amount,
		"termMonths":    app.TermMonths,
	})

	return app, nil
}

func validate(req SubmitRequest) error {
	if req.ApplicantID == "" {
		return apperrors.NewValidationError("applicantId", "applicantId must not be empty")
	}
	if req.Amount <= 0 {
		return apperrors.NewValidationError("amount", fmt.Sprintf("amount must be greater than 0, got %v", req.Amount))
	}
	if req.TermMonths < minTermMonths || req.TermMonths > maxTermMonths {
		return apperrors.NewValidationError("termMonths",
			fmt.Sprintf("termMonths must be between %d and %d, got %d", minTermMonths, maxTermMonths, req.TermMonths))
	}
	return nil
}
