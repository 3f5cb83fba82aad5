// internal/decision/worker.go
package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loanflow/internal/cache"
	apperrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/common/messaging"
	"loanflow/internal/common/metrics"
	"loanflow/internal/common/observability"
	"loanflow/internal/common/validation"
	"loanflow/internal/models"
)

// Source is the consume side of the message channel. Fetch blocks until a
// message is available; Commit advances the group offset.
type Source interface {
	Fetch(ctx context.Context) (*messaging.Message, error)
	Commit(ctx context.Context, msg *messaging.Message) error
}

// DeadLetterSink receives messages that can never be processed.
type DeadLetterSink interface {
	Publish(ctx context.Context, key, value []byte) error
}

// DecisionSink persists a decision record durably after the cache write; a
// failure here is logged but never fails the message.
type DecisionSink interface {
	Insert(ctx context.Context, rec *models.DecisionRecord) error
}

// Config holds the worker's tunables.
type Config struct {
	ApprovalLimit   float64
	CacheMaxRetries int
	ProcessTimeout  time.Duration
}

// Worker is the long-running consumer of the application topic. Per message:
// validate payload, evaluate the rule, overwrite the applicant's decision in
// the cache, then commit the offset. Unprocessable payloads go to the
// dead-letter sink and are committed; infrastructure failures stop the loop
// so a restart resumes from the last committed offset (at-least-once, safe
// because evaluation is pure and the cache write overwrites).
type Worker struct {
	source     Source
	deadLetter DeadLetterSink
	store      *cache.Store
	sink       DecisionSink
	rule       *Rule
	cfg        Config
	obs        *observability.Observability
	logger     logger.Logger
}

func NewWorker(source Source, deadLetter DeadLetterSink, store *cache.Store, sink DecisionSink, cfg Config, obs *observability.Observability, log logger.Logger) *Worker {
	if cfg.CacheMaxRetries <= 0 {
		cfg.CacheMaxRetries = 3
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 10 * time.Second
	}
	return &Worker{
		source:     source,
		deadLetter: deadLetter,
		store:      store,
		sink:       sink,
		rule:       NewRule(cfg.ApprovalLimit),
		cfg:        cfg,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "decision-worker"}),
	}
}

// Run consumes until ctx is canceled or an infrastructure error occurs. The
// in-flight message always finishes (cache write plus commit) before Run
// returns on cancellation, so a fully decided message is never dropped.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("decision worker started", nil)

	for {
		msg, err := w.source.Fetch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Info("decision worker stopping", nil)
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		// Shutdown must not interrupt the in-flight message; processing and
		// commit run under their own timeout.
		procCtx, cancel := context.WithTimeout(context.Background(), w.cfg.ProcessTimeout)
		err = w.Process(procCtx, msg.Value)
		if err != nil && apperrors.CodeOf(err) == apperrors.ErrCodeMessageParseFailed {
			err = w.sendToDeadLetter(procCtx, msg)
		}
		if err != nil {
			cancel()
			w.logger.Error("message processing failed, stopping", map[string]interface{}{
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"error":     err.Error(),
			})
			return err
		}

		err = w.source.Commit(procCtx, msg)
		cancel()
		if err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}

		select {
		case <-ctx.Done():
			w.logger.Info("decision worker stopping", nil)
			return nil
		default:
		}
	}
}

// Process evaluates a single raw payload and writes the resulting decision
// record to the cache. A MESSAGE_PARSE_FAILED error marks the payload as
// unprocessable; any other error is an infrastructure failure.
func (w *Worker) Process(ctx context.Context, payload []byte) error {
	start := time.Now()

	if err := validation.ValidateApplicationMessage(payload); err != nil {
		return apperrors.NewMessageParseError(err)
	}

	var msg models.ApplicationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return apperrors.NewMessageParseError(err)
	}

	rec := &models.DecisionRecord{
		ApplicantID: msg.ApplicantID,
		Amount:      msg.Amount,
		TermMonths:  msg.TermMonths,
		Status:      w.rule.Evaluate(msg),
		DecidedAt:   time.Now().UTC(),
	}

	if err := w.putWithRetry(ctx, rec); err != nil {
		return err
	}

	if w.sink != nil {
		if err := w.sink.Insert(ctx, rec); err != nil {
			// Write-behind is best-effort: the cache is the authoritative
			// read path for status lookup.
			w.logger.Warn("durable insert failed", map[string]interface{}{
				"applicantId": rec.ApplicantID,
				"error":       err.Error(),
			})
		}
	}

	status := string(rec.Status)
	metrics.DecisionsProcessed.WithLabelValues(status).Inc()
	metrics.DecisionDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if w.obs != nil {
		w.obs.RecordDecision(ctx, status)
		w.obs.RecordDecisionDuration(ctx, time.Since(start), status)
	}

	w.logger.Info("application decided", map[string]interface{}{
		"applicantId": rec.ApplicantID,
		"amount":      rec.Amount,
		"termMonths":  rec.TermMonths,
		"status":      status,
	})

	return nil
}

func (w *Worker) putWithRetry(ctx context.Context, rec *models.DecisionRecord) error {
	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 1; attempt <= w.cfg.CacheMaxRetries; attempt++ {
		lastErr = w.store.Put(ctx, rec)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		time.Sleep(backoff)
		backoff *= 2
	}

	return lastErr
}

func (w *Worker) sendToDeadLetter(ctx context.Context, msg *messaging.Message) error {
	if w.deadLetter == nil {
		return fmt.Errorf("unprocessable message at partition %d offset %d and no dead-letter sink configured",
			msg.Partition, msg.Offset)
	}

	if err := w.deadLetter.Publish(ctx, msg.Key, msg.Value); err != nil {
		return fmt.Errorf("dead-letter publish: %w", err)
	}

	metrics.DeadLetteredMessages.Inc()
	w.logger.Warn("message dead-lettered", map[string]interface{}{
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})
	return nil
}
