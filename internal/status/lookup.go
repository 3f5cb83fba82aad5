// internal/status/lookup.go
package status

import (
	"context"

	"loanflow/internal/cache"
	apperrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/common/metrics"
	"loanflow/internal/models"
)

// Lookup answers "what is the latest known decision for this applicant" with
// a single point read against the cache store. Not-found is a valid terminal
// outcome, not a transport error: never submitted, not yet decided and
// expired all look the same to a caller.
type Lookup struct {
	store  *cache.Store
	logger logger.Logger
}

func NewLookup(store *cache.Store, log logger.Logger) *Lookup {
	return &Lookup{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "status-lookup"}),
	}
}

// Get returns the most recent decision record for the applicant identity, or
// ErrDecisionNotFound when none is currently known.
func (l *Lookup) Get(ctx context.Context, applicantID string) (*models.DecisionRecord, error) {
	rec, err := l.store.Get(ctx, applicantID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			metrics.StatusLookups.WithLabelValues("not_found").Inc()
			return nil, err
		}
		metrics.StatusLookups.WithLabelValues("error").Inc()
		l.logger.Error("status lookup failed", map[string]interface{}{
			"applicantId": applicantID,
			"error":       err.Error(),
		})
		return nil, err
	}

	metrics.StatusLookups.WithLabelValues("hit").Inc()
	return rec, nil
}
