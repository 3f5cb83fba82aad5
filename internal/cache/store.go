// internal/cache/store.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "loanflow/internal/common/errors"
	"loanflow/internal/models"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix prefixes every decision key; the full key is the prefix
// concatenated with the applicant identity.
const DefaultKeyPrefix = "app_status:"

// Store holds the latest known decision per applicant identity. Writes
// overwrite unconditionally (last-write-wins) and re-arm the TTL; an expired
// entry is indistinguishable from one that never existed.
type Store struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewStore creates a decision store on top of an existing Redis client. The
// caller owns the client's lifecycle.
func NewStore(client *redis.Client, keyPrefix string, ttl time.Duration) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Key returns the cache key for an applicant identity.
func (s *Store) Key(applicantID string) string {
	return s.keyPrefix + applicantID
}

// Put writes the decision record under the applicant's key, replacing any
// previous record and applying the expiration.
func (s *Store) Put(ctx context.Context, rec *models.DecisionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}

	if err := s.client.Set(ctx, s.Key(rec.ApplicantID), data, s.ttl).Err(); err != nil {
		return apperrors.NewCacheWriteError(err)
	}
	return nil
}

// Get returns the latest decision for the applicant, or ErrDecisionNotFound
// when no entry exists or the entry expired.
func (s *Store) Get(ctx context.Context, applicantID string) (*models.DecisionRecord, error) {
	data, err := s.client.Get(ctx, s.Key(applicantID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrDecisionNotFound
		}
		return nil, apperrors.NewCacheReadError(err)
	}

	var rec models.DecisionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, apperrors.NewCacheReadError(fmt.Errorf("unmarshal decision record: %w", err))
	}
	return &rec, nil
}
