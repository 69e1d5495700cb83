package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no session exists for an attempt id,
// including sessions evicted by TTL.
var ErrSessionNotFound = errors.New("wizard session not found")

// SessionStore keeps in-progress wizard sessions so respondents can resume
// an attempt without losing answers.
type SessionStore interface {
	Save(ctx context.Context, session *models.WizardSession) error
	Get(ctx context.Context, attemptID string) (*models.WizardSession, error)
	Delete(ctx context.Context, attemptID string) error
}

type redisSessionStore struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store with the given
// session TTL.
func NewRedisSessionStore(client *redis.Client, logger *slog.Logger, ttl time.Duration) SessionStore {
	return &redisSessionStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func sessionKey(attemptID string) string {
	return "wizard:session:" + attemptID
}

func (s *redisSessionStore) Save(ctx context.Context, session *models.WizardSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.AttemptID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store wizard session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, attemptID string) (*models.WizardSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(attemptID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load wizard session: %w", err)
	}

	var session models.WizardSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wizard session: %w", err)
	}
	return &session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, attemptID string) error {
	if err := s.client.Del(ctx, sessionKey(attemptID)).Err(); err != nil {
		s.logger.Warn("Failed to delete wizard session", "attempt_id", attemptID, "error", err)
		return fmt.Errorf("failed to delete wizard session: %w", err)
	}
	return nil
}
