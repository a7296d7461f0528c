package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"casedeck-backend/internal/models"
)

// Study sessions are ephemeral: held only in Redis with a TTL, refreshed on
// every access, gone when closed or expired. Nothing is written back to
// Postgres.
const sessionTTL = 6 * time.Hour

// ErrSessionNotFound reports a session id with no live session behind it,
// either never created or already expired.
var ErrSessionNotFound = errors.New("study session not found")

// SessionStore holds live study sessions.
type SessionStore interface {
	Save(ctx context.Context, session *models.StudySession) error
	Get(ctx context.Context, id uuid.UUID) (*models.StudySession, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type redisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(id uuid.UUID) string {
	return "study:session:" + id.String()
}

func (s *redisSessionStore) Save(ctx context.Context, session *models.StudySession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode study session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(session.ID), payload, sessionTTL).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	session := &models.StudySession{}
	if err := json.Unmarshal([]byte(payload), session); err != nil {
		return nil, fmt.Errorf("failed to decode study session: %w", err)
	}

	// Sliding expiry: an active session stays alive.
	s.client.Expire(ctx, sessionKey(id), sessionTTL)
	return session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}
