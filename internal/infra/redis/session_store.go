package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps session snapshots in Redis so any instance can serve
// the next answer. Concurrent answers to the same session from two
// instances are last-write-wins.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, session *app.Session) error {
	payload, err := json.Marshal(session.Snapshot())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID(), err)
	}
	if err := s.client.Set(ctx, s.key(session.ID()), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", session.ID(), err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*app.Session, error) {
	payload, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var state app.SessionState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return app.RestoreSession(state)
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
