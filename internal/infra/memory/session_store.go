package memory

import (
	"context"
	"sync"
	"time"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/domain"
)

type sessionEntry struct {
	session *app.Session
	expires time.Time
}

// SessionStore is an in-memory implementation of app.SessionRepository.
// Entries expire ttl after their last Save, like the Redis store; a zero
// ttl keeps them until deleted.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]sessionEntry
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]sessionEntry),
	}
}

func (s *SessionStore) Save(_ context.Context, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.evictExpired(now)
	entry := sessionEntry{session: session}
	if s.ttl > 0 {
		entry.expires = now.Add(s.ttl)
	}
	s.sessions[session.ID()] = entry
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if entry.expired(s.now()) {
		delete(s.sessions, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return entry.session, nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len reports how many sessions are held, expired ones included until
// the next Save sweeps them.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) evictExpired(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, entry := range s.sessions {
		if entry.expired(now) {
			delete(s.sessions, id)
		}
	}
}

func (e sessionEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}
