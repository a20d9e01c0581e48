package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"persona-quiz-service/internal/domain"
	"persona-quiz-service/internal/scoring"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Catalog is the read side of the test store (database, cache, or fixture).
type Catalog interface {
	GetTest(ctx context.Context, testID string) (domain.Test, error)
	GetQuestions(ctx context.Context, testID string) ([]domain.Question, error)
	GetResults(ctx context.Context, testID string) ([]domain.Result, error)
	ListTests(ctx context.Context, search string) ([]domain.Test, error)
}

// ViewCounter records that a test was opened.
type ViewCounter interface {
	IncrementViews(ctx context.Context, testID string) error
}

// SessionRepository abstracts how play sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// QuizService contains the play use cases.
type QuizService struct {
	catalog  Catalog
	sessions SessionRepository
	views    ViewCounter
	now      func() time.Time
	newID    func() string
}

// Option configures a QuizService.
type Option func(*QuizService)

// WithViewCounter enables the fire-and-forget view counter on Start.
func WithViewCounter(v ViewCounter) Option { return func(s *QuizService) { s.views = v } }

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(s *QuizService) { s.now = now } }

// WithIDGenerator overrides session ID generation.
func WithIDGenerator(fn func() string) Option { return func(s *QuizService) { s.newID = fn } }

func NewQuizService(catalog Catalog, sessions SessionRepository, opts ...Option) *QuizService {
	s := &QuizService{
		catalog:  catalog,
		sessions: sessions,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads a test and opens a play session for it. Load problems are
// returned wrapped in domain.ErrLoadFailure and no session is kept. A test
// without questions yields a PhaseEmpty snapshot; like a completed session
// it is handed back and not stored.
func (s *QuizService) Start(ctx context.Context, testID string) (SessionState, error) {
	session := newSession(s.newID(), s.now)

	quiz, err := s.loadQuiz(ctx, testID)
	if err != nil {
		session.fail(err)
		return session.Snapshot(), err
	}
	if err := session.load(quiz); err != nil {
		return session.Snapshot(), err
	}
	state := session.Snapshot()
	if state.Phase != PhaseEmpty {
		if err := s.sessions.Save(ctx, session); err != nil {
			return SessionState{}, fmt.Errorf("save session: %w", err)
		}
	}

	s.countView(testID)
	return state, nil
}

// Answer applies one answer to a stored session.
func (s *QuizService) Answer(ctx context.Context, sessionID string, sub domain.AnswerSubmission) (SessionState, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionState{}, err
	}

	match, err := session.answer(sub)
	if err != nil {
		return session.Snapshot(), err
	}
	state := session.Snapshot()
	if match.Ambiguous() {
		log.Printf("test %s: %d results match key %s, using %s", state.Test.ID, match.Candidates, state.Outcome.Key, match.Result.ID)
	}
	if state.Phase == PhaseCompleted && !match.Found() {
		log.Printf("test %s: no result for key %s", state.Test.ID, state.Outcome.Key)
	}

	// Completed sessions are handed off and discarded.
	if state.Phase == PhaseCompleted {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			log.Printf("discard session %s: %v", sessionID, err)
		}
		return state, nil
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return SessionState{}, fmt.Errorf("save session: %w", err)
	}
	return state, nil
}

// Session returns the current state of a session.
func (s *QuizService) Session(ctx context.Context, sessionID string) (SessionState, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionState{}, err
	}
	return session.Snapshot(), nil
}

// Abandon discards a session; restarting means calling Start again.
func (s *QuizService) Abandon(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Lookup resolves a result key against the test's current result set, as
// used by shared result links.
func (s *QuizService) Lookup(ctx context.Context, testID string, key domain.ResultKey) (domain.Outcome, error) {
	var (
		test    domain.Test
		results []domain.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		test, err = s.catalog.GetTest(gctx, testID)
		return err
	})
	g.Go(func() error {
		var err error
		results, err = s.catalog.GetResults(gctx, testID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: %w", domain.ErrLoadFailure, err)
	}
	if key.Mode != test.Mode {
		return domain.Outcome{}, fmt.Errorf("%w: test %s scores by %s", domain.ErrInvalidScoringMode, testID, test.Mode)
	}

	match := scoring.Resolve(testID, key, results)
	if match.Ambiguous() {
		log.Printf("test %s: %d results match key %s, using %s", testID, match.Candidates, key, match.Result.ID)
	}
	return match.Outcome(key), nil
}

// Tests lists the published tests whose title contains search, ignoring
// case. An empty search lists everything.
func (s *QuizService) Tests(ctx context.Context, search string) ([]domain.Test, error) {
	return s.catalog.ListTests(ctx, strings.TrimSpace(search))
}

// loadQuiz issues the three independent reads concurrently.
func (s *QuizService) loadQuiz(ctx context.Context, testID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		test, err := s.catalog.GetTest(gctx, testID)
		if err != nil {
			return fmt.Errorf("test: %w", err)
		}
		quiz.Test = test
		return nil
	})
	g.Go(func() error {
		questions, err := s.catalog.GetQuestions(gctx, testID)
		if err != nil {
			return fmt.Errorf("questions: %w", err)
		}
		quiz.Questions = questions
		return nil
	})
	g.Go(func() error {
		results, err := s.catalog.GetResults(gctx, testID)
		if err != nil {
			return fmt.Errorf("results: %w", err)
		}
		quiz.Results = results
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %w", domain.ErrLoadFailure, err)
	}
	return quiz, nil
}

func (s *QuizService) countView(testID string) {
	if s.views == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.views.IncrementViews(ctx, testID); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("increment views for %s: %v", testID, err)
		}
	}()
}
