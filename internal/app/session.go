package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"persona-quiz-service/internal/domain"
	"persona-quiz-service/internal/scoring"
)

// Phase is the play state of a session.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseInProgress Phase = "in_progress"
	PhaseFinalizing Phase = "finalizing"
	PhaseCompleted  Phase = "completed"
	PhaseEmpty      Phase = "empty"
	PhaseFailed     Phase = "failed"
)

// Terminal reports whether no further transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseEmpty || p == PhaseFailed
}

// SessionState is the serializable form of a session. Questions and Results
// are the snapshot taken at load time and do not change during play.
type SessionState struct {
	ID        string                `json:"id"`
	Test      domain.Test           `json:"test"`
	Phase     Phase                 `json:"phase"`
	Step      int                   `json:"step"`
	Questions []domain.Question     `json:"questions"`
	Results   []domain.Result       `json:"results"`
	Tally     scoring.Tally         `json:"tally"`
	Answers   []domain.AnswerRecord `json:"answers"`
	Outcome   *domain.Outcome       `json:"outcome,omitempty"`
	Failure   string                `json:"failure,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// CurrentQuestion returns the question awaiting an answer.
func (s SessionState) CurrentQuestion() (domain.Question, bool) {
	if s.Phase != PhaseInProgress || s.Step < 0 || s.Step >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.Step], true
}

// Session drives one player through a quiz. It is owned by a single player;
// the mutex only guards against duplicate requests racing on the same ID.
type Session struct {
	mu       sync.Mutex
	state    SessionState
	strategy scoring.Strategy
	now      func() time.Time
}

// NewSession returns an unloaded session in PhaseLoading. Playable sessions
// come from QuizService.Start; stores use this in their own tests.
func NewSession(id string) *Session {
	return newSession(id, time.Now)
}

func newSession(id string, now func() time.Time) *Session {
	ts := now()
	return &Session{
		state: SessionState{
			ID:        id,
			Phase:     PhaseLoading,
			CreatedAt: ts,
			UpdatedAt: ts,
		},
		now: now,
	}
}

// RestoreSession rebuilds a session from a persisted snapshot.
func RestoreSession(state SessionState) (*Session, error) {
	s := &Session{state: state, now: time.Now}
	if state.Phase == PhaseLoading || state.Phase == PhaseFailed {
		return s, nil
	}
	strategy, err := scoring.StrategyFor(state.Test.Mode)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", state.ID, err)
	}
	s.strategy = strategy
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.state.ID
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SessionState {
	out := s.state
	out.Tally = s.state.Tally.Clone()
	out.Answers = append([]domain.AnswerRecord(nil), s.state.Answers...)
	if s.state.Outcome != nil {
		o := *s.state.Outcome
		out.Outcome = &o
	}
	return out
}

// load leaves the loading phase with the fetched quiz.
func (s *Session) load(quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseLoading {
		return fmt.Errorf("load session %s: %w", s.state.ID, domain.ErrSessionNotInProgress)
	}

	strategy, err := scoring.StrategyFor(quiz.Test.Mode)
	if err != nil {
		s.failLocked(err)
		return fmt.Errorf("%w: %w", domain.ErrLoadFailure, err)
	}
	questions, err := playOrder(quiz.Test.Mode, quiz.Questions)
	if err != nil {
		s.failLocked(err)
		return fmt.Errorf("%w: %w", domain.ErrLoadFailure, err)
	}

	s.strategy = strategy
	s.state.Test = quiz.Test
	s.state.Questions = questions
	s.state.Results = append([]domain.Result(nil), quiz.Results...)
	s.state.Tally = scoring.NewTally(quiz.Test.Mode)
	s.state.Step = 0
	if len(questions) == 0 {
		s.state.Phase = PhaseEmpty
	} else {
		s.state.Phase = PhaseInProgress
	}
	s.state.UpdatedAt = s.now()
	return nil
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLocked(err)
}

func (s *Session) failLocked(err error) {
	s.state.Phase = PhaseFailed
	s.state.Failure = err.Error()
	s.state.UpdatedAt = s.now()
}

// answer applies the pick for the current question and advances. The
// returned match is only set when the answer completed the session.
func (s *Session) answer(sub domain.AnswerSubmission) (scoring.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Phase {
	case PhaseInProgress:
	case PhaseCompleted:
		return scoring.Match{}, domain.ErrSessionCompleted
	default:
		return scoring.Match{}, domain.ErrSessionNotInProgress
	}

	question := s.state.Questions[s.state.Step]
	if sub.QuestionID != "" && sub.QuestionID != question.ID {
		return scoring.Match{}, fmt.Errorf("%w: got %s, current %s", domain.ErrQuestionMismatch, sub.QuestionID, question.ID)
	}
	option, ok := findOption(question, sub.OptionID)
	if !ok {
		return scoring.Match{}, fmt.Errorf("%w: %s", domain.ErrOptionNotFound, sub.OptionID)
	}

	s.state.Tally.Apply(option)
	s.state.Answers = append(s.state.Answers, domain.AnswerRecord{QuestionID: question.ID, OptionID: option.ID})
	s.state.UpdatedAt = s.now()

	if s.state.Step < len(s.state.Questions)-1 {
		s.state.Step++
		return scoring.Match{}, nil
	}

	s.state.Phase = PhaseFinalizing
	key := s.strategy.Finalize(s.state.Tally)
	match := scoring.Resolve(s.state.Test.ID, key, s.state.Results)
	outcome := match.Outcome(key)
	s.state.Outcome = &outcome
	s.state.Phase = PhaseCompleted
	return match, nil
}

func findOption(q domain.Question, optionID string) (domain.Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return domain.Option{}, false
}

// playOrder copies questions into ascending OrderIndex order (options too)
// and rejects data the player cannot run. Equal indexes keep load order.
func playOrder(mode domain.ScoringMode, questions []domain.Question) ([]domain.Question, error) {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		if len(q.Options) == 0 {
			return nil, fmt.Errorf("%w: question %s has no options", domain.ErrMalformedQuiz, q.ID)
		}
		opts := append([]domain.Option(nil), q.Options...)
		sort.SliceStable(opts, func(a, b int) bool { return opts[a].OrderIndex < opts[b].OrderIndex })
		if mode == domain.ModeMBTI {
			for _, opt := range opts {
				if opt.Indicator != "" && !opt.Indicator.Valid() {
					return nil, fmt.Errorf("%w: option %s: %w", domain.ErrMalformedQuiz, opt.ID, domain.ErrInvalidIndicator)
				}
			}
		}
		q.Options = opts
		out[i] = q
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].OrderIndex < out[b].OrderIndex })
	return out, nil
}
