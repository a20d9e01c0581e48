package domain

import "errors"

var (
	// ErrTestNotFound is returned when no test exists for an ID.
	ErrTestNotFound = errors.New("test not found")
	// ErrLoadFailure wraps any failed or malformed read needed to start a session.
	ErrLoadFailure = errors.New("quiz load failed")
	// ErrMalformedQuiz marks authoring data the player cannot run, e.g. a question without options.
	ErrMalformedQuiz = errors.New("malformed quiz data")
	// ErrSessionNotFound is returned when a play session does not exist or expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionCompleted is returned when answering a finished session.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrSessionNotInProgress is returned when answering a session that never started.
	ErrSessionNotInProgress = errors.New("quiz session not in progress")
	// ErrOptionNotFound indicates the option is not part of the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrQuestionMismatch indicates an answer aimed at a question other than the current one.
	ErrQuestionMismatch = errors.New("answer does not match current question")
	// ErrInvalidScoringMode indicates an unknown scoring mode.
	ErrInvalidScoringMode = errors.New("invalid scoring mode")
	// ErrInvalidIndicator indicates an MBTI letter or code outside the E/I S/N T/F J/P axes.
	ErrInvalidIndicator = errors.New("invalid mbti indicator")
)
