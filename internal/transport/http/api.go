package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// API serves the REST surface of the play flow.
type API struct {
	service *app.QuizService
}

func NewAPI(service *app.QuizService) *API {
	return &API{service: service}
}

// Mount registers the routes on r.
func (a *API) Mount(r chi.Router) {
	r.Get("/tests", a.listTests)
	r.Get("/tests/{testID}/result", a.lookupResult)
	r.Post("/tests/{testID}/sessions", a.startSession)
	r.Get("/sessions/{sessionID}", a.getSession)
	r.Post("/sessions/{sessionID}/answers", a.answer)
	r.Delete("/sessions/{sessionID}", a.abandon)
}

func (a *API) listTests(w http.ResponseWriter, r *http.Request) {
	tests, err := a.service.Tests(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, err)
		return
	}
	if tests == nil {
		tests = []domain.Test{}
	}
	respondJSON(w, http.StatusOK, tests)
}

func (a *API) lookupResult(w http.ResponseWriter, r *http.Request) {
	testID := chi.URLParam(r, "testID")
	q := r.URL.Query()

	var (
		key domain.ResultKey
		err error
	)
	switch {
	case q.Has("mbti"):
		key, err = domain.ParseResultKey(domain.ModeMBTI, q.Get("mbti"))
	case q.Has("score"):
		key, err = domain.ParseResultKey(domain.ModeScore, q.Get("score"))
	default:
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "score or mbti query parameter required"})
		return
	}
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	outcome, err := a.service.Lookup(r.Context(), testID, key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newOutcomeView(outcome))
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request) {
	state, err := a.service.Start(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newSessionView(state))
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := a.service.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(state))
}

func (a *API) answer(w http.ResponseWriter, r *http.Request) {
	var payload answerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.OptionID == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid answer payload"})
		return
	}
	state, err := a.service.Answer(r.Context(), chi.URLParam(r, "sessionID"), payload.submission())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(state))
}

func (a *API) abandon(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Abandon(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	respondJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTestNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLoadFailure) && malformed(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLoadFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrSessionCompleted), errors.Is(err, domain.ErrSessionNotInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOptionNotFound), errors.Is(err, domain.ErrQuestionMismatch),
		errors.Is(err, domain.ErrInvalidScoringMode), errors.Is(err, domain.ErrInvalidIndicator):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func malformed(err error) bool {
	return errors.Is(err, domain.ErrMalformedQuiz) ||
		errors.Is(err, domain.ErrInvalidScoringMode) ||
		errors.Is(err, domain.ErrInvalidIndicator)
}
