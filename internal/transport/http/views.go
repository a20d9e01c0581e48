package http

import (
	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/domain"
)

// sessionView is what players see. Option weights and indicators stay
// on the server.
type sessionView struct {
	ID       string        `json:"id"`
	TestID   string        `json:"testId"`
	Title    string        `json:"title"`
	Theme    string        `json:"themeColor,omitempty"`
	Mode     string        `json:"mode"`
	Phase    app.Phase     `json:"phase"`
	Step     int           `json:"step"`
	Total    int           `json:"total"`
	Question *questionView `json:"question,omitempty"`
	Outcome  *outcomeView  `json:"outcome,omitempty"`
	Failure  string        `json:"failure,omitempty"`
}

type questionView struct {
	ID       string       `json:"id"`
	Content  string       `json:"content"`
	ImageURL string       `json:"imageUrl,omitempty"`
	Options  []optionView `json:"options"`
}

type optionView struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type outcomeView struct {
	ResultKey domain.ResultKey `json:"resultKey"`
	Result    *domain.Result   `json:"result"`
	Found     bool             `json:"found"`
}

func newSessionView(state app.SessionState) sessionView {
	view := sessionView{
		ID:      state.ID,
		TestID:  state.Test.ID,
		Title:   state.Test.Title,
		Theme:   state.Test.ThemeColor,
		Mode:    string(state.Test.Mode),
		Phase:   state.Phase,
		Step:    state.Step,
		Total:   len(state.Questions),
		Failure: state.Failure,
	}
	if q, ok := state.CurrentQuestion(); ok {
		qv := &questionView{ID: q.ID, Content: q.Content, ImageURL: q.ImageURL}
		for _, o := range q.Options {
			qv.Options = append(qv.Options, optionView{ID: o.ID, Content: o.Content})
		}
		view.Question = qv
	}
	if state.Outcome != nil {
		ov := newOutcomeView(*state.Outcome)
		view.Outcome = &ov
	}
	return view
}

func newOutcomeView(o domain.Outcome) outcomeView {
	return outcomeView{ResultKey: o.Key, Result: o.Result, Found: o.Found()}
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

func (p answerPayload) submission() domain.AnswerSubmission {
	return domain.AnswerSubmission{QuestionID: p.QuestionID, OptionID: p.OptionID}
}
