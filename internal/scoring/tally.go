package scoring

import "persona-quiz-service/internal/domain"

// Tally is the running answer accumulator of one play session. Score tests
// use Total; mbti tests use Counts over the eight axis letters.
type Tally struct {
	Mode   domain.ScoringMode       `json:"mode"`
	Total  int                      `json:"total"`
	Counts map[domain.Indicator]int `json:"counts,omitempty"`
}

// NewTally returns an all-zero accumulator for mode.
func NewTally(mode domain.ScoringMode) Tally {
	t := Tally{Mode: mode}
	if mode == domain.ModeMBTI {
		t.Counts = make(map[domain.Indicator]int, 2*len(domain.Axes))
		for _, axis := range domain.Axes {
			t.Counts[axis.First] = 0
			t.Counts[axis.Second] = 0
		}
	}
	return t
}

// Apply folds one selected option into the tally. Options without an
// indicator are valid in mbti mode and contribute nothing.
func (t *Tally) Apply(opt domain.Option) {
	switch t.Mode {
	case domain.ModeScore:
		t.Total += opt.ScoreWeight
	case domain.ModeMBTI:
		if opt.Indicator == "" {
			return
		}
		if t.Counts == nil {
			t.Counts = make(map[domain.Indicator]int)
		}
		t.Counts[opt.Indicator]++
	}
}

// Clone returns a copy that shares no state with t.
func (t Tally) Clone() Tally {
	out := t
	if t.Counts != nil {
		out.Counts = make(map[domain.Indicator]int, len(t.Counts))
		for k, v := range t.Counts {
			out.Counts[k] = v
		}
	}
	return out
}
