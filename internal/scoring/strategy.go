package scoring

import (
	"fmt"
	"strings"

	"persona-quiz-service/internal/domain"
)

// Strategy turns a finished tally into the key used for result lookup.
type Strategy interface {
	Mode() domain.ScoringMode
	Finalize(t Tally) domain.ResultKey
}

// StrategyFor returns the strategy registered for mode.
func StrategyFor(mode domain.ScoringMode) (Strategy, error) {
	s, ok := strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidScoringMode, mode)
	}
	return s, nil
}

var strategies = map[domain.ScoringMode]Strategy{
	domain.ModeScore: ScoreSum{},
	domain.ModeMBTI:  MBTIAxis{},
}

// ScoreSum uses the summed option weights as the key.
type ScoreSum struct{}

func (ScoreSum) Mode() domain.ScoringMode { return domain.ModeScore }

func (ScoreSum) Finalize(t Tally) domain.ResultKey {
	return domain.ScoreKey(t.Total)
}

// MBTIAxis picks the leading letter on each axis. Equal counts resolve to
// the axis's first letter (E, S, T, J); stored result rows depend on this.
type MBTIAxis struct{}

func (MBTIAxis) Mode() domain.ScoringMode { return domain.ModeMBTI }

func (MBTIAxis) Finalize(t Tally) domain.ResultKey {
	var b strings.Builder
	for _, axis := range domain.Axes {
		if t.Counts[axis.First] >= t.Counts[axis.Second] {
			b.WriteString(string(axis.First))
		} else {
			b.WriteString(string(axis.Second))
		}
	}
	return domain.CodeKey(b.String())
}
