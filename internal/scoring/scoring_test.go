package scoring

import (
	"testing"

	"persona-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTallyStartsAtZero(t *testing.T) {
	score := NewTally(domain.ModeScore)
	assert.Equal(t, 0, score.Total)
	assert.Nil(t, score.Counts)

	mbti := NewTally(domain.ModeMBTI)
	require.Len(t, mbti.Counts, 8)
	for _, v := range mbti.Counts {
		assert.Zero(t, v)
	}
}

func TestTallyApplyReadsOnlyItsModeField(t *testing.T) {
	opt := domain.Option{ScoreWeight: 7, Indicator: domain.IndicatorE}

	score := NewTally(domain.ModeScore)
	score.Apply(opt)
	assert.Equal(t, 7, score.Total)
	assert.Nil(t, score.Counts)

	mbti := NewTally(domain.ModeMBTI)
	mbti.Apply(opt)
	assert.Equal(t, 0, mbti.Total)
	assert.Equal(t, 1, mbti.Counts[domain.IndicatorE])
}

func TestTallyIgnoresMissingScoringFields(t *testing.T) {
	mbti := NewTally(domain.ModeMBTI)
	mbti.Apply(domain.Option{ID: "unscored"})
	for letter, v := range mbti.Counts {
		assert.Zerof(t, v, "letter %s", letter)
	}

	score := NewTally(domain.ModeScore)
	score.Apply(domain.Option{ID: "no-weight"})
	assert.Equal(t, 0, score.Total)
}

func TestScoreSumIsOrderIndependent(t *testing.T) {
	weights := []int{3, -2, 5, 0, 10, 1}
	forward := NewTally(domain.ModeScore)
	backward := NewTally(domain.ModeScore)
	for i := range weights {
		forward.Apply(domain.Option{ScoreWeight: weights[i]})
		backward.Apply(domain.Option{ScoreWeight: weights[len(weights)-1-i]})
	}
	assert.Equal(t, ScoreSum{}.Finalize(forward), ScoreSum{}.Finalize(backward))
	assert.Equal(t, domain.ScoreKey(17), ScoreSum{}.Finalize(forward))
}

func TestMBTIAxisTieBreakFavoursFirstLetter(t *testing.T) {
	tests := []struct {
		name   string
		counts map[domain.Indicator]int
		want   string
	}{
		{name: "all zero", counts: map[domain.Indicator]int{}, want: "ESTJ"},
		{name: "all tied", counts: map[domain.Indicator]int{"E": 2, "I": 2, "S": 1, "N": 1, "T": 3, "F": 3, "J": 1, "P": 1}, want: "ESTJ"},
		{name: "second letters lead", counts: map[domain.Indicator]int{"I": 1, "N": 2, "F": 3, "P": 1}, want: "INFP"},
		{name: "mixed", counts: map[domain.Indicator]int{"E": 1, "I": 2, "S": 2, "N": 2, "T": 0, "F": 1, "J": 3, "P": 0}, want: "ISFJ"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tally := Tally{Mode: domain.ModeMBTI, Counts: tc.counts}
			assert.Equal(t, domain.CodeKey(tc.want), MBTIAxis{}.Finalize(tally))
		})
	}
}

func TestMBTIAxisFirstOptionEveryTime(t *testing.T) {
	tally := NewTally(domain.ModeMBTI)
	for _, axis := range domain.Axes {
		for i := 0; i < 3; i++ {
			tally.Apply(domain.Option{Indicator: axis.First})
		}
	}
	assert.Equal(t, map[domain.Indicator]int{"E": 3, "I": 0, "S": 3, "N": 0, "T": 3, "F": 0, "J": 3, "P": 0}, tally.Counts)
	assert.Equal(t, "ESTJ", MBTIAxis{}.Finalize(tally).Code)
}

func TestStrategyFor(t *testing.T) {
	s, err := StrategyFor(domain.ModeScore)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeScore, s.Mode())

	s, err = StrategyFor(domain.ModeMBTI)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeMBTI, s.Mode())

	_, err = StrategyFor("trivia")
	assert.ErrorIs(t, err, domain.ErrInvalidScoringMode)
}

func TestResolveScoreBoundaries(t *testing.T) {
	results := []domain.Result{
		{ID: "low", MinScore: 0, MaxScore: 20},
		{ID: "mid", MinScore: 21, MaxScore: 40},
		{ID: "high", MinScore: 41, MaxScore: 60},
	}
	tests := []struct {
		score int
		want  string
	}{
		{0, "low"}, {20, "low"}, {21, "mid"}, {40, "mid"}, {41, "high"}, {60, "high"},
	}
	for _, tc := range tests {
		m := Resolve("t1", domain.ScoreKey(tc.score), results)
		require.Truef(t, m.Found(), "score %d", tc.score)
		assert.Equalf(t, tc.want, m.Result.ID, "score %d", tc.score)
		assert.False(t, m.Ambiguous())
	}

	assert.False(t, Resolve("t1", domain.ScoreKey(61), results).Found())
	assert.False(t, Resolve("t1", domain.ScoreKey(-1), results).Found())
}

func TestResolveMBTINotFound(t *testing.T) {
	results := []domain.Result{{ID: "r1", MBTICode: "ESTJ"}}
	m := Resolve("t1", domain.CodeKey("INFP"), results)
	assert.False(t, m.Found())
	assert.Zero(t, m.Candidates)

	out := m.Outcome(domain.CodeKey("INFP"))
	assert.False(t, out.Found())
	assert.Equal(t, "INFP", out.Key.Code)
}

func TestResolveDuplicatesPickFirstInserted(t *testing.T) {
	results := []domain.Result{
		{ID: "first", MBTICode: "ESTJ"},
		{ID: "second", MBTICode: "ESTJ"},
	}
	for i := 0; i < 5; i++ {
		m := Resolve("t1", domain.CodeKey("ESTJ"), results)
		require.True(t, m.Found())
		assert.Equal(t, "first", m.Result.ID)
		assert.True(t, m.Ambiguous())
		assert.Equal(t, 2, m.Candidates)
	}
}

func TestResolveOverlappingIntervalsPickFirst(t *testing.T) {
	results := []domain.Result{
		{ID: "a", MinScore: 0, MaxScore: 30},
		{ID: "b", MinScore: 20, MaxScore: 40},
	}
	m := Resolve("", domain.ScoreKey(25), results)
	require.True(t, m.Found())
	assert.Equal(t, "a", m.Result.ID)
	assert.True(t, m.Ambiguous())
}

func TestResolveSkipsOtherTests(t *testing.T) {
	results := []domain.Result{
		{ID: "other", TestID: "t2", MBTICode: "ENFP"},
		{ID: "mine", TestID: "t1", MBTICode: "ENFP"},
	}
	m := Resolve("t1", domain.CodeKey("ENFP"), results)
	require.True(t, m.Found())
	assert.Equal(t, "mine", m.Result.ID)
	assert.Equal(t, 1, m.Candidates)
}

func TestResolveReturnsCopy(t *testing.T) {
	results := []domain.Result{{ID: "r", MBTICode: "ESTJ", Title: "Organizer"}}
	m := Resolve("", domain.CodeKey("ESTJ"), results)
	m.Result.Title = "changed"
	assert.Equal(t, "Organizer", results[0].Title)
}
