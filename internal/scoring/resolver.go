package scoring

import "persona-quiz-service/internal/domain"

// Match is the resolver's answer for one key.
type Match struct {
	// Result is the chosen row, nil when nothing matched.
	Result *domain.Result
	// Candidates counts every row that matched the key.
	Candidates int
}

func (m Match) Found() bool { return m.Result != nil }

// Ambiguous reports overlapping or duplicated authoring data.
func (m Match) Ambiguous() bool { return m.Candidates > 1 }

// Resolve picks the first row of results matching key. Rows belonging to a
// different test are skipped; rows with an empty TestID are accepted.
// Callers pass results in insertion order so duplicates resolve stably.
func Resolve(testID string, key domain.ResultKey, results []domain.Result) Match {
	var m Match
	for i := range results {
		r := &results[i]
		if testID != "" && r.TestID != "" && r.TestID != testID {
			continue
		}
		if !matches(key, r) {
			continue
		}
		m.Candidates++
		if m.Result == nil {
			picked := *r
			m.Result = &picked
		}
	}
	return m
}

func matches(key domain.ResultKey, r *domain.Result) bool {
	switch key.Mode {
	case domain.ModeMBTI:
		return r.MBTICode == key.Code
	case domain.ModeScore:
		return r.MinScore <= key.Score && key.Score <= r.MaxScore
	}
	return false
}

// Outcome converts the match into the payload handed to callers.
func (m Match) Outcome(key domain.ResultKey) domain.Outcome {
	return domain.Outcome{Key: key, Result: m.Result}
}
