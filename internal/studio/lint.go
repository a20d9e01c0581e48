package studio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"persona-quiz-service/internal/domain"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Issue struct {
	Severity Severity
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// maxReachableSpan bounds the subset-sum walk used to find score gaps.
const maxReachableSpan = 1 << 16

// maxListed caps how many uncovered totals or codes a single issue names.
const maxListed = 10

// Lint reports problems a player would hit at runtime: unplayable
// questions, results that can never be reached, and outcomes that have
// no result row.
func Lint(quiz domain.Quiz) []Issue {
	var issues []Issue
	add := func(sev Severity, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	mode, err := domain.ParseScoringMode(string(quiz.Test.Mode))
	if err != nil {
		add(SeverityError, "unknown scoring mode %q", quiz.Test.Mode)
		return issues
	}
	if len(quiz.Questions) == 0 {
		add(SeverityWarning, "quiz has no questions and completes without an outcome")
	}

	seenOrder := make(map[int]int)
	for i, q := range quiz.Questions {
		n := i + 1
		if prev, ok := seenOrder[q.OrderIndex]; ok {
			add(SeverityWarning, "questions %d and %d share order index %d", prev, n, q.OrderIndex)
		} else {
			seenOrder[q.OrderIndex] = n
		}
		if len(q.Options) == 0 {
			add(SeverityError, "question %d has no options", n)
			continue
		}
		if mode != domain.ModeMBTI {
			continue
		}
		for j, o := range q.Options {
			switch {
			case o.Indicator == "":
				add(SeverityWarning, "question %d option %d has no indicator and counts toward no axis", n, j+1)
			case !o.Indicator.Valid():
				add(SeverityError, "question %d option %d has invalid indicator %q", n, j+1, o.Indicator)
			}
		}
	}

	if len(quiz.Results) == 0 {
		add(SeverityError, "quiz has no results")
		return issues
	}
	if mode == domain.ModeMBTI {
		lintCodes(quiz.Results, add)
	} else {
		lintRanges(quiz, add)
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

func lintCodes(results []domain.Result, add func(Severity, string, ...any)) {
	seen := make(map[string]bool)
	for i, r := range results {
		if !domain.ValidMBTICode(r.MBTICode) {
			add(SeverityError, "result %d has invalid code %q", i+1, r.MBTICode)
			continue
		}
		if seen[r.MBTICode] {
			add(SeverityWarning, "code %s has more than one result; the first one wins", r.MBTICode)
		}
		seen[r.MBTICode] = true
	}
	var missing []string
	for _, code := range domain.AllMBTICodes() {
		if !seen[code] {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		add(SeverityWarning, "no result for %d code(s): %s", len(missing), listed(missing))
	}
}

func lintRanges(quiz domain.Quiz, add func(Severity, string, ...any)) {
	results := quiz.Results
	for i, r := range results {
		if r.MinScore > r.MaxScore {
			add(SeverityError, "result %d has min score %d above max score %d", i+1, r.MinScore, r.MaxScore)
		}
	}
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			a, b := results[i], results[j]
			if a.MinScore <= b.MaxScore && b.MinScore <= a.MaxScore && a.MinScore <= a.MaxScore && b.MinScore <= b.MaxScore {
				add(SeverityWarning, "results %d and %d overlap; the earlier one wins", i+1, j+1)
			}
		}
	}

	totals, ok := reachableTotals(quiz.Questions)
	if !ok {
		add(SeverityWarning, "score range too wide to check coverage")
		return
	}
	var uncovered []string
	for _, total := range totals {
		if !coveredBy(total, results) {
			uncovered = append(uncovered, strconv.Itoa(total))
		}
	}
	if len(uncovered) > 0 {
		add(SeverityWarning, "%d reachable total(s) have no result: %s", len(uncovered), listed(uncovered))
	}
}

// reachableTotals returns every total a player can finish with, ascending.
func reachableTotals(questions []domain.Question) ([]int, bool) {
	lo, hi := 0, 0
	for _, q := range questions {
		if len(q.Options) == 0 {
			continue
		}
		qlo, qhi := q.Options[0].ScoreWeight, q.Options[0].ScoreWeight
		for _, o := range q.Options[1:] {
			qlo = min(qlo, o.ScoreWeight)
			qhi = max(qhi, o.ScoreWeight)
		}
		lo += qlo
		hi += qhi
	}
	if hi-lo > maxReachableSpan {
		return nil, false
	}

	reach := map[int]bool{0: true}
	for _, q := range questions {
		if len(q.Options) == 0 {
			continue
		}
		next := make(map[int]bool, len(reach)*len(q.Options))
		for total := range reach {
			for _, o := range q.Options {
				next[total+o.ScoreWeight] = true
			}
		}
		reach = next
	}
	out := make([]int, 0, len(reach))
	for total := range reach {
		out = append(out, total)
	}
	sort.Ints(out)
	return out, true
}

func coveredBy(total int, results []domain.Result) bool {
	for _, r := range results {
		if r.MinScore <= total && total <= r.MaxScore {
			return true
		}
	}
	return false
}

func listed(items []string) string {
	if len(items) <= maxListed {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:maxListed], ", ") + fmt.Sprintf(" and %d more", len(items)-maxListed)
}
