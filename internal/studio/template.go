package studio

import (
	"fmt"

	"persona-quiz-service/internal/domain"
)

const questionsPerAxis = 3

// MBTITemplate returns the starter layout the editor offers for new mbti
// tests: three two-option questions per axis and one result per code.
// Result titles are left blank for the author to fill in.
func MBTITemplate(title string) domain.Quiz {
	quiz := domain.Quiz{
		Test: domain.Test{Title: title, Mode: domain.ModeMBTI, ThemeColor: defaultThemeColor},
	}
	idx := 0
	for _, axis := range domain.Axes {
		for i := 0; i < questionsPerAxis; i++ {
			quiz.Questions = append(quiz.Questions, domain.Question{
				OrderIndex: idx,
				Content:    fmt.Sprintf("Question about %s vs %s (%d/%d)", axis.First, axis.Second, i+1, questionsPerAxis),
				Options: []domain.Option{
					{OrderIndex: 0, Content: fmt.Sprintf("Answer leaning %s", axis.First), Indicator: axis.First},
					{OrderIndex: 1, Content: fmt.Sprintf("Answer leaning %s", axis.Second), Indicator: axis.Second},
				},
			})
			idx++
		}
	}
	for _, code := range domain.AllMBTICodes() {
		quiz.Results = append(quiz.Results, domain.Result{MBTICode: code})
	}
	return quiz
}
