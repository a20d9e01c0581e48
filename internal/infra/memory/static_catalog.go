package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"persona-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// StaticCatalog is a simple catalog backed by an in-memory map (useful for tests/demos).
// It also implements the write side so seeding works without a database.
type StaticCatalog struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	order   []string
}

func NewStaticCatalog(quizzes ...domain.Quiz) *StaticCatalog {
	c := &StaticCatalog{quizzes: make(map[string]domain.Quiz)}
	for _, q := range quizzes {
		c.put(q)
	}
	return c
}

func (c *StaticCatalog) GetTest(_ context.Context, testID string) (domain.Test, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if quiz, ok := c.quizzes[testID]; ok {
		return quiz.Test, nil
	}
	return domain.Test{}, domain.ErrTestNotFound
}

func (c *StaticCatalog) GetQuestions(_ context.Context, testID string) ([]domain.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quiz, ok := c.quizzes[testID]
	if !ok {
		return nil, domain.ErrTestNotFound
	}
	out := append([]domain.Question(nil), quiz.Questions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (c *StaticCatalog) GetResults(_ context.Context, testID string) ([]domain.Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quiz, ok := c.quizzes[testID]
	if !ok {
		return nil, domain.ErrTestNotFound
	}
	return append([]domain.Result(nil), quiz.Results...), nil
}

func (c *StaticCatalog) ListTests(_ context.Context, search string) ([]domain.Test, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	search = strings.ToLower(search)
	out := make([]domain.Test, 0, len(c.order))
	for _, id := range c.order {
		test := c.quizzes[id].Test
		if strings.Contains(strings.ToLower(test.Title), search) {
			out = append(out, test)
		}
	}
	return out, nil
}

func (c *StaticCatalog) IncrementViews(_ context.Context, testID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	quiz, ok := c.quizzes[testID]
	if !ok {
		return domain.ErrTestNotFound
	}
	quiz.Test.ViewCount++
	c.quizzes[testID] = quiz
	return nil
}

// ReplaceTest stores the quiz wholesale, assigning IDs where missing.
func (c *StaticCatalog) ReplaceTest(_ context.Context, quiz domain.Quiz) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if quiz.Test.ID == "" {
		quiz.Test.ID = uuid.NewString()
	}
	if prev, ok := c.quizzes[quiz.Test.ID]; ok {
		quiz.Test.ViewCount = prev.Test.ViewCount
	}
	testID := quiz.Test.ID
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.TestID = testID
		opts := make([]domain.Option, len(q.Options))
		for j, o := range q.Options {
			if o.ID == "" {
				o.ID = uuid.NewString()
			}
			opts[j] = o
		}
		q.Options = opts
		questions[i] = q
	}
	results := make([]domain.Result, len(quiz.Results))
	for i, r := range quiz.Results {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.TestID = testID
		results[i] = r
	}
	quiz.Questions = questions
	quiz.Results = results
	c.put(quiz)
	return testID, nil
}

// DeleteTest removes a test with its questions and results.
func (c *StaticCatalog) DeleteTest(_ context.Context, testID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.quizzes[testID]; !ok {
		return domain.ErrTestNotFound
	}
	delete(c.quizzes, testID)
	for i, id := range c.order {
		if id == testID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *StaticCatalog) put(quiz domain.Quiz) {
	if _, ok := c.quizzes[quiz.Test.ID]; !ok {
		c.order = append(c.order, quiz.Test.ID)
	}
	c.quizzes[quiz.Test.ID] = quiz
}
