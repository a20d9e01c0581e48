package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"persona-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	testID, err := store.ReplaceTest(ctx, sampleQuiz())
	require.NoError(t, err)
	assert.Equal(t, "quiz-1", testID)

	test, err := store.GetTest(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeScore, test.Mode)
	assert.False(t, test.CreatedAt.IsZero())

	questions, err := store.GetQuestions(ctx, testID)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, []string{"q-a", "q-b1", "q-b2"}, []string{questions[0].ID, questions[1].ID, questions[2].ID},
		"ties on order index keep insertion order")
	require.Len(t, questions[0].Options, 2)
	assert.Equal(t, "a-low", questions[0].Options[0].ID)
	assert.Equal(t, 10, questions[0].Options[1].ScoreWeight)
	assert.Empty(t, questions[2].Options, "question without options comes back empty")

	results, err := store.GetResults(ctx, testID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Low", results[0].Title)
	assert.Equal(t, 20, results[0].MaxScore)
}

func TestStoreReplaceKeepsViews(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.ReplaceTest(ctx, sampleQuiz())
	require.NoError(t, err)
	require.NoError(t, store.IncrementViews(ctx, "quiz-1"))
	require.NoError(t, store.IncrementViews(ctx, "quiz-1"))

	quiz := sampleQuiz()
	quiz.Test.Title = "Renamed"
	quiz.Questions = quiz.Questions[:1]
	quiz.Results = nil
	_, err = store.ReplaceTest(ctx, quiz)
	require.NoError(t, err)

	test, err := store.GetTest(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", test.Title)
	assert.Equal(t, 2, test.ViewCount)

	questions, err := store.GetQuestions(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Len(t, questions, 1)
	results, err := store.GetResults(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStoreAssignsIDsAndLists(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.ReplaceTest(ctx, sampleQuiz())
	require.NoError(t, err)
	created, err := store.ReplaceTest(ctx, domain.Quiz{
		Test:      domain.Test{Title: "Fresh", Mode: domain.ModeMBTI},
		Questions: []domain.Question{{Content: "?", Options: []domain.Option{{Content: "E", Indicator: domain.IndicatorE}}}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created)

	tests, err := store.ListTests(ctx, "")
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Equal(t, "quiz-1", tests[0].ID)
	assert.Equal(t, created, tests[1].ID)

	tests, err = store.ListTests(ctx, "fRES")
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, created, tests[0].ID)

	tests, err = store.ListTests(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, tests, "wildcards in the search are matched literally")

	questions, err := store.GetQuestions(ctx, created)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.NotEmpty(t, questions[0].ID)
	assert.Equal(t, domain.IndicatorE, questions[0].Options[0].Indicator)
}

func TestStoreDeleteAndNotFound(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.ReplaceTest(ctx, sampleQuiz())
	require.NoError(t, err)
	require.NoError(t, store.DeleteTest(ctx, "quiz-1"))

	_, err = store.GetTest(ctx, "quiz-1")
	assert.True(t, errors.Is(err, domain.ErrTestNotFound))
	questions, err := store.GetQuestions(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Empty(t, questions)

	assert.True(t, errors.Is(store.DeleteTest(ctx, "quiz-1"), domain.ErrTestNotFound))
	assert.True(t, errors.Is(store.IncrementViews(ctx, "quiz-1"), domain.ErrTestNotFound))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.db")
	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.ReplaceTest(context.Background(), sampleQuiz())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	test, err := reopened.GetTest(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "Stress check", test.Title)

	_, err = Open("  ")
	assert.Error(t, err)
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Test: domain.Test{ID: "quiz-1", Title: "Stress check", Mode: domain.ModeScore},
		Questions: []domain.Question{
			{ID: "q-b1", OrderIndex: 1, Content: "Second", Options: []domain.Option{{ID: "b1-o", Content: "x", ScoreWeight: 3}}},
			{ID: "q-a", OrderIndex: 0, Content: "First", Options: []domain.Option{
				{ID: "a-high", OrderIndex: 1, Content: "High", ScoreWeight: 10},
				{ID: "a-low", OrderIndex: 0, Content: "Low"},
			}},
			{ID: "q-b2", OrderIndex: 1, Content: "Third"},
		},
		Results: []domain.Result{
			{ID: "r-low", MinScore: 0, MaxScore: 20, Title: "Low"},
			{ID: "r-high", MinScore: 21, MaxScore: 40, Title: "High"},
		},
	}
}
