package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"persona-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store reads and writes the test catalog in Postgres. Rows sharing an
// order index come back in insertion order (seq).
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const testColumns = `id, title, description, thumbnail_url, theme_color, mode, view_count, created_at`

func (s *Store) GetTest(ctx context.Context, testID string) (domain.Test, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+testColumns+` FROM tests WHERE id=$1`, testID)
	test, err := scanTest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Test{}, domain.ErrTestNotFound
	}
	if err != nil {
		return domain.Test{}, fmt.Errorf("load test: %w", err)
	}
	return test, nil
}

// ListTests returns tests whose title contains search, case-insensitively.
func (s *Store) ListTests(ctx context.Context, search string) ([]domain.Test, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+testColumns+` FROM tests
		WHERE title ILIKE '%' || $1::text || '%' ESCAPE '\'
		ORDER BY seq`, escapeLike(search))
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var out []domain.Test
	for rows.Next() {
		test, err := scanTest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		out = append(out, test)
	}
	return out, rows.Err()
}

func (s *Store) GetQuestions(ctx context.Context, testID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT q.id, q.test_id, q.order_index, q.content, q.image_url,
		       o.id, o.order_index, o.content, o.score_weight, o.mbti_indicator
		FROM questions q
		LEFT JOIN options o ON o.question_id = q.id
		WHERE q.test_id = $1
		ORDER BY q.order_index, q.seq, o.order_index, o.seq`, testID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q         domain.Question
			optID     *string
			optIndex  *int
			optText   *string
			optWeight *int
			optInd    *string
		)
		if err := rows.Scan(&q.ID, &q.TestID, &q.OrderIndex, &q.Content, &q.ImageURL,
			&optID, &optIndex, &optText, &optWeight, &optInd); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != q.ID {
			out = append(out, q)
		}
		if optID == nil {
			continue
		}
		last := &out[len(out)-1]
		last.Options = append(last.Options, domain.Option{
			ID:          *optID,
			OrderIndex:  *optIndex,
			Content:     *optText,
			ScoreWeight: *optWeight,
			Indicator:   domain.Indicator(*optInd),
		})
	}
	return out, rows.Err()
}

func (s *Store) GetResults(ctx context.Context, testID string) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, test_id, mbti_result, min_score, max_score, title, description, image_url
		FROM results WHERE test_id=$1 ORDER BY seq`, testID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	defer rows.Close()

	var out []domain.Result
	for rows.Next() {
		var r domain.Result
		if err := rows.Scan(&r.ID, &r.TestID, &r.MBTICode, &r.MinScore, &r.MaxScore,
			&r.Title, &r.Description, &r.ImageURL); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) IncrementViews(ctx context.Context, testID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tests SET view_count = view_count + 1 WHERE id=$1`, testID)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTestNotFound
	}
	return nil
}

// ReplaceTest upserts the test row and rewrites its questions, options and
// results in one transaction. The view count of an existing test is kept.
func (s *Store) ReplaceTest(ctx context.Context, quiz domain.Quiz) (string, error) {
	testID := quiz.Test.ID
	if testID == "" {
		testID = uuid.NewString()
	}
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		t := quiz.Test
		if _, err := tx.Exec(ctx, `
			INSERT INTO tests (id, title, description, thumbnail_url, theme_color, mode)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				thumbnail_url = EXCLUDED.thumbnail_url,
				theme_color = EXCLUDED.theme_color,
				mode = EXCLUDED.mode`,
			testID, t.Title, t.Description, t.ThumbnailURL, t.ThemeColor, string(t.Mode)); err != nil {
			return fmt.Errorf("upsert test: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE test_id=$1`, testID); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM results WHERE test_id=$1`, testID); err != nil {
			return fmt.Errorf("clear results: %w", err)
		}

		batch := &pgx.Batch{}
		for _, q := range quiz.Questions {
			questionID := orNewID(q.ID)
			batch.Queue(`INSERT INTO questions (id, test_id, order_index, content, image_url) VALUES ($1, $2, $3, $4, $5)`,
				questionID, testID, q.OrderIndex, q.Content, q.ImageURL)
			for _, o := range q.Options {
				batch.Queue(`INSERT INTO options (id, question_id, order_index, content, score_weight, mbti_indicator) VALUES ($1, $2, $3, $4, $5, $6)`,
					orNewID(o.ID), questionID, o.OrderIndex, o.Content, o.ScoreWeight, string(o.Indicator))
			}
		}
		for _, r := range quiz.Results {
			batch.Queue(`INSERT INTO results (id, test_id, mbti_result, min_score, max_score, title, description, image_url) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				orNewID(r.ID), testID, r.MBTICode, r.MinScore, r.MaxScore, r.Title, r.Description, r.ImageURL)
		}
		if batch.Len() == 0 {
			return nil
		}
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert content: %w", err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return "", err
	}
	return testID, nil
}

// DeleteTest removes a test; questions, options and results cascade.
func (s *Store) DeleteTest(ctx context.Context, testID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tests WHERE id=$1`, testID)
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTestNotFound
	}
	return nil
}

func scanTest(row pgx.Row) (domain.Test, error) {
	var (
		t    domain.Test
		mode string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.ThumbnailURL, &t.ThemeColor,
		&mode, &t.ViewCount, &t.CreatedAt); err != nil {
		return domain.Test{}, err
	}
	// Unknown modes are passed through; starting a session rejects them.
	t.Mode = domain.ScoringMode(mode)
	return t, nil
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes search match literally inside a LIKE pattern.
func escapeLike(search string) string {
	return likeEscaper.Replace(search)
}
