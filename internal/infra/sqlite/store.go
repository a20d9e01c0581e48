// Package sqlite provides a single-file catalog for local runs and demos.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"persona-quiz-service/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store persists the test catalog in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file::memory:"
	if path != ":memory:" {
		dsn = "file:" + filepath.Clean(path)
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps writes serialized and the in-memory db shared.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const testColumns = `id, title, description, thumbnail_url, theme_color, mode, view_count, created_at`

func (s *Store) GetTest(ctx context.Context, testID string) (domain.Test, error) {
	test, err := scanTest(s.db.QueryRowContext(ctx, `SELECT `+testColumns+` FROM tests WHERE id = ?`, testID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Test{}, domain.ErrTestNotFound
	}
	if err != nil {
		return domain.Test{}, fmt.Errorf("load test: %w", err)
	}
	return test, nil
}

// ListTests returns tests whose title contains search. SQLite's LIKE
// folds ASCII case only.
func (s *Store) ListTests(ctx context.Context, search string) ([]domain.Test, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+testColumns+` FROM tests
		WHERE title LIKE '%' || ? || '%' ESCAPE '\'
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.test_id, q.order_index, q.content, q.image_url,
		       o.id, o.order_index, o.content, o.score_weight, o.mbti_indicator
		FROM questions q
		LEFT JOIN options o ON o.question_id = q.id
		WHERE q.test_id = ?
		ORDER BY q.order_index, q.seq, o.order_index, o.seq`, testID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q         domain.Question
			optID     sql.NullString
			optIndex  sql.NullInt64
			optText   sql.NullString
			optWeight sql.NullInt64
			optInd    sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.TestID, &q.OrderIndex, &q.Content, &q.ImageURL,
			&optID, &optIndex, &optText, &optWeight, &optInd); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != q.ID {
			out = append(out, q)
		}
		if !optID.Valid {
			continue
		}
		last := &out[len(out)-1]
		last.Options = append(last.Options, domain.Option{
			ID:          optID.String,
			OrderIndex:  int(optIndex.Int64),
			Content:     optText.String,
			ScoreWeight: int(optWeight.Int64),
			Indicator:   domain.Indicator(optInd.String),
		})
	}
	return out, rows.Err()
}

func (s *Store) GetResults(ctx context.Context, testID string) ([]domain.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, test_id, mbti_result, min_score, max_score, title, description, image_url
		FROM results WHERE test_id = ? ORDER BY seq`, testID)
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
	res, err := s.db.ExecContext(ctx, `UPDATE tests SET view_count = view_count + 1 WHERE id = ?`, testID)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTestNotFound
	}
	return nil
}

// ReplaceTest upserts the test row and rewrites its content in one
// transaction, keeping the view count and creation time.
func (s *Store) ReplaceTest(ctx context.Context, quiz domain.Quiz) (string, error) {
	testID := quiz.Test.ID
	if testID == "" {
		testID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	t := quiz.Test
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tests (id, title, description, thumbnail_url, theme_color, mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			thumbnail_url = excluded.thumbnail_url,
			theme_color = excluded.theme_color,
			mode = excluded.mode`,
		testID, t.Title, t.Description, t.ThumbnailURL, t.ThemeColor, string(t.Mode), time.Now().UTC().UnixMilli()); err != nil {
		return "", fmt.Errorf("upsert test: %w", err)
	}
	if err := clearContent(ctx, tx, testID); err != nil {
		return "", err
	}

	for _, q := range quiz.Questions {
		questionID := orNewID(q.ID)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id, test_id, order_index, content, image_url) VALUES (?, ?, ?, ?, ?)`,
			questionID, testID, q.OrderIndex, q.Content, q.ImageURL); err != nil {
			return "", fmt.Errorf("insert question: %w", err)
		}
		for _, o := range q.Options {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO options (id, question_id, order_index, content, score_weight, mbti_indicator) VALUES (?, ?, ?, ?, ?, ?)`,
				orNewID(o.ID), questionID, o.OrderIndex, o.Content, o.ScoreWeight, string(o.Indicator)); err != nil {
				return "", fmt.Errorf("insert option: %w", err)
			}
		}
	}
	for _, r := range quiz.Results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (id, test_id, mbti_result, min_score, max_score, title, description, image_url) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			orNewID(r.ID), testID, r.MBTICode, r.MinScore, r.MaxScore, r.Title, r.Description, r.ImageURL); err != nil {
			return "", fmt.Errorf("insert result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return testID, nil
}

func (s *Store) DeleteTest(ctx context.Context, testID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := clearContent(ctx, tx, testID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tests WHERE id = ?`, testID)
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTestNotFound
	}
	return tx.Commit()
}

// clearContent removes questions, options and results without relying on
// the foreign key pragma being honoured.
func clearContent(ctx context.Context, tx *sql.Tx, testID string) error {
	stmts := []string{
		`DELETE FROM options WHERE question_id IN (SELECT id FROM questions WHERE test_id = ?)`,
		`DELETE FROM questions WHERE test_id = ?`,
		`DELETE FROM results WHERE test_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, testID); err != nil {
			return fmt.Errorf("clear content: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (domain.Test, error) {
	var (
		t       domain.Test
		mode    string
		created int64
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.ThumbnailURL, &t.ThemeColor,
		&mode, &t.ViewCount, &created); err != nil {
		return domain.Test{}, err
	}
	t.Mode = domain.ScoringMode(mode)
	t.CreatedAt = time.UnixMilli(created).UTC()
	return t, nil
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(search string) string {
	return likeEscaper.Replace(search)
}
