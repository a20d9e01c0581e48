package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/infra/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catDefinition = `
id: cat
title: Which cat are you?
mode: mbti
questions:
  - content: Party or nap?
    options:
      - content: Party
        indicator: E
      - content: Nap
        indicator: I
  - content: Facts or dreams?
    options:
      - content: Facts
        indicator: S
      - content: Dreams
        indicator: N
results:
  - code: ESTJ
    title: Tabby
    description: Runs the household.
  - code: INTJ
    title: Siamese
`

const brokenDefinition = `
title: Broken
mode: score
questions:
  - content: Anything?
`

func TestSeedAndPlayWithSQLite(t *testing.T) {
	dir := t.TempDir()
	def := writeTemp(t, dir, "cat.yaml", catDefinition)
	cfg := writeTemp(t, dir, "config.yaml", "sqlite:\n  path: "+filepath.Join(dir, "quiz.db")+"\n")

	out, err := run(t, "", "--config", cfg, "seed", def)
	require.NoError(t, err)
	assert.Equal(t, "cat", strings.TrimSpace(out))

	out, err = run(t, "", "--config", cfg, "play", "--test", "cat", "--pick", "2,2")
	require.NoError(t, err)
	assert.Contains(t, out, "[1/2] Party or nap?")
	assert.Contains(t, out, "result INTJ: Siamese")
}

func TestPlayFromSeedsAndStdin(t *testing.T) {
	dir := t.TempDir()
	def := writeTemp(t, dir, "cat.yaml", catDefinition)
	cfg := writeTemp(t, dir, "config.yaml", "seeds:\n  - "+def+"\n")

	// First line is not a number and gets asked again.
	out, err := run(t, "soon\n1\n1\n", "--config", cfg, "play", "--test", "cat")
	require.NoError(t, err)
	assert.Contains(t, out, "enter an option number")
	assert.Contains(t, out, "result ESTJ: Tabby")
	assert.Contains(t, out, "Runs the household.")

	_, err = run(t, "", "--config", cfg, "play", "--test", "cat", "--pick", "3")
	assert.ErrorContains(t, err, "out of range")
}

func TestSeedRejectsLintErrors(t *testing.T) {
	dir := t.TempDir()
	broken := writeTemp(t, dir, "broken.yaml", brokenDefinition)
	store := memory.NewStaticCatalog()

	_, err := seedFiles(context.Background(), store, []string{broken})
	require.Error(t, err)
	tests, _ := store.ListTests(context.Background(), "")
	assert.Empty(t, tests, "nothing is written when a file fails lint")

	cfg := writeTemp(t, dir, "config.yaml", "server:\n  port: \"0\"\n")
	_, err = run(t, "", "--config", cfg, "seed", broken)
	assert.ErrorContains(t, err, "postgres url or sqlite path")
}

func TestLintCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeTemp(t, dir, "cat.yaml", catDefinition)
	broken := writeTemp(t, dir, "broken.yaml", brokenDefinition)

	out, err := run(t, "", "lint", good)
	require.NoError(t, err)
	assert.Contains(t, out, "no result for 14 code(s)")

	out, err = run(t, "", "lint", good, broken)
	assert.ErrorContains(t, err, "1 definition(s) failed lint")
	assert.Contains(t, out, "question 1 has no options")
}

func TestShippedSeedsLintClean(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "seeds", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	out, err := run(t, "", append([]string{"lint"}, paths...)...)
	require.NoError(t, err)
	assert.Equal(t, len(paths), strings.Count(out, ": ok"), out)
}

func TestTemplateCommand(t *testing.T) {
	out, err := run(t, "", "template", "--title", "Starter")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Starter")
	assert.Contains(t, out, "mode: mbti")
	assert.Equal(t, 16, strings.Count(out, "code: "))

	path := filepath.Join(t.TempDir(), "tpl.yaml")
	_, err = run(t, "", "template", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "New personality test")
}

func TestPlayEmptyTest(t *testing.T) {
	dir := t.TempDir()
	def := writeTemp(t, dir, "empty.yaml", "id: empty\ntitle: Empty\nmode: score\nresults:\n  - title: Any\n")
	store := memory.NewStaticCatalog()
	_, err := seedFiles(context.Background(), store, []string{def})
	require.NoError(t, err)

	var out bytes.Buffer
	service := app.NewQuizService(store, memory.NewSessionStore(time.Minute))
	require.NoError(t, play(context.Background(), service, "empty", nil, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "no questions")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
