package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/domain"
	"persona-quiz-service/internal/infra/postgres"
	pgmigrations "persona-quiz-service/internal/infra/postgres/migrations"
	infraredis "persona-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestPlayEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL := startPostgres(t, ctx)
	redisURL := startRedis(t, ctx)
	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err, "connect pg")
	defer pool.Close()

	store := postgres.NewStore(pool)
	testID, err := store.ReplaceTest(ctx, sampleQuiz())
	require.NoError(t, err, "seed")

	opts, err := goredis.ParseURL(redisURL)
	require.NoError(t, err)
	redisClient := goredis.NewClient(opts)
	defer redisClient.Close()

	catalog := infraredis.NewCachedCatalog(redisClient, store, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(catalog, sessionStore, app.WithViewCounter(store))

	listed, err := service.Tests(ctx, "WEEKEND")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, testID, listed[0].ID)

	state, err := service.Start(ctx, testID)
	require.NoError(t, err)
	require.Len(t, state.Questions, 2)
	assert.Equal(t, "Plans or spontaneity?", state.Questions[0].Content, "questions in order index order")

	// Always the first option: J, then E; the untouched axes tie to S and T.
	for state.Phase == app.PhaseInProgress {
		q, _ := state.CurrentQuestion()
		state, err = service.Answer(ctx, state.ID, domain.AnswerSubmission{QuestionID: q.ID, OptionID: q.Options[0].ID})
		require.NoError(t, err)
	}
	require.Equal(t, app.PhaseCompleted, state.Phase)
	require.NotNil(t, state.Outcome)
	assert.Equal(t, "ESTJ", state.Outcome.Key.Code)
	require.True(t, state.Outcome.Found())
	assert.Equal(t, "Organizer", state.Outcome.Result.Title)

	// View counting is fire-and-forget; give it a moment.
	assert.Eventually(t, func() bool {
		test, err := store.GetTest(ctx, testID)
		return err == nil && test.ViewCount == 1
	}, 5*time.Second, 50*time.Millisecond, "view count reaches 1")

	outcome, err := service.Lookup(ctx, testID, domain.CodeKey("INFP"))
	require.NoError(t, err)
	assert.False(t, outcome.Found())

	require.NoError(t, store.DeleteTest(ctx, testID))
	require.NoError(t, catalog.Invalidate(ctx, testID))
	_, err = service.Start(ctx, testID)
	assert.ErrorIs(t, err, domain.ErrTestNotFound)
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container := startContainer(t, ctx, req)
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
}

func startRedis(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container := startContainer(t, ctx, req)
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s:%s", host, port.Port())
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest) tc.Container {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil && strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
		t.Skipf("docker not available: %v", err)
	}
	require.NoError(t, err, "start %s", req.Image)
	t.Cleanup(func() { _ = container.Terminate(ctx) })
	return container
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)
}

// sampleQuiz has no IDs on purpose; the store assigns them. The first
// question is listed second to check ordering by order index.
func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Test: domain.Test{Title: "Weekend plans", Mode: domain.ModeMBTI, ThemeColor: "#8b5cf6"},
		Questions: []domain.Question{
			{
				OrderIndex: 1,
				Content:    "Party or book?",
				Options: []domain.Option{
					{OrderIndex: 0, Content: "Party", Indicator: domain.IndicatorE},
					{OrderIndex: 1, Content: "Book", Indicator: domain.IndicatorI},
				},
			},
			{
				OrderIndex: 0,
				Content:    "Plans or spontaneity?",
				Options: []domain.Option{
					{OrderIndex: 0, Content: "Plans", Indicator: domain.IndicatorJ},
					{OrderIndex: 1, Content: "Spontaneity", Indicator: domain.IndicatorP},
				},
			},
		},
		Results: []domain.Result{
			{MBTICode: "ESTJ", Title: "Organizer"},
			{MBTICode: "ESTJ", Title: "Shadowed duplicate"},
		},
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
