package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/config"
	"persona-quiz-service/internal/domain"
	"persona-quiz-service/internal/infra/memory"
	"persona-quiz-service/internal/infra/postgres"
	infraredis "persona-quiz-service/internal/infra/redis"
	"persona-quiz-service/internal/infra/sqlite"
	"persona-quiz-service/internal/studio"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// catalogStore is the read and write surface every catalog backend offers.
type catalogStore interface {
	app.Catalog
	app.ViewCounter
	ReplaceTest(ctx context.Context, quiz domain.Quiz) (string, error)
	DeleteTest(ctx context.Context, testID string) error
}

// backend wires storage from config: Postgres, then SQLite, then an
// in-memory catalog filled from the configured seed files. Redis, when
// configured, caches catalog reads and holds sessions.
type backend struct {
	store      catalogStore
	catalog    app.Catalog
	sessions   app.SessionRepository
	invalidate func(ctx context.Context, testID string) error
	closers    []func()
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}

	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg, false); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.store = postgres.NewStore(pool)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.store = store
	default:
		b.store = memory.NewStaticCatalog()
		if len(cfg.Seeds) == 0 {
			log.Printf("no catalog backend or seeds configured; catalog is empty")
		}
		if _, err := seedFiles(ctx, b.store, cfg.Seeds); err != nil {
			b.Close()
			return nil, err
		}
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		cached := infraredis.NewCachedCatalog(client, b.store, catalogTTL)
		b.catalog = cached
		b.invalidate = cached.Invalidate
		b.sessions = infraredis.NewSessionStore(client, sessionTTL)
	} else {
		cached := memory.NewCachedCatalog(b.store, catalogTTL)
		b.catalog = cached
		b.invalidate = func(_ context.Context, testID string) error {
			cached.Invalidate(testID)
			return nil
		}
		b.sessions = memory.NewSessionStore(sessionTTL)
	}
	return b, nil
}

func (b *backend) service(opts ...app.Option) *app.QuizService {
	opts = append([]app.Option{app.WithViewCounter(b.store)}, opts...)
	return app.NewQuizService(b.catalog, b.sessions, opts...)
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// seedFiles parses, lints and stores each definition. Files with lint
// errors are rejected before anything is written.
func seedFiles(ctx context.Context, store catalogStore, paths []string) ([]string, error) {
	quizzes := make([]domain.Quiz, 0, len(paths))
	for _, path := range paths {
		quiz, err := readDefinitionFile(path)
		if err != nil {
			return nil, err
		}
		issues := studio.Lint(quiz)
		for _, is := range issues {
			log.Printf("%s: %s", path, is)
		}
		if studio.HasErrors(issues) {
			return nil, fmt.Errorf("%s: definition has lint errors", path)
		}
		quizzes = append(quizzes, quiz)
	}

	ids := make([]string, 0, len(quizzes))
	for i, quiz := range quizzes {
		id, err := store.ReplaceTest(ctx, quiz)
		if err != nil {
			return ids, fmt.Errorf("seed %s: %w", paths[i], err)
		}
		log.Printf("seeded %q as %s", quiz.Test.Title, id)
		ids = append(ids, id)
	}
	return ids, nil
}

func readDefinitionFile(path string) (domain.Quiz, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Quiz{}, err
	}
	defer f.Close()
	quiz, err := studio.ReadDefinition(f)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%s: %w", path, err)
	}
	return quiz, nil
}
