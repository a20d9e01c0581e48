package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"persona-quiz-service/internal/config"
	pgmigrations "persona-quiz-service/internal/infra/postgres/migrations"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies (or rolls back) the Postgres catalog schema.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run catalog database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runMigrationsWithConfig(cmd.Context(), cfg, rollback)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last migration group")
	return cmd
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, rollback bool) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	if rollback {
		group, err := migrator.Rollback(ctx)
		if err != nil {
			return err
		}
		log.Printf("rolled back %s", group)
		return nil
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("catalog schema up to date")
		return nil
	}
	log.Printf("migrations applied: %s", group)
	return nil
}
