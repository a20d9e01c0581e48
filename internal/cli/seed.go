package cli

import (
	"fmt"

	"persona-quiz-service/internal/config"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads YAML definitions into the configured catalog, replacing
// any test with the same id.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <definition.yaml>...",
		Short: "Publish quiz definitions to the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" && cfg.SQLite.Path == "" {
				return fmt.Errorf("seed needs a postgres url or sqlite path")
			}
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			ids, err := seedFiles(ctx, b.store, args)
			for _, id := range ids {
				if ierr := b.invalidate(ctx, id); ierr != nil {
					return ierr
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return err
		},
	}
}
