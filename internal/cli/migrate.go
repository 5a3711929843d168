package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-billing/internal/migrations"
	"github.com/magabrotheeeer/subscription-billing/internal/storage"
)

func newMigrateCommand(load configLoader) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			db, err := storage.New(cfg.StorageConnectionString)
			if err != nil {
				return err
			}
			defer db.Close()

			if !statusOnly {
				if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
					return err
				}
				log.Info("migrations applied", slog.String("path", cfg.MigrationsPath))
			}
			version, dirty, err := migrations.Version(db.DB, cfg.MigrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d, dirty %t\n", version, dirty)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only print the current schema version")
	return cmd
}
