// Package cli содержит команды billingctl.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-billing/internal/config"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/logger"
)

// NewRootCommand собирает дерево команд billingctl.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "billingctl",
		Short:         "Subscription billing administrative tool",
		Long:          `billingctl runs the daily pass on demand, applies migrations, bootstraps the first operator and converts calendar dates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: $CONFIG_PATH)")

	loadConfig := func() (*config.Config, *slog.Logger, error) {
		path := configPath
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		if path == "" {
			return nil, nil, fmt.Errorf("config path is not set, use --config or CONFIG_PATH")
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		// stdout занят результатом команды.
		return cfg, logger.NewWithWriter(cfg.Env, os.Stderr), nil
	}

	root.AddCommand(
		newDailyPassCommand(loadConfig),
		newMigrateCommand(loadConfig),
		newUserCommand(loadConfig),
		newCalendarCommand(),
	)
	return root
}

type configLoader func() (*config.Config, *slog.Logger, error)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
