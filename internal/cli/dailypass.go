package cli

import (
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-billing/internal/app/core"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

func newDailyPassCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "daily-pass",
		Short: "Run reminders and grace expiry once",
		Long:  `Runs the daily pass synchronously as the system actor and prints the run summary as JSON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			c, err := core.New(cmd.Context(), cfg, log, nil)
			if err != nil {
				return err
			}
			defer c.Close()

			summary, err := c.Scheduler.RunDailyPass(cmd.Context(), models.SystemActor)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}
