package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-billing/internal/app/core"
	"github.com/magabrotheeeer/subscription-billing/internal/config"
)

// displayDate дата календаря отображения в выводе CLI.
type displayDate struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
	Display string `json:"display"`
	Instant string `json:"instant"`
}

func newCalendarCommand() *cobra.Command {
	var cal config.Calendar

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Convert dates between the Gregorian and display calendars",
	}
	cmd.PersistentFlags().StringVar(&cal.Location, "location", "Asia/Kathmandu", "Business timezone")
	cmd.PersistentFlags().StringVar(&cal.TablePath, "table", "", "Path to a month-length table (default: built-in)")

	cmd.AddCommand(newToDisplayCommand(&cal), newFromDisplayCommand(&cal))
	return cmd
}

func newToDisplayCommand(cfg *config.Calendar) *cobra.Command {
	return &cobra.Command{
		Use:   "to-display YYYY-MM-DD",
		Short: "Print the display date of a Gregorian day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := core.NewCalendar(*cfg)
			if err != nil {
				return err
			}
			day, err := time.ParseInLocation(time.DateOnly, args[0], cal.Location())
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", args[0], err)
			}
			d, err := cal.ToDisplay(day)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), displayDate{
				Year: d.Year, Month: d.Month, Day: d.Day,
				Display: d.String(),
				Instant: day.Format(time.RFC3339),
			})
		},
	}
}

func newFromDisplayCommand(cfg *config.Calendar) *cobra.Command {
	var year, month, day int

	cmd := &cobra.Command{
		Use:   "from-display",
		Short: "Print the instant a display date starts at",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cal, err := core.NewCalendar(*cfg)
			if err != nil {
				return err
			}
			instant, err := cal.FromDisplay(year, month, day)
			if err != nil {
				return err
			}
			d, err := cal.ToDisplay(instant)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), displayDate{
				Year: d.Year, Month: d.Month, Day: d.Day,
				Display: d.String(),
				Instant: instant.Format(time.RFC3339),
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Display year")
	cmd.Flags().IntVar(&month, "month", 0, "Month index, 0-11")
	cmd.Flags().IntVar(&day, "day", 0, "Day of month, from 1")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}
