package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/models"
	"github.com/drimsoft/planifika-admin/internal/session"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	var chart string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the platform totals",
		Long: `Show the platform totals, or the data of one dashboard chart.

Charts: ` + strings.Join(models.Charts(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), chart, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().StringVar(&chart, "chart", "", "Print the data of one chart as JSON")

	return cmd
}

func runStats(ctx context.Context, chart string, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, session.LandingRoute); err != nil {
		return err
	}

	if chart != "" {
		if !slices.Contains(models.Charts(), chart) {
			return fmt.Errorf("unknown chart %q (available: %s)", chart, strings.Join(models.Charts(), ", "))
		}
		data, err := s.Services.Stats.Chart(ctx, chart)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(o.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	stats, err := s.Services.Stats.Stats(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Planifika users\t%d\n", stats.TotalUsersPlanifika)
	fmt.Fprintf(w, "Drimsoft users\t%d\n", stats.TotalUsersDrimsoft)
	fmt.Fprintf(w, "Projects\t%d\n", stats.TotalProjects)
	fmt.Fprintf(w, "Tasks\t%d\n", stats.TotalTasks)
	fmt.Fprintf(w, "Tickets\t%d\n", stats.TotalTickets)
	fmt.Fprintf(w, "Subscriptions\t%d\n", stats.TotalSubscriptions)
	fmt.Fprintf(w, "Revenue\t%.2f\n", stats.TotalRevenue)
	return w.Flush()
}
