package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/cli/commands"
	"github.com/drimsoft/planifika-admin/internal/client"
	"github.com/drimsoft/planifika-admin/internal/logger"
)

var version = "dev" // Will be set during build

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "planifika",
	Short: "Planifika - Drimsoft admin console",
	Long: `Planifika CLI - Administer the Planifika platform from your terminal.

Sign in with your Drimsoft account to manage organizations, internal users
and the support ticket queue.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Logs go to stderr so they never mix with command output
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.InitWithWriter(level, "console", os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Server alias or API URL (uses the selected server if not specified)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "planifika version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewStatsCmd())
	rootCmd.AddCommand(commands.NewOrgsCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewTicketsCmd())
	rootCmd.AddCommand(commands.NewAdminsCmd())
}

// Execute runs the root command. Ctrl-C cancels the request in flight.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if client.IsUnauthorized(err) {
			fmt.Fprintln(os.Stderr, "Your session was rejected by the backend. Run 'planifika login' again.")
		}
		return err
	}
	return nil
}
