package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/cli/config"
	"github.com/drimsoft/planifika-admin/internal/cli/serverselect"
	"github.com/drimsoft/planifika-admin/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [alias-or-url]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ planifika select-server                          # Interactive selection
  $ planifika select-server staging                  # Select by alias
  $ planifika select-server https://api.example.com  # Select by API URL`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var aliasOrURL string
			if len(args) > 0 {
				aliasOrURL = args[0]
			}
			return runSelectServer(aliasOrURL, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runSelectServer(aliasOrURL string, out io.Writer) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'planifika init' to create a configuration file", err)
	}

	var server *config.Server
	if aliasOrURL != "" {
		server, err = serverselect.GetServerByAliasOrURL(cfg, aliasOrURL)
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedServer(server.Alias); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(out, "Selected server: %s (%s)\n", server.Alias, server.APIBaseURL)
	return nil
}
