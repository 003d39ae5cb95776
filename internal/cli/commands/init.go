package commands

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init [api-url]",
		Short: "Add a Planifika backend to ./planifika.yaml",
		Long: `Add a Planifika backend to ./planifika.yaml.

Without an API URL a configuration for a backend running on localhost is
written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			var apiURL string
			if len(args) > 0 {
				apiURL = args[0]
			}
			return runInit(dir, apiURL, alias, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Server alias (defaults to production, then server-N)")

	return cmd
}

func runInit(dir, apiURL, alias string, out io.Writer) error {
	configPath := filepath.Join(dir, config.ConfigFileName)

	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		return initLocal(configPath, out)
	}
	if u, err := url.Parse(apiURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API URL %q: expected something like https://api.example.com", apiURL)
	}

	var cfg *config.Config
	isNewConfig := false

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{Servers: []config.Server{}}
		isNewConfig = true
	}

	for _, server := range cfg.Servers {
		if server.APIBaseURL == apiURL {
			fmt.Fprintf(out, "Server %s already exists in %s (%s)\n", apiURL, config.ConfigFileName, server.Alias)
			return nil
		}
	}

	if alias == "" {
		if len(cfg.Servers) == 0 {
			alias = "production"
		} else {
			alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
		}
	}
	if _, err := cfg.GetServerByAlias(alias); err == nil {
		return fmt.Errorf("alias %q is already used in %s", alias, config.ConfigFileName)
	}

	cfg.Servers = append(cfg.Servers, config.Server{
		Alias:      alias,
		APIBaseURL: apiURL,
	})

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, apiURL, alias)
	} else {
		fmt.Fprintf(out, "✓ Added server %s (%s) to ./%s\n", apiURL, alias, config.ConfigFileName)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Add organizations_url, tickets_url and stats_url to ./%s if those services run elsewhere\n", config.ConfigFileName)
	fmt.Fprintln(out, "  2. Run 'planifika login' to authenticate")

	return nil
}

func initLocal(configPath string, out io.Writer) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists, pass an API URL to add a server", config.ConfigFileName)
	}

	cfg := config.DefaultConfig()
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, cfg.Servers[0].APIBaseURL, cfg.Servers[0].Alias)
	fmt.Fprintln(out, "\nRun 'planifika login' to authenticate")
	return nil
}
