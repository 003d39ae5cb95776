package serverselect

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/drimsoft/planifika-admin/internal/cli/config"
	"github.com/drimsoft/planifika-admin/internal/cli/userconfig"
	"github.com/drimsoft/planifika-admin/internal/logger"
	"github.com/drimsoft/planifika-admin/internal/tokenstore"
)

// ResolveServer picks the backend a command talks to. An explicit
// --server wins, then the server chosen with select-server, then the only
// configured server. Otherwise the user is asked and the answer is kept
// as the new selection.
func ResolveServer(projectConfig *config.Config, serverAlias string) (*config.Server, error) {
	if serverAlias != "" {
		return GetServerByAliasOrURL(projectConfig, serverAlias)
	}

	selected, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	log := logger.GetLogger()
	if selected != "" {
		if server, err := projectConfig.GetServerByAlias(selected); err == nil {
			return server, nil
		}
		// The selection points at a server removed from planifika.yaml
		log.Debug().Str("alias", selected).Msg("Dropping stale server selection")
		_ = userconfig.SetSelectedServer("")
	}

	if len(projectConfig.Servers) == 1 {
		return &projectConfig.Servers[0], nil
	}

	server, err := PromptServerSelection(projectConfig)
	if err != nil {
		return nil, err
	}

	if err := userconfig.SetSelectedServer(server.Alias); err != nil {
		log.Warn().Err(err).Msg("Failed to save selected server")
	}

	return server, nil
}

// Label describes a server in pickers, noting whether a session is stored
// for it
func Label(server *config.Server) string {
	label := fmt.Sprintf("%s (%s)", server.Alias, server.APIBaseURL)
	if HasSession(server.Alias) {
		label += " [signed in]"
	}
	return label
}

// HasSession reports whether a session file exists for the server alias
func HasSession(alias string) bool {
	path, err := tokenstore.DefaultSessionPath(alias)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// PromptServerSelection asks the user to pick one of the configured servers
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		options[i] = serverOption{Label: Label(server), Server: server}
	}

	prompt := promptui.Select{
		Label: "Select a Planifika backend",
		Items: options,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ .Label | cyan }}",
			Inactive: "  {{ .Label }}",
			Selected: "{{ .Label | green }}",
		},
		Size: 10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}

// GetServerByAliasOrURL finds a server by alias, then by API URL. URLs
// match with or without a trailing slash.
func GetServerByAliasOrURL(cfg *config.Config, aliasOrURL string) (*config.Server, error) {
	if server, err := cfg.GetServerByAlias(aliasOrURL); err == nil {
		return server, nil
	}

	want := strings.TrimRight(aliasOrURL, "/")
	for i := range cfg.Servers {
		if strings.TrimRight(cfg.Servers[i].APIBaseURL, "/") == want {
			return &cfg.Servers[i], nil
		}
	}

	return nil, fmt.Errorf("server with alias or URL '%s' not found in %s", aliasOrURL, config.ConfigFileName)
}
