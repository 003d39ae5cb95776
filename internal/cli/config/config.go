package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	appconfig "github.com/drimsoft/planifika-admin/internal/config"
)

const ConfigFileName = "planifika.yaml"

const defaultTimeout = 30 * time.Second

// Server is one Planifika backend deployment the CLI can talk to. Only the
// core API URL is required; the other services default to it, except stats.
type Server struct {
	Alias             string `yaml:"alias"`
	APIBaseURL        string `yaml:"api_url"`
	OrganizationsURL  string `yaml:"organizations_url,omitempty"`
	TicketsURL        string `yaml:"tickets_url,omitempty"`
	PlanifikaUsersURL string `yaml:"planifika_users_url,omitempty"`
	StatsURL          string `yaml:"stats_url,omitempty"`
}

// Config represents the CLI configuration file
type Config struct {
	Servers []Server `yaml:"servers"`
	// Timeout bounds every backend request, e.g. "30s"
	Timeout string `yaml:"timeout,omitempty"`
}

// DefaultConfig returns a configuration pointing at a local backend
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				Alias:      "local",
				APIBaseURL: "http://localhost:8080/api/v1",
				StatsURL:   "http://localhost:5000",
			},
		},
	}
}

// FindConfigFile searches for planifika.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find planifika.yaml or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}

// RequestTimeout parses Timeout, falling back to 30 seconds
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// Backend resolves the backend URLs of s. Environment variables override the
// file so CI can point the CLI elsewhere; the Planifika service key is only
// ever read from the environment.
func (s Server) Backend(timeout time.Duration) appconfig.BackendConfig {
	apiURL := envOr("PLANIFIKA_API_URL", s.APIBaseURL)

	return appconfig.BackendConfig{
		APIBaseURL:              apiURL,
		OrganizationsURL:        envOr("PLANIFIKA_ORGANIZATIONS_URL", firstNonEmpty(s.OrganizationsURL, apiURL)),
		TicketsURL:              envOr("PLANIFIKA_TICKETS_URL", firstNonEmpty(s.TicketsURL, apiURL)),
		PlanifikaUsersURL:       envOr("PLANIFIKA_USERS_API_URL", s.PlanifikaUsersURL),
		PlanifikaServiceRoleKey: os.Getenv("PLANIFIKA_SERVICE_ROLE_KEY"),
		StatsURL:                envOr("PLANIFIKA_STATS_URL", s.StatsURL),
		Timeout:                 timeout,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
