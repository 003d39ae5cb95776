package userconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "planifika"
	configFileName = "config.yaml"
)

// UserConfig is the per-user state kept in ~/.config/planifika/config.yaml
type UserConfig struct {
	SelectedServer string `yaml:"selected_server"`
	// LastEmails maps a server alias to the email last used to sign in there
	LastEmails map[string]string `yaml:"last_emails,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetSelectedServer updates the selected server alias and saves the config
func SetSelectedServer(alias string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.SelectedServer = alias
	return Save(cfg)
}

// GetSelectedServer returns the selected server alias, or empty string if not set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedServer, nil
}

// SetLastEmail remembers the email used to sign in to the server alias
func SetLastEmail(alias, email string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	if cfg.LastEmails == nil {
		cfg.LastEmails = map[string]string{}
	}
	cfg.LastEmails[alias] = email
	return Save(cfg)
}

// LastEmail returns the email last used for the server alias, if any
func LastEmail(alias string) (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.LastEmails[alias], nil
}
