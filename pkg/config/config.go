// Package config provides configuration for the drafter.
//
// Two layers exist. Settings configure the drafter process itself and are
// loaded from .drafter/config.yaml with precedence CLI flags > project config
// > defaults. Drafter options configure how one repository's release notes
// are drafted; they are read from the repository on every run and merged over
// built-in defaults (see drafter.go).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name for drafter settings
	ConfigDir = ".drafter"
	// ConfigFile is the name of the settings file
	ConfigFile = "config.yaml"
	// ConfigPath is the full path to the settings file relative to project root
	ConfigPath = ConfigDir + "/" + ConfigFile

	// DefaultDrafterConfigPath is where repositories keep their drafter options
	DefaultDrafterConfigPath = ".github/release-drafter.yml"
	// DefaultServerAddr is the default listen address of the webhook server
	DefaultServerAddr = ":8080"
	// DefaultWebhookSecretEnv names the environment variable holding the webhook secret
	DefaultWebhookSecretEnv = "DRAFTER_WEBHOOK_SECRET"
	// DefaultRunTimeout bounds one webhook-triggered pipeline run
	DefaultRunTimeout = 2 * time.Minute
)

// Settings represents the process-level configuration of the drafter.
type Settings struct {
	// LogLevel is the default log level (debug, info, progress, minimal)
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFile, when set, receives a rotated copy of every log line
	LogFile string `yaml:"log_file,omitempty"`

	// ConfigName is the repository path of the drafter options file
	ConfigName string `yaml:"config_name,omitempty"`

	// GitHub configures API access
	GitHub GitHubSettings `yaml:"github,omitempty"`

	// Server configures the webhook server
	Server ServerSettings `yaml:"server,omitempty"`
}

// GitHubSettings contains GitHub API overrides.
type GitHubSettings struct {
	// BaseURL overrides the API endpoint (GitHub Enterprise or tests)
	BaseURL string `yaml:"base_url,omitempty"`
}

// ServerSettings contains webhook server options.
type ServerSettings struct {
	// Addr is the listen address, e.g. ":8080"
	Addr string `yaml:"addr,omitempty"`

	// WebhookSecretEnv names the environment variable holding the webhook secret
	WebhookSecretEnv string `yaml:"webhook_secret_env,omitempty"`

	// RunTimeout bounds a single pipeline run, e.g. "2m"
	RunTimeout string `yaml:"run_timeout,omitempty"`
}

// Load loads the settings from the given directory.
// It searches for .drafter/config.yaml in the directory and its parents.
//
// If no settings file is found, it returns zero settings and nil error.
// If a settings file is found but cannot be parsed, it returns an error.
func Load(dir string) (*Settings, error) {
	configPath, err := findConfigPath(dir)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return &Settings{}, nil
	}

	return LoadFile(configPath)
}

// LoadFile loads settings from an explicit path.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &s, nil
}

// LoadFromCurrentDir loads the settings from the current working directory.
func LoadFromCurrentDir() (*Settings, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return Load(dir)
}

// findConfigPath searches for .drafter/config.yaml in dir and its parent directories.
// It returns the full path to the config file, or empty string if not found.
func findConfigPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		configPath := filepath.Join(absDir, ConfigPath)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parentDir := filepath.Dir(absDir)
		if parentDir == absDir {
			return "", nil
		}
		absDir = parentDir
	}
}

// ResolveString returns the effective value for a string configuration field.
// Precedence: cliValue > configValue > defaultValue.
// Returns the effective value and its source ("cli", "config", or "default").
func (s *Settings) ResolveString(cliValue, configValue, defaultValue string) (string, string) {
	if cliValue != "" {
		return cliValue, "cli"
	}
	if configValue != "" {
		return configValue, "config"
	}
	return defaultValue, "default"
}

// ResolveLogLevel returns the effective log level and its source.
func (s *Settings) ResolveLogLevel(cliValue, defaultValue string) (string, string) {
	return s.ResolveString(cliValue, s.LogLevel, defaultValue)
}

// ResolveLogFile returns the effective log file and its source.
func (s *Settings) ResolveLogFile(cliValue string) (string, string) {
	return s.ResolveString(cliValue, s.LogFile, "")
}

// ResolveConfigName returns the repository path of the drafter options file.
func (s *Settings) ResolveConfigName(cliValue string) (string, string) {
	return s.ResolveString(cliValue, s.ConfigName, DefaultDrafterConfigPath)
}

// ResolveBaseURL returns the effective GitHub API base URL and its source.
func (s *Settings) ResolveBaseURL(cliValue, defaultValue string) (string, string) {
	return s.ResolveString(cliValue, s.GitHub.BaseURL, defaultValue)
}

// ResolveServerAddr returns the effective webhook listen address.
func (s *Settings) ResolveServerAddr(cliValue string) (string, string) {
	return s.ResolveString(cliValue, s.Server.Addr, DefaultServerAddr)
}

// ResolveWebhookSecret reads the webhook secret from the configured
// environment variable. An empty secret disables signature checks.
func (s *Settings) ResolveWebhookSecret() string {
	env := s.Server.WebhookSecretEnv
	if env == "" {
		env = DefaultWebhookSecretEnv
	}
	return os.Getenv(env)
}

// ResolveRunTimeout returns the per-run timeout of the webhook server.
// A non-zero cliValue wins over server.run_timeout.
func (s *Settings) ResolveRunTimeout(cliValue time.Duration) (time.Duration, error) {
	if cliValue > 0 {
		return cliValue, nil
	}
	if s.Server.RunTimeout == "" {
		return DefaultRunTimeout, nil
	}
	d, err := time.ParseDuration(s.Server.RunTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid server.run_timeout %q: %w", s.Server.RunTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("server.run_timeout must be positive, got %s", d)
	}
	return d, nil
}
