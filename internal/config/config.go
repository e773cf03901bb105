package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/issuestats/issuestats/internal/model"
	"github.com/issuestats/issuestats/internal/report"
)

// Config is the top-level configuration.
type Config struct {
	GitHub GitHubConfig `yaml:"github"`
	Store  StoreConfig  `yaml:"store"`
	Report ReportConfig `yaml:"report"`
}

// GitHubConfig holds tracker authentication settings.
type GitHubConfig struct {
	Auth           string `yaml:"auth"` // "token" or "app"
	Token          string `yaml:"token"`
	AppID          string `yaml:"app_id"`
	InstallationID string `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	PrivateKey     string `yaml:"private_key"`
}

// StoreConfig holds snapshot cache settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ReportConfig holds report defaults.
type ReportConfig struct {
	Display          string   `yaml:"display"`
	BinDays          int      `yaml:"bin_days"`
	TerminalStatuses []string `yaml:"terminal_statuses"`
}

// envVarPattern matches ${VAR} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} placeholders with environment variable values.
// Returns an error if any referenced variable is not set.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []string

	result := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		val, ok := os.LookupEnv(string(varName))
		if !ok {
			missing = append(missing, string(varName))
			return match
		}
		return []byte(val)
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// Load reads and parses a config file from the given path. A missing file is
// not an error: the tool works with defaults and a GITHUB_TOKEN env var.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses config from raw YAML bytes, expanding env vars and validating.
func Parse(data []byte) (*Config, error) {
	expanded, err := expandEnvVars(data)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.GitHub.Auth == "" && cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.GitHub.Auth == "" && cfg.GitHub.Token != "" {
		cfg.GitHub.Auth = "token"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "~/.issuestats/issuestats.db"
	}
	if cfg.Report.Display == "" {
		cfg.Report.Display = report.DefaultDisplay
	}
	if cfg.Report.BinDays == 0 {
		cfg.Report.BinDays = report.DefaultBinDays
	}
	if len(cfg.Report.TerminalStatuses) == 0 {
		cfg.Report.TerminalStatuses = model.DefaultTerminalStatuses
	}
}

func validate(cfg *Config) error {
	validAuth := map[string]bool{"": true, "token": true, "app": true}
	if !validAuth[cfg.GitHub.Auth] {
		return fmt.Errorf("unsupported auth type: %s", cfg.GitHub.Auth)
	}

	if cfg.Report.BinDays < 0 {
		return fmt.Errorf("bin_days must be positive, got %d", cfg.Report.BinDays)
	}

	// The default display list must itself parse.
	if _, err := report.ParseDisplay(cfg.Report.Display); err != nil {
		return fmt.Errorf("invalid display default: %w", err)
	}

	return nil
}
