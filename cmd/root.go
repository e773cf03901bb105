package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/issuestats/issuestats/internal/config"
	"github.com/issuestats/issuestats/internal/store"
	"github.com/issuestats/issuestats/internal/tracker"

	gogithub "github.com/google/go-github/v60/github"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "issuestats",
	Short: "Aggregate statistics over a project's issue tracker",
	Long: `Issuestats fetches a project's issues, with their change histories,
and renders textual reports over them: counts, grouped tallies,
quantiles, and time-series graphs, selected with a small display
mini-language.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".issuestats/config.yaml"
	}
	return home + "/.issuestats/config.yaml"
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
	}
	return config.Load(path)
}

// components holds initialized components for use by subcommands.
type components struct {
	Config *config.Config
	Store  *store.DB
	Logger *slog.Logger
}

// initComponents opens the snapshot cache from config.
func initComponents(cfg *config.Config, logger *slog.Logger) (*components, error) {
	path := expandPath(cfg.Store.Path)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &components{Config: cfg, Store: db, Logger: logger}, nil
}

// newTrackerClient builds an authenticated GitHub client. With useApp set
// (the --authorize flag) it authenticates as a GitHub App installation;
// otherwise it uses the configured personal access token.
func newTrackerClient(ctx context.Context, cfg *config.Config, useApp bool) (*gogithub.Client, error) {
	if useApp || cfg.GitHub.Auth == "app" {
		appID, err := strconv.ParseInt(cfg.GitHub.AppID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing app_id: %w", err)
		}
		installID, err := strconv.ParseInt(cfg.GitHub.InstallationID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing installation_id: %w", err)
		}
		return tracker.NewAppClient(appID, installID, []byte(cfg.GitHub.PrivateKey), cfg.GitHub.PrivateKeyPath)
	}

	if cfg.GitHub.Token == "" {
		return nil, fmt.Errorf("no GitHub token configured (set github.token or GITHUB_TOKEN)")
	}
	return tracker.NewTokenClient(ctx, cfg.GitHub.Token), nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home + path[1:]
	}
	return path
}
