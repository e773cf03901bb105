package cmd

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/issuestats/issuestats/internal/config"
)

func TestInitComponentsWithMemoryStore(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{Path: ":memory:"},
	}

	logger := slog.Default()
	c, err := initComponents(cfg, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Store.Close()

	if c.Store == nil {
		t.Error("expected Store to be non-nil")
	}
	if c.Config != cfg {
		t.Error("expected Config to match input")
	}
	if c.Logger != logger {
		t.Error("expected Logger to match input")
	}
}

func TestNewTrackerClientToken(t *testing.T) {
	cfg := &config.Config{
		GitHub: config.GitHubConfig{Auth: "token", Token: "ghp_testtoken"},
	}

	client, err := newTrackerClient(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected non-nil client")
	}
}

func TestNewTrackerClientNoToken(t *testing.T) {
	cfg := &config.Config{}

	_, err := newTrackerClient(context.Background(), cfg, false)
	if err == nil {
		t.Fatal("expected error without a configured token")
	}
	if !strings.Contains(err.Error(), "token") {
		t.Errorf("error should mention the missing token, got %q", err)
	}
}

func TestNewTrackerClientAppBadIDs(t *testing.T) {
	cfg := &config.Config{
		GitHub: config.GitHubConfig{
			Auth:           "app",
			AppID:          "not-a-number",
			InstallationID: "67890",
		},
	}

	_, err := newTrackerClient(context.Background(), cfg, false)
	if err == nil {
		t.Fatal("expected error for unparseable app_id")
	}

	// The --authorize flag forces app auth even with auth: token.
	cfg = &config.Config{
		GitHub: config.GitHubConfig{
			Auth:  "token",
			Token: "ghp_testtoken",
			AppID: "not-a-number",
		},
	}
	_, err = newTrackerClient(context.Background(), cfg, true)
	if err == nil {
		t.Fatal("expected error when --authorize is set with a bad app_id")
	}
}

func TestExpandPath(t *testing.T) {
	if got := expandPath("/tmp/x.db"); got != "/tmp/x.db" {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := expandPath(":memory:"); got != ":memory:" {
		t.Errorf(":memory: changed: %q", got)
	}
	got := expandPath("~/.issuestats/issuestats.db")
	if strings.HasPrefix(got, "~") {
		t.Errorf("tilde not expanded: %q", got)
	}
	if !strings.HasSuffix(got, "/.issuestats/issuestats.db") {
		t.Errorf("unexpected expansion: %q", got)
	}
}

func TestRunCommandRejectsBadDisplay(t *testing.T) {
	oldDisplay := runDisplay
	defer func() { runDisplay = oldDisplay }()

	rootCmd.SetArgs([]string{"run", "owner/repo", "--display", "bogus:all"})
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SilenceErrors = false
		rootCmd.SilenceUsage = false
	}()

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for unknown display token")
	}
	if !strings.Contains(err.Error(), "bogus:all") {
		t.Errorf("error should name the bad token, got %q", err)
	}
}

func TestRunCommandRejectsBadProject(t *testing.T) {
	rootCmd.SetArgs([]string{"run", "noslash"})
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SilenceErrors = false
		rootCmd.SilenceUsage = false
	}()

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for malformed project argument")
	}
}
