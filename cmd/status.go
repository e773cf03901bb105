package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local snapshot cache overview",
	Long: `Display statistics about cached projects: issue counts, open issue
counts, change event counts, last fetch times, and database size.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c, err := initComponents(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Store.Close()

	allStats, err := c.Store.GetAllProjectStats()
	if err != nil {
		return fmt.Errorf("querying stats: %w", err)
	}

	if len(allStats) == 0 {
		fmt.Println("No projects cached yet.")
		fmt.Println("Run 'issuestats run <owner/repo>' to get started.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tISSUES\tOPEN\tEVENTS\tLAST FETCHED")
	fmt.Fprintln(w, "-------\t------\t----\t------\t------------")

	var totalIssues, totalOpen, totalEvents int
	for _, s := range allStats {
		projectName := fmt.Sprintf("%s/%s", s.Project.Owner, s.Project.Repo)
		lastFetched := "never"
		if s.Project.LastFetchedAt != nil {
			lastFetched = formatTimeAgo(*s.Project.LastFetchedAt)
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
			projectName, s.IssueCount, s.OpenCount, s.EventCount, lastFetched)

		totalIssues += s.IssueCount
		totalOpen += s.OpenCount
		totalEvents += s.EventCount
	}

	if len(allStats) > 1 {
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t\n", totalIssues, totalOpen, totalEvents)
	}
	w.Flush()

	fmt.Println()
	dbPath := expandPath(cfg.Store.Path)
	if size, err := dbFileSize(dbPath); err != nil {
		fmt.Printf("Database: %s (size unknown)\n", cfg.Store.Path)
	} else {
		fmt.Printf("Database: %s (%s)\n", cfg.Store.Path, formatBytes(size))
	}

	return nil
}

// formatTimeAgo formats a time as a human-readable relative string.
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

// formatBytes formats bytes into a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// dbFileSize returns the size in bytes of the database file.
func dbFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
