package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/issuestats/issuestats/internal/model"
	"github.com/issuestats/issuestats/internal/report"
	"github.com/issuestats/issuestats/internal/tracker"
)

var (
	runLabel     string
	runMilestone string
	runDisplay   string
	runAuthorize bool
	runOffline   bool
)

var runCmd = &cobra.Command{
	Use:   "run <owner/repo>",
	Short: "Fetch a project's issues and render reports over them",
	Long: `Run fetches all issues from a project (open and closed, with change
histories), caches them locally, and renders the reports selected by
the display list.

The display list is a comma-separated sequence of report requests:

  count:all              total number of issues
  count:<prop>=<value>   issues whose property matches a value
  groups:<prop>          per-value tallies for one property
  groups:all             per-value tallies for every property
  quantiles:<prop>       min/p25/median/p75/max for a numeric property
  graph:change           issues opened and closed per week
  graph:<prop>           per-value counts per week

With --offline no network requests are made and the last cached
snapshot is reported instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runLabel, "label", "", "only include issues carrying this label")
	runCmd.Flags().StringVar(&runMilestone, "milestone", "", "only include issues in this milestone")
	runCmd.Flags().StringVar(&runDisplay, "display", "", "display list selecting which reports to render")
	runCmd.Flags().BoolVar(&runAuthorize, "authorize", false, "authenticate as a GitHub App installation")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "report from the local cache without fetching")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	owner, repo, err := splitProject(args[0])
	if err != nil {
		return err
	}

	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Parse the display list before touching the network or the cache so
	// a bad request fails immediately.
	display := runDisplay
	if display == "" {
		display = cfg.Report.Display
	}
	reqs, err := report.ParseDisplay(display)
	if err != nil {
		return err
	}

	c, err := initComponents(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Store.Close()

	ctx := context.Background()

	issues, err := collectIssues(ctx, c, owner, repo)
	if err != nil {
		return err
	}

	terminal := model.TerminalSet(cfg.Report.TerminalStatuses)
	for i := range issues {
		// IntegrityError already names the issue.
		if err := issues[i].VerifyHistory(); err != nil {
			return err
		}
		if issues[i].Closed == nil && terminal[issues[i].Status] {
			issues[i].Closed = issues[i].CloseTime(terminal)
		}
	}

	issues = report.Filter(issues, runLabel, runMilestone)
	logger.Debug("reporting", "project", args[0], "issues", len(issues), "reports", len(reqs))

	blocks := report.Generate(issues, reqs, cfg.Report.BinDays)
	report.Render(os.Stdout, blocks)
	return nil
}

// collectIssues returns the project's issue collection: freshly fetched and
// cached in online mode, the last cached snapshot in offline mode.
func collectIssues(ctx context.Context, c *components, owner, repo string) ([]model.Issue, error) {
	project, err := c.Store.EnsureProject(owner, repo)
	if err != nil {
		return nil, fmt.Errorf("ensuring project record: %w", err)
	}

	if runOffline {
		if project.LastFetchedAt == nil {
			return nil, fmt.Errorf("no cached snapshot for %s/%s: run without --offline first", owner, repo)
		}
		issues, err := c.Store.LoadIssues(project.ID)
		if err != nil {
			return nil, fmt.Errorf("loading cached issues: %w", err)
		}
		return issues, nil
	}

	client, err := newTrackerClient(ctx, c.Config, runAuthorize)
	if err != nil {
		return nil, err
	}

	fetcher := tracker.NewFetcher(client, c.Logger)
	issues, err := fetcher.FetchProject(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching %s/%s: %w", owner, repo, err)
	}

	if err := c.Store.ReplaceIssues(project.ID, issues); err != nil {
		return nil, fmt.Errorf("caching issues: %w", err)
	}
	if err := c.Store.TouchFetched(project.ID); err != nil {
		return nil, fmt.Errorf("recording fetch time: %w", err)
	}
	return issues, nil
}
