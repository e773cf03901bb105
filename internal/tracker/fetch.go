package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gogithub "github.com/google/go-github/v60/github"

	"github.com/issuestats/issuestats/internal/model"
	"github.com/issuestats/issuestats/internal/retry"
)

const perPage = 100

// Fetcher pulls a project's full issue collection, change histories
// included, from the remote tracker.
type Fetcher struct {
	gh  *gogithub.Client
	log *slog.Logger
}

// NewFetcher creates a Fetcher over an authenticated GitHub client.
func NewFetcher(client *gogithub.Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{gh: client, log: logger}
}

// FetchProject lists every issue in owner/repo (open and closed, pull
// requests excluded) and materializes each one with its timeline replayed
// into a change history.
func (f *Fetcher) FetchProject(ctx context.Context, owner, repo string) ([]model.Issue, error) {
	ghIssues, err := f.listIssues(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	f.log.Debug("listed issues", "project", owner+"/"+repo, "count", len(ghIssues))

	issues := make([]model.Issue, 0, len(ghIssues))
	for _, gh := range ghIssues {
		timeline, err := f.listTimeline(ctx, owner, repo, gh.GetNumber())
		if err != nil {
			return nil, fmt.Errorf("fetching timeline for #%d: %w", gh.GetNumber(), err)
		}
		issues = append(issues, convertIssue(gh, timeline))
	}
	return issues, nil
}

func (f *Fetcher) listIssues(ctx context.Context, owner, repo string) ([]*gogithub.Issue, error) {
	var all []*gogithub.Issue
	opts := &gogithub.IssueListByRepoOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: gogithub.ListOptions{PerPage: perPage},
	}

	for {
		var issues []*gogithub.Issue
		var resp *gogithub.Response
		err := retry.Do(ctx, retry.DefaultMaxAttempts, func() error {
			var err error
			issues, resp, err = f.gh.Issues.ListByRepo(ctx, owner, repo, opts)
			if err != nil {
				if werr := f.waitIfLimited(ctx, resp); werr != nil {
					return werr
				}
			}
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("listing issues: %w", err)
		}

		for _, gh := range issues {
			if gh.PullRequestLinks != nil {
				continue // skip PRs
			}
			all = append(all, gh)
		}

		if err := f.throttle(ctx, resp); err != nil {
			return nil, err
		}
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

func (f *Fetcher) listTimeline(ctx context.Context, owner, repo string, number int) ([]*gogithub.Timeline, error) {
	var all []*gogithub.Timeline
	opts := &gogithub.ListOptions{PerPage: perPage}

	for {
		var events []*gogithub.Timeline
		var resp *gogithub.Response
		err := retry.Do(ctx, retry.DefaultMaxAttempts, func() error {
			var err error
			events, resp, err = f.gh.Issues.ListIssueTimeline(ctx, owner, repo, number, opts)
			if err != nil {
				if werr := f.waitIfLimited(ctx, resp); werr != nil {
					return werr
				}
			}
			return err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, events...)

		if err := f.throttle(ctx, resp); err != nil {
			return nil, err
		}
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// waitIfLimited sleeps until the rate limit window resets after a request
// was rejected with 403 or 429, so the next retry attempt has quota.
func (f *Fetcher) waitIfLimited(ctx context.Context, resp *gogithub.Response) error {
	if resp == nil || !IsRateLimitError(resp.Response) {
		return nil
	}
	wait := ParseRateLimit(resp.Response).WaitDuration()
	if wait <= 0 {
		return nil
	}
	f.log.Warn("rate limited, waiting for reset", "wait", wait.String())
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// throttle pauses until the rate limit window resets when the remaining
// request budget runs low.
func (f *Fetcher) throttle(ctx context.Context, resp *gogithub.Response) error {
	if resp == nil {
		return nil
	}
	info := ParseRateLimit(resp.Response)
	if !info.ShouldThrottle() {
		return nil
	}
	wait := info.WaitDuration()
	if wait <= 0 {
		return nil
	}
	f.log.Warn("rate limit low, backing off", "remaining", info.Remaining, "wait", wait.String())
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
