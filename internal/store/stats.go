package store

import "fmt"

// ProjectStats holds cache statistics for a single project.
type ProjectStats struct {
	Project    Project
	IssueCount int
	OpenCount  int
	EventCount int
}

// GetProjectStats returns cache statistics for one project.
func (d *DB) GetProjectStats(projectID int64) (*ProjectStats, error) {
	var stats ProjectStats

	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM issues WHERE project_id = ?`, projectID,
	).Scan(&stats.IssueCount)
	if err != nil {
		return nil, fmt.Errorf("counting issues: %w", err)
	}

	err = d.db.QueryRow(
		`SELECT COUNT(*) FROM issues WHERE project_id = ? AND closed IS NULL`, projectID,
	).Scan(&stats.OpenCount)
	if err != nil {
		return nil, fmt.Errorf("counting open issues: %w", err)
	}

	err = d.db.QueryRow(
		`SELECT COUNT(*) FROM change_events WHERE project_id = ?`, projectID,
	).Scan(&stats.EventCount)
	if err != nil {
		return nil, fmt.Errorf("counting events: %w", err)
	}

	return &stats, nil
}

// GetAllProjectStats returns statistics for every cached project.
func (d *DB) GetAllProjectStats() ([]ProjectStats, error) {
	projects, err := d.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	var results []ProjectStats
	for _, p := range projects {
		stats, err := d.GetProjectStats(p.ID)
		if err != nil {
			return nil, fmt.Errorf("getting stats for %s/%s: %w", p.Owner, p.Repo, err)
		}
		stats.Project = p
		results = append(results, *stats)
	}

	return results, nil
}
