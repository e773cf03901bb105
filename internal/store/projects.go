package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Project is one tracked owner/repo pair.
type Project struct {
	ID            int64
	Owner         string
	Repo          string
	LastFetchedAt *time.Time
	CreatedAt     time.Time
}

// GetProject retrieves a project by owner and repo name.
func (d *DB) GetProject(owner, repo string) (*Project, error) {
	row := d.db.QueryRow(`
		SELECT id, owner, repo, last_fetched_at, created_at
		FROM projects WHERE owner = ? AND repo = ?`,
		owner, repo,
	)
	return scanProject(row)
}

// CreateProject inserts a new project record.
func (d *DB) CreateProject(owner, repo string) (*Project, error) {
	res, err := d.db.Exec(`INSERT INTO projects (owner, repo) VALUES (?, ?)`, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting project id: %w", err)
	}
	return &Project{ID: id, Owner: owner, Repo: repo, CreatedAt: time.Now()}, nil
}

// EnsureProject returns the existing project or creates it.
func (d *DB) EnsureProject(owner, repo string) (*Project, error) {
	p, err := d.GetProject(owner, repo)
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	return d.CreateProject(owner, repo)
}

// ListProjects returns all cached projects ordered by owner/repo.
func (d *DB) ListProjects() ([]Project, error) {
	rows, err := d.db.Query(`
		SELECT id, owner, repo, last_fetched_at, created_at
		FROM projects ORDER BY owner, repo`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var fetched sql.NullString
		var created string
		if err := rows.Scan(&p.ID, &p.Owner, &p.Repo, &fetched, &created); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		if fetched.Valid {
			t, _ := time.Parse(time.RFC3339, fetched.String)
			p.LastFetchedAt = &t
		}
		p.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// TouchFetched records the time of the latest successful fetch.
func (d *DB) TouchFetched(projectID int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := d.db.Exec(`UPDATE projects SET last_fetched_at = ? WHERE id = ?`, now, projectID)
	if err != nil {
		return fmt.Errorf("updating fetch time: %w", err)
	}
	return nil
}

func scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var fetched sql.NullString
	var created string

	err := row.Scan(&p.ID, &p.Owner, &p.Repo, &fetched, &created)
	if err != nil {
		return nil, err
	}
	if fetched.Valid {
		t, _ := time.Parse(time.RFC3339, fetched.String)
		p.LastFetchedAt = &t
	}
	p.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
	return &p, nil
}
