package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/issuestats/issuestats/internal/model"
)

// ReplaceIssues swaps the cached issue set for a project with a freshly
// fetched one, change histories included, in a single transaction.
func (d *DB) ReplaceIssues(projectID int64, issues []model.Issue) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM change_events WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clearing events: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM issues WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clearing issues: %w", err)
	}

	for i := range issues {
		if err := insertIssue(tx, projectID, &issues[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertIssue(tx *sql.Tx, projectID int64, is *model.Issue) error {
	labelsJSON, err := json.Marshal(is.Labels)
	if err != nil {
		return fmt.Errorf("marshaling labels: %w", err)
	}

	var closed any
	if is.Closed != nil {
		closed = is.Closed.UTC().Format(time.RFC3339)
	}

	_, err = tx.Exec(`
		INSERT INTO issues (project_id, number, owner, priority, milestone, status, type, stars, labels, published, updated, closed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, is.ID, is.Owner, is.Priority, is.Milestone, is.Status, is.Type,
		is.Stars, string(labelsJSON),
		is.Published.UTC().Format(time.RFC3339),
		is.Updated.UTC().Format(time.RFC3339),
		closed,
	)
	if err != nil {
		return fmt.Errorf("inserting issue %d: %w", is.ID, err)
	}

	for _, ev := range is.History {
		ts := ev.Timestamp.UTC().Format(time.RFC3339)
		for prop, ch := range ev.Changes {
			var added, removed any
			if len(ch.Added) > 0 {
				b, _ := json.Marshal(ch.Added)
				added = string(b)
			}
			if len(ch.Removed) > 0 {
				b, _ := json.Marshal(ch.Removed)
				removed = string(b)
			}
			_, err := tx.Exec(`
				INSERT INTO change_events (project_id, issue_number, ts, property, from_value, to_value, added, removed)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				projectID, is.ID, ts, string(prop), ch.From, ch.To, added, removed,
			)
			if err != nil {
				return fmt.Errorf("inserting event for issue %d: %w", is.ID, err)
			}
		}
	}
	return nil
}

// LoadIssues rebuilds the in-memory issue collection for a project from the
// cache, used for offline report runs.
func (d *DB) LoadIssues(projectID int64) ([]model.Issue, error) {
	rows, err := d.db.Query(`
		SELECT number, owner, priority, milestone, status, type, stars, labels, published, updated, closed
		FROM issues WHERE project_id = ? ORDER BY number`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	var issues []model.Issue
	byNumber := make(map[int64]int)
	for rows.Next() {
		var is model.Issue
		var owner, priority, milestone, typ, labels, closed sql.NullString
		var published, updated string

		err := rows.Scan(&is.ID, &owner, &priority, &milestone, &is.Status, &typ,
			&is.Stars, &labels, &published, &updated, &closed)
		if err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}

		is.Owner = owner.String
		is.Priority = priority.String
		is.Milestone = milestone.String
		is.Type = typ.String
		is.Published, _ = time.Parse(time.RFC3339, published)
		is.Updated, _ = time.Parse(time.RFC3339, updated)
		if closed.Valid {
			t, _ := time.Parse(time.RFC3339, closed.String)
			is.Closed = &t
		}
		if labels.Valid && labels.String != "" {
			_ = json.Unmarshal([]byte(labels.String), &is.Labels)
		}

		byNumber[is.ID] = len(issues)
		issues = append(issues, is)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := d.loadEvents(projectID, issues, byNumber); err != nil {
		return nil, err
	}
	return issues, nil
}

// loadEvents attaches change histories, merging rows that share an issue and
// timestamp back into single multi-property events.
func (d *DB) loadEvents(projectID int64, issues []model.Issue, byNumber map[int64]int) error {
	rows, err := d.db.Query(`
		SELECT issue_number, ts, property, from_value, to_value, added, removed
		FROM change_events WHERE project_id = ?
		ORDER BY issue_number, ts, id`,
		projectID,
	)
	if err != nil {
		return fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var number int64
		var ts, prop string
		var from, to, added, removed sql.NullString

		if err := rows.Scan(&number, &ts, &prop, &from, &to, &added, &removed); err != nil {
			return fmt.Errorf("scanning event: %w", err)
		}

		idx, ok := byNumber[number]
		if !ok {
			continue // event for an issue no longer cached
		}
		is := &issues[idx]

		when, _ := time.Parse(time.RFC3339, ts)
		ch := model.Change{From: from.String, To: to.String}
		if added.Valid && added.String != "" {
			_ = json.Unmarshal([]byte(added.String), &ch.Added)
		}
		if removed.Valid && removed.String != "" {
			_ = json.Unmarshal([]byte(removed.String), &ch.Removed)
		}

		n := len(is.History)
		if n > 0 && is.History[n-1].Timestamp.Equal(when) {
			is.History[n-1].Changes[model.Property(prop)] = ch
			continue
		}
		is.History = append(is.History, model.ChangeEvent{
			Timestamp: when,
			Changes:   map[model.Property]model.Change{model.Property(prop): ch},
		})
	}
	return rows.Err()
}
