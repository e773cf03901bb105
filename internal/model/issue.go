package model

import (
	"time"
)

// Property names a reportable dimension of an issue.
type Property string

const (
	PropOwner     Property = "owner"
	PropPriority  Property = "priority"
	PropMilestone Property = "milestone"
	PropStatus    Property = "status"
	PropType      Property = "type"
	PropStars     Property = "stars"
	PropUpdated   Property = "updated"
	PropPublished Property = "published"
	PropLabel     Property = "label"
)

// trackedProperties are the properties recorded in change history, in the
// order used when applying or reporting a single event.
var trackedProperties = []Property{
	PropStatus, PropOwner, PropPriority, PropMilestone, PropType, PropLabel,
}

// Issue is the normalized in-memory representation of one tracked issue,
// including its change history.
type Issue struct {
	ID        int64
	Owner     string
	Priority  string
	Milestone string
	Status    string
	Type      string
	Stars     int
	Labels    []string
	Published time.Time
	Updated   time.Time
	Closed    *time.Time
	History   []ChangeEvent
}

// ChangeEvent records every property that changed on an issue at one
// timestamp. History is ordered by non-decreasing timestamp.
type ChangeEvent struct {
	Timestamp time.Time
	Changes   map[Property]Change
}

// Change is one property transition. Scalar properties use From/To;
// the label set uses Added/Removed deltas.
type Change struct {
	From    string
	To      string
	Added   []string
	Removed []string
}

// Snapshot is the state of an issue's historically tracked properties at
// a single instant. Stars, published and updated are not replayed.
type Snapshot struct {
	Owner     string
	Priority  string
	Milestone string
	Status    string
	Type      string
	Labels    map[string]bool
}

// Scalar returns the snapshot's value for a scalar tracked property.
func (s Snapshot) Scalar(p Property) (string, bool) {
	switch p {
	case PropOwner:
		return s.Owner, true
	case PropPriority:
		return s.Priority, true
	case PropMilestone:
		return s.Milestone, true
	case PropStatus:
		return s.Status, true
	case PropType:
		return s.Type, true
	}
	return "", false
}

func (s Snapshot) setScalar(p Property, v string) Snapshot {
	switch p {
	case PropOwner:
		s.Owner = v
	case PropPriority:
		s.Priority = v
	case PropMilestone:
		s.Milestone = v
	case PropStatus:
		s.Status = v
	case PropType:
		s.Type = v
	}
	return s
}

func (s Snapshot) cloneLabels() Snapshot {
	labels := make(map[string]bool, len(s.Labels))
	for l := range s.Labels {
		labels[l] = true
	}
	s.Labels = labels
	return s
}

// Equal reports whether two snapshots hold the same values.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Owner != o.Owner || s.Priority != o.Priority || s.Milestone != o.Milestone ||
		s.Status != o.Status || s.Type != o.Type {
		return false
	}
	if len(s.Labels) != len(o.Labels) {
		return false
	}
	for l := range s.Labels {
		if !o.Labels[l] {
			return false
		}
	}
	return true
}

// Current returns the issue's present-day snapshot built from its fields.
func (is *Issue) Current() Snapshot {
	labels := make(map[string]bool, len(is.Labels))
	for _, l := range is.Labels {
		labels[l] = true
	}
	return Snapshot{
		Owner:     is.Owner,
		Priority:  is.Priority,
		Milestone: is.Milestone,
		Status:    is.Status,
		Type:      is.Type,
		Labels:    labels,
	}
}

// AtPublish derives the issue's snapshot at publish time by un-applying the
// change history, newest first, starting from the current field values.
// An issue with no recorded history is treated as never changed since publish.
func (is *Issue) AtPublish() Snapshot {
	s := is.Current()
	for i := len(is.History) - 1; i >= 0; i-- {
		s = unapply(s, is.History[i])
	}
	return s
}

func unapply(s Snapshot, ev ChangeEvent) Snapshot {
	s = s.cloneLabels()
	for _, p := range trackedProperties {
		ch, ok := ev.Changes[p]
		if !ok {
			continue
		}
		if p == PropLabel {
			for _, l := range ch.Added {
				delete(s.Labels, l)
			}
			for _, l := range ch.Removed {
				s.Labels[l] = true
			}
			continue
		}
		s = s.setScalar(p, ch.From)
	}
	return s
}
