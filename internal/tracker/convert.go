package tracker

import (
	"sort"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v60/github"

	"github.com/issuestats/issuestats/internal/model"
)

// Label prefixes carrying scalar properties, in the Google Code tradition:
// a "Pri-High" label gives the issue priority "High", "Type-Defect" gives
// it type "Defect". The labels stay in the label set as well.
const (
	priorityPrefix = "Pri-"
	typePrefix     = "Type-"
)

// statusOpen is the status assigned to open issues.
const statusOpen = "New"

// closedStatus maps a GitHub state reason to a terminal status value.
func closedStatus(stateReason string) string {
	switch stateReason {
	case "not_planned":
		return "WontFix"
	case "duplicate":
		return "Duplicate"
	default:
		return "Fixed"
	}
}

// convertIssue normalizes one GitHub issue plus its timeline into the
// internal model. The produced history is guaranteed to replay from the
// publish snapshot to the issue's current fields.
func convertIssue(gh *gogithub.Issue, timeline []*gogithub.Timeline) model.Issue {
	is := model.Issue{
		ID:        int64(gh.GetNumber()),
		Stars:     gh.GetReactions().GetTotalCount(),
		Milestone: gh.GetMilestone().GetTitle(),
		Published: gh.GetCreatedAt().Time,
		Updated:   gh.GetUpdatedAt().Time,
	}
	if gh.Assignee != nil {
		is.Owner = gh.Assignee.GetLogin()
	}
	for _, l := range gh.Labels {
		name := l.GetName()
		is.Labels = append(is.Labels, name)
		if v, ok := strings.CutPrefix(name, priorityPrefix); ok {
			is.Priority = v
		}
		if v, ok := strings.CutPrefix(name, typePrefix); ok {
			is.Type = v
		}
	}
	if gh.GetState() == "closed" {
		is.Status = closedStatus(gh.GetStateReason())
		if t := gh.GetClosedAt(); !t.Time.IsZero() {
			c := t.Time
			is.Closed = &c
		}
	} else {
		is.Status = statusOpen
	}

	is.History = buildHistory(&is, timeline, closedStatus(gh.GetStateReason()))
	return is
}

// buildHistory turns timeline events into a consistent change history: To
// values come from the events, From values are filled by a forward replay,
// and any residual gap between the replayed end state and the issue's
// current fields is closed with a reconciling event at the update time.
func buildHistory(is *model.Issue, timeline []*gogithub.Timeline, closeTo string) []model.ChangeEvent {
	events := rawEvents(timeline, closeTo)
	if len(events) == 0 {
		return nil
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	state := initialState(is, events)
	var history []model.ChangeEvent
	for _, ev := range events {
		applied := model.ChangeEvent{Timestamp: ev.Timestamp, Changes: map[model.Property]model.Change{}}
		for prop, ch := range ev.Changes {
			if prop == model.PropLabel {
				ch = trimLabelDelta(state.Labels, ch)
				if len(ch.Added) == 0 && len(ch.Removed) == 0 {
					continue
				}
				for _, l := range ch.Added {
					state.Labels[l] = true
				}
				for _, l := range ch.Removed {
					delete(state.Labels, l)
				}
				applied.Changes[prop] = ch
				continue
			}
			cur, _ := state.Scalar(prop)
			if cur == ch.To {
				continue // no-op transition
			}
			ch.From = cur
			state = setScalar(state, prop, ch.To)
			applied.Changes[prop] = ch
		}
		if len(applied.Changes) > 0 {
			history = append(history, applied)
		}
	}

	if rec, ok := reconcile(state, is.Current(), is.Updated); ok {
		history = append(history, rec)
	}
	return history
}

func rawEvents(timeline []*gogithub.Timeline, closeTo string) []model.ChangeEvent {
	var events []model.ChangeEvent
	for _, item := range timeline {
		ts := item.GetCreatedAt().Time
		if ts.IsZero() {
			continue
		}
		ev := model.ChangeEvent{Timestamp: ts, Changes: map[model.Property]model.Change{}}

		switch item.GetEvent() {
		case "labeled":
			name := item.GetLabel().GetName()
			if name == "" {
				continue
			}
			ev.Changes[model.PropLabel] = model.Change{Added: []string{name}}
			if v, ok := strings.CutPrefix(name, priorityPrefix); ok {
				ev.Changes[model.PropPriority] = model.Change{To: v}
			}
			if v, ok := strings.CutPrefix(name, typePrefix); ok {
				ev.Changes[model.PropType] = model.Change{To: v}
			}
		case "unlabeled":
			name := item.GetLabel().GetName()
			if name == "" {
				continue
			}
			ev.Changes[model.PropLabel] = model.Change{Removed: []string{name}}
			if strings.HasPrefix(name, priorityPrefix) {
				ev.Changes[model.PropPriority] = model.Change{To: ""}
			}
			if strings.HasPrefix(name, typePrefix) {
				ev.Changes[model.PropType] = model.Change{To: ""}
			}
		case "assigned":
			ev.Changes[model.PropOwner] = model.Change{To: item.GetAssignee().GetLogin()}
		case "unassigned":
			ev.Changes[model.PropOwner] = model.Change{To: ""}
		case "milestoned":
			ev.Changes[model.PropMilestone] = model.Change{To: item.GetMilestone().GetTitle()}
		case "demilestoned":
			ev.Changes[model.PropMilestone] = model.Change{To: ""}
		case "closed":
			ev.Changes[model.PropStatus] = model.Change{To: closeTo}
		case "reopened":
			ev.Changes[model.PropStatus] = model.Change{To: statusOpen}
		default:
			continue
		}
		events = append(events, ev)
	}
	return events
}

// initialState guesses the publish-time snapshot: properties never touched
// by an event keep their current value; touched scalars start unset (status
// starts open); the label set is the current one with all deltas un-applied.
func initialState(is *model.Issue, events []model.ChangeEvent) model.Snapshot {
	s := is.Current()

	touched := map[model.Property]bool{}
	for _, ev := range events {
		for p := range ev.Changes {
			touched[p] = true
		}
	}
	for _, p := range []model.Property{model.PropOwner, model.PropPriority, model.PropMilestone, model.PropType} {
		if touched[p] {
			s = setScalar(s, p, "")
		}
	}
	if touched[model.PropStatus] {
		s = setScalar(s, model.PropStatus, statusOpen)
	}

	for i := len(events) - 1; i >= 0; i-- {
		if ch, ok := events[i].Changes[model.PropLabel]; ok {
			for _, l := range ch.Added {
				delete(s.Labels, l)
			}
			for _, l := range ch.Removed {
				s.Labels[l] = true
			}
		}
	}
	return s
}

// trimLabelDelta drops additions of labels already present and removals of
// labels that are absent, so the delta stays replayable.
func trimLabelDelta(labels map[string]bool, ch model.Change) model.Change {
	out := model.Change{}
	for _, l := range ch.Added {
		if !labels[l] {
			out.Added = append(out.Added, l)
		}
	}
	for _, l := range ch.Removed {
		if labels[l] {
			out.Removed = append(out.Removed, l)
		}
	}
	return out
}

// reconcile produces a final event covering any gap between the replayed
// end state and the issue's current fields, so the history invariant holds
// even when the remote timeline is incomplete.
func reconcile(state, current model.Snapshot, at time.Time) (model.ChangeEvent, bool) {
	ev := model.ChangeEvent{Timestamp: at, Changes: map[model.Property]model.Change{}}

	for _, p := range []model.Property{model.PropStatus, model.PropOwner, model.PropPriority, model.PropMilestone, model.PropType} {
		from, _ := state.Scalar(p)
		to, _ := current.Scalar(p)
		if from != to {
			ev.Changes[p] = model.Change{From: from, To: to}
		}
	}

	var delta model.Change
	for l := range current.Labels {
		if !state.Labels[l] {
			delta.Added = append(delta.Added, l)
		}
	}
	for l := range state.Labels {
		if !current.Labels[l] {
			delta.Removed = append(delta.Removed, l)
		}
	}
	sort.Strings(delta.Added)
	sort.Strings(delta.Removed)
	if len(delta.Added) > 0 || len(delta.Removed) > 0 {
		ev.Changes[model.PropLabel] = delta
	}

	if len(ev.Changes) == 0 {
		return model.ChangeEvent{}, false
	}
	return ev, true
}

func setScalar(s model.Snapshot, p model.Property, v string) model.Snapshot {
	switch p {
	case model.PropOwner:
		s.Owner = v
	case model.PropPriority:
		s.Priority = v
	case model.PropMilestone:
		s.Milestone = v
	case model.PropStatus:
		s.Status = v
	case model.PropType:
		s.Type = v
	}
	return s
}
