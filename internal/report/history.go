package report

import (
	"sort"
	"time"

	"github.com/issuestats/issuestats/internal/model"
)

// stateIndex precomputes an issue's snapshot after each history event so a
// graph report can look up "state as of T" with a binary search instead of
// replaying the history once per time bin.
type stateIndex struct {
	published time.Time
	times     []time.Time
	states    []model.Snapshot // states[i] is effective from times[i]
}

func newStateIndex(is *model.Issue) *stateIndex {
	ix := &stateIndex{published: is.Published}

	s := is.AtPublish()
	ix.times = append(ix.times, is.Published)
	ix.states = append(ix.states, s)

	for _, ev := range is.History {
		next, err := model.Apply(s, ev)
		if err != nil {
			// Histories are verified before aggregation; if one slips
			// through anyway, carry the prior state forward.
			next = s
		}
		s = next
		ix.times = append(ix.times, ev.Timestamp)
		ix.states = append(ix.states, s)
	}
	return ix
}

// at returns the issue's snapshot as of instant t, considering only events
// strictly before t. For t at or before publish this is the publish snapshot.
func (ix *stateIndex) at(t time.Time) model.Snapshot {
	// First index whose effective time is not before t; the state in force
	// is the one just prior.
	i := sort.Search(len(ix.times), func(i int) bool {
		return !ix.times[i].Before(t)
	})
	if i == 0 {
		return ix.states[0]
	}
	return ix.states[i-1]
}
