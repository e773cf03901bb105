package report

import (
	"sort"
	"time"

	"github.com/issuestats/issuestats/internal/model"
)

// DefaultBinDays is the width of a graph time bin.
const DefaultBinDays = 7

// ChangeBin is one time bin of the opened/closed graph. OpenTotal is the
// running cumulative opened minus cumulative closed through this bin.
type ChangeBin struct {
	Start     time.Time
	Opened    int
	Closed    int
	OpenTotal int
}

// ChangeGraph buckets issue open and close events into fixed-width bins
// spanning the earliest publish date through the latest update or close.
// Bins are chronological and gapless; an empty issue set yields no bins.
func ChangeGraph(issues []model.Issue, binDays int) []ChangeBin {
	start, end, ok := timeRange(issues)
	if !ok {
		return nil
	}
	width := binWidth(binDays)

	var bins []ChangeBin
	total := 0
	for cur := start; !cur.After(end); cur = cur.Add(width) {
		binEnd := cur.Add(width)
		bin := ChangeBin{Start: cur}
		for i := range issues {
			if inBin(issues[i].Published, cur, binEnd) {
				bin.Opened++
			}
			if c := issues[i].Closed; c != nil && inBin(*c, cur, binEnd) {
				bin.Closed++
			}
		}
		total += bin.Opened - bin.Closed
		bin.OpenTotal = total
		bins = append(bins, bin)
	}
	return bins
}

// PropBin is one time bin of a property graph: the distribution of the
// property's values across issues as of the end of the bin.
type PropBin struct {
	Start  time.Time
	Counts map[string]int
}

// PropGraph is the full time series for one property. Keys is the sorted
// union of every value observed in any bin.
type PropGraph struct {
	Prop model.Property
	Keys []string
	Bins []PropBin
}

// PropertyGraph reconstructs, for each bin, how many issues held each value
// of the property at the bin's end, replaying each issue's history via a
// per-issue point-in-time index.
func PropertyGraph(issues []model.Issue, p model.Property, binDays int) PropGraph {
	g := PropGraph{Prop: p}
	start, end, ok := timeRange(issues)
	if !ok {
		return g
	}
	width := binWidth(binDays)
	prop := mustLookup(p)

	var indexes []*stateIndex
	if prop.snapshot != nil {
		indexes = make([]*stateIndex, len(issues))
		for i := range issues {
			indexes[i] = newStateIndex(&issues[i])
		}
	}

	keys := make(map[string]bool)
	for cur := start; !cur.After(end); cur = cur.Add(width) {
		binEnd := cur.Add(width)
		bin := PropBin{Start: cur, Counts: make(map[string]int)}
		for i := range issues {
			if !issues[i].Published.Before(binEnd) {
				continue // not yet published at the end of this bin
			}
			var v Value
			if prop.snapshot != nil {
				v = prop.snapshot(indexes[i].at(binEnd))
			} else {
				// Untracked properties hold their current value from
				// publish onward.
				v = prop.extract(&issues[i])
			}
			if v.Multi {
				for _, s := range v.Set {
					bin.Counts[s]++
					keys[s] = true
				}
				continue
			}
			bin.Counts[v.Scalar]++
			keys[v.Scalar] = true
		}
		g.Bins = append(g.Bins, bin)
	}

	for k := range keys {
		g.Keys = append(g.Keys, k)
	}
	sort.Strings(g.Keys)
	return g
}

func binWidth(binDays int) time.Duration {
	if binDays <= 0 {
		binDays = DefaultBinDays
	}
	return time.Duration(binDays) * 24 * time.Hour
}

// timeRange spans the earliest publish (aligned to its UTC day) through the
// latest of updated/closed across the collection.
func timeRange(issues []model.Issue) (start, end time.Time, ok bool) {
	for i := range issues {
		is := &issues[i]
		if start.IsZero() || is.Published.Before(start) {
			start = is.Published
		}
		if is.Updated.After(end) {
			end = is.Updated
		}
		if is.Closed != nil && is.Closed.After(end) {
			end = *is.Closed
		}
	}
	if start.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	start = start.UTC().Truncate(24 * time.Hour)
	return start, end, true
}

func inBin(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
