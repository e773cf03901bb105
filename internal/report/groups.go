package report

import (
	"sort"

	"github.com/issuestats/issuestats/internal/model"
)

// GroupEntry is one distinct observed value and its issue count.
type GroupEntry struct {
	Value string
	Count int
}

// Groups partitions issues by the property's value. Scalar properties put
// every issue in exactly one group (Unset included); the multi-valued label
// property counts an issue once per label it carries. Entries are ordered
// by descending count, ties broken by ascending value.
func Groups(issues []model.Issue, p model.Property) []GroupEntry {
	prop := mustLookup(p)

	counts := make(map[string]int)
	for i := range issues {
		v := prop.extract(&issues[i])
		if v.Multi {
			for _, s := range v.Set {
				counts[s]++
			}
			continue
		}
		counts[v.Scalar]++
	}

	entries := make([]GroupEntry, 0, len(counts))
	for v, n := range counts {
		entries = append(entries, GroupEntry{Value: v, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	return entries
}
