package report

import (
	"strings"

	"github.com/issuestats/issuestats/internal/model"
)

// Filter narrows the issue collection before aggregation. A non-empty label
// keeps issues whose label set contains it (case-insensitive); a non-empty
// milestone keeps issues with that exact milestone. Both compose with AND.
// The input slice is never mutated; an empty result is valid.
func Filter(issues []model.Issue, label, milestone string) []model.Issue {
	if label == "" && milestone == "" {
		return issues
	}

	out := make([]model.Issue, 0, len(issues))
	for _, is := range issues {
		if label != "" && !hasLabel(&is, label) {
			continue
		}
		if milestone != "" && is.Milestone != milestone {
			continue
		}
		out = append(out, is)
	}
	return out
}

func hasLabel(is *model.Issue, label string) bool {
	for _, l := range is.Labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}
