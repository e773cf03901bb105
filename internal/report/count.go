package report

import "github.com/issuestats/issuestats/internal/model"

// Count returns the number of issues in the request's scope: all of them,
// or those whose property value matches the requested value.
func Count(issues []model.Issue, req Request) int {
	if req.All {
		return len(issues)
	}

	prop := mustLookup(req.Prop)
	n := 0
	for i := range issues {
		if prop.extract(&issues[i]).matches(req.Value) {
			n++
		}
	}
	return n
}
