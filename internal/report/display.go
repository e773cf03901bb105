package report

import (
	"fmt"
	"strings"

	"github.com/issuestats/issuestats/internal/model"
)

// DefaultDisplay is used when no --display list is given.
const DefaultDisplay = "count:all,groups:all"

// Kind is the report kind of a display request.
type Kind int

const (
	KindCount Kind = iota
	KindGroups
	KindQuantile
	KindGraph
)

// Request is one parsed unit of the --display mini-language. Requests are
// immutable once parsed and consumed read-only by the aggregators.
type Request struct {
	Kind   Kind
	All    bool           // count:all or groups:all
	Change bool           // graph:change
	Prop   model.Property // set unless All or Change
	Value  string         // count:<prop>=<val>
}

// ParseError describes a malformed --display token. Parsing fails the whole
// run before any fetching or aggregation happens.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad display token %q: %s", e.Token, e.Reason)
}

// ParseDisplay parses a comma-separated display list into an ordered
// sequence of requests. Order and duplicates are preserved.
func ParseDisplay(s string) ([]Request, error) {
	if s == "" {
		s = DefaultDisplay
	}

	var reqs []Request
	for _, token := range strings.Split(s, ",") {
		req, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func parseToken(token string) (Request, error) {
	kind, rest, ok := strings.Cut(token, ":")
	if !ok {
		return Request{}, &ParseError{Token: token, Reason: "missing ':'"}
	}

	switch kind {
	case "count":
		if rest == "all" {
			return Request{Kind: KindCount, All: true}, nil
		}
		name, val, ok := strings.Cut(rest, "=")
		if !ok {
			return Request{}, &ParseError{Token: token, Reason: "want count:all or count:<prop>=<value>"}
		}
		prop, err := knownProperty(token, name)
		if err != nil {
			return Request{}, err
		}
		if val == "" {
			return Request{}, &ParseError{Token: token, Reason: "missing value after '='"}
		}
		return Request{Kind: KindCount, Prop: prop.name, Value: val}, nil

	case "groups":
		if rest == "all" {
			return Request{Kind: KindGroups, All: true}, nil
		}
		prop, err := knownProperty(token, rest)
		if err != nil {
			return Request{}, err
		}
		return Request{Kind: KindGroups, Prop: prop.name}, nil

	case "quantiles":
		prop, err := knownProperty(token, rest)
		if err != nil {
			return Request{}, err
		}
		if prop.ordinal == nil {
			return Request{}, &ParseError{Token: token, Reason: fmt.Sprintf("property %q is not ordered", rest)}
		}
		return Request{Kind: KindQuantile, Prop: prop.name}, nil

	case "graph":
		if rest == "change" {
			return Request{Kind: KindGraph, Change: true}, nil
		}
		prop, err := knownProperty(token, rest)
		if err != nil {
			return Request{}, err
		}
		return Request{Kind: KindGraph, Prop: prop.name}, nil

	default:
		return Request{}, &ParseError{Token: token, Reason: fmt.Sprintf("unknown report kind %q", kind)}
	}
}

func knownProperty(token, name string) (*property, error) {
	prop, ok := lookup(name)
	if !ok {
		return nil, &ParseError{Token: token, Reason: fmt.Sprintf("unknown property %q", name)}
	}
	return prop, nil
}
