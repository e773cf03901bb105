package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/issuestats/issuestats/internal/model"
)

// Unset is the group key used for issues with no value for a scalar property.
const Unset = "(unset)"

const dateLayout = "2006-01-02"

// Value is the output of a property extractor: a single scalar (possibly
// Unset), or a set of values for multi-valued properties like label.
type Value struct {
	Multi  bool
	Scalar string
	Set    []string
}

func scalar(v string) Value {
	if v == "" {
		v = Unset
	}
	return Value{Scalar: v}
}

func multi(vs []string) Value {
	return Value{Multi: true, Set: vs}
}

// property describes one reportable dimension: how to extract its value from
// an issue, and which report kinds it supports beyond count/groups.
type property struct {
	name    model.Property
	extract func(*model.Issue) Value
	// ordinal maps the issue to a sortable number for quantile reports.
	// Nil means the property is not ordered.
	ordinal func(*model.Issue) (float64, bool)
	// point renders an (interpolated) ordinal back to text.
	point func(float64) string
	// snapshot extracts the value from a point-in-time snapshot for graph
	// reports. Nil means the property is not historically tracked; its
	// current field value holds for every bin since publish.
	snapshot func(model.Snapshot) Value
}

// priorityRanks orders priority names for quantile reports. Numeric
// priorities (e.g. "1") are handled by parsing directly.
var priorityRanks = map[string]float64{
	"Critical": 0,
	"High":     1,
	"Medium":   2,
	"Low":      3,
}

var priorityNames = []string{"Critical", "High", "Medium", "Low"}

func priorityOrdinal(v string) (float64, bool) {
	if v == "" {
		return 0, false
	}
	if r, ok := priorityRanks[v]; ok {
		return r, true
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n, true
	}
	return 0, false
}

func priorityPoint(v float64) string {
	if v == float64(int(v)) && int(v) >= 0 && int(v) < len(priorityNames) {
		return priorityNames[int(v)]
	}
	return trimFloat(v)
}

func datePoint(v float64) string {
	return time.Unix(int64(v), 0).UTC().Format(dateLayout)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func snapshotScalar(p model.Property) func(model.Snapshot) Value {
	return func(s model.Snapshot) Value {
		v, _ := s.Scalar(p)
		return scalar(v)
	}
}

// registry is the fixed, read-only table of supported properties, in the
// order used by groups:all expansion.
var registry = []property{
	{
		name:     model.PropOwner,
		extract:  func(is *model.Issue) Value { return scalar(is.Owner) },
		snapshot: snapshotScalar(model.PropOwner),
	},
	{
		name:     model.PropPriority,
		extract:  func(is *model.Issue) Value { return scalar(is.Priority) },
		ordinal:  func(is *model.Issue) (float64, bool) { return priorityOrdinal(is.Priority) },
		point:    priorityPoint,
		snapshot: snapshotScalar(model.PropPriority),
	},
	{
		name:     model.PropMilestone,
		extract:  func(is *model.Issue) Value { return scalar(is.Milestone) },
		snapshot: snapshotScalar(model.PropMilestone),
	},
	{
		name:     model.PropStatus,
		extract:  func(is *model.Issue) Value { return scalar(is.Status) },
		snapshot: snapshotScalar(model.PropStatus),
	},
	{
		name:     model.PropType,
		extract:  func(is *model.Issue) Value { return scalar(is.Type) },
		snapshot: snapshotScalar(model.PropType),
	},
	{
		name:    model.PropStars,
		extract: func(is *model.Issue) Value { return scalar(strconv.Itoa(is.Stars)) },
		ordinal: func(is *model.Issue) (float64, bool) { return float64(is.Stars), true },
		point:   trimFloat,
	},
	{
		name:    model.PropUpdated,
		extract: func(is *model.Issue) Value { return scalar(is.Updated.UTC().Format(dateLayout)) },
		ordinal: func(is *model.Issue) (float64, bool) { return float64(is.Updated.Unix()), true },
		point:   datePoint,
	},
	{
		name:    model.PropPublished,
		extract: func(is *model.Issue) Value { return scalar(is.Published.UTC().Format(dateLayout)) },
		ordinal: func(is *model.Issue) (float64, bool) { return float64(is.Published.Unix()), true },
		point:   datePoint,
	},
	{
		name:    model.PropLabel,
		extract: func(is *model.Issue) Value { return multi(is.Labels) },
		snapshot: func(s model.Snapshot) Value {
			labels := make([]string, 0, len(s.Labels))
			for l := range s.Labels {
				labels = append(labels, l)
			}
			return multi(labels)
		},
	},
}

func lookup(name string) (*property, bool) {
	for i := range registry {
		if string(registry[i].name) == name {
			return &registry[i], true
		}
	}
	return nil, false
}

func mustLookup(p model.Property) *property {
	prop, ok := lookup(string(p))
	if !ok {
		panic(fmt.Sprintf("unregistered property %q", p))
	}
	return prop
}

// Properties returns the registered property names in declaration order.
func Properties() []model.Property {
	names := make([]model.Property, len(registry))
	for i := range registry {
		names[i] = registry[i].name
	}
	return names
}

// matches reports whether the extracted value equals (or, for multi-valued
// properties, contains) want. Label matching is case-insensitive.
func (v Value) matches(want string) bool {
	if v.Multi {
		for _, s := range v.Set {
			if strings.EqualFold(s, want) {
				return true
			}
		}
		return false
	}
	return v.Scalar == want
}
