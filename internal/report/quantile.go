package report

import (
	"math"
	"sort"

	"github.com/issuestats/issuestats/internal/model"
)

// QuantilePoint is one percentile cut of an ordered property.
type QuantilePoint struct {
	Label string
	Value string
}

// QuantileResult holds the fixed percentile cuts for one property. N is the
// number of issues that had a value; N == 0 means no data.
type QuantileResult struct {
	Prop   model.Property
	N      int
	Points []QuantilePoint
}

var quantileCuts = []struct {
	label string
	p     float64
}{
	{"min", 0},
	{"p25", 25},
	{"median", 50},
	{"p75", 75},
	{"max", 100},
}

// Quantiles extracts the property's ordinal value from every issue, drops
// unset values, and reports min/p25/median/p75/max with linear interpolation
// between the two nearest ranks.
func Quantiles(issues []model.Issue, p model.Property) QuantileResult {
	prop := mustLookup(p)

	var vals []float64
	for i := range issues {
		if v, ok := prop.ordinal(&issues[i]); ok {
			vals = append(vals, v)
		}
	}
	res := QuantileResult{Prop: p, N: len(vals)}
	if len(vals) == 0 {
		return res
	}
	sort.Float64s(vals)

	for _, cut := range quantileCuts {
		res.Points = append(res.Points, QuantilePoint{
			Label: cut.label,
			Value: prop.point(percentile(vals, cut.p)),
		})
	}
	return res
}

// percentile interpolates linearly at rank p/100*(n-1) over sorted values.
func percentile(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
