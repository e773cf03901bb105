package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/issuestats/issuestats/internal/model"
)

// Block is one rendered report: a heading plus its body text.
type Block struct {
	Title string
	Body  string
}

// Generate runs every request over the (already filtered) issues and
// returns one block per report, preserving request order and duplicates.
// A groups:all request expands to one block per registered property.
func Generate(issues []model.Issue, reqs []Request, binDays int) []Block {
	var blocks []Block
	for _, req := range reqs {
		switch req.Kind {
		case KindCount:
			blocks = append(blocks, countBlock(issues, req))
		case KindGroups:
			if req.All {
				for _, p := range Properties() {
					blocks = append(blocks, groupsBlock(issues, p))
				}
				continue
			}
			blocks = append(blocks, groupsBlock(issues, req.Prop))
		case KindQuantile:
			blocks = append(blocks, quantileBlock(issues, req.Prop))
		case KindGraph:
			if req.Change {
				blocks = append(blocks, changeGraphBlock(issues, binDays))
				continue
			}
			blocks = append(blocks, propGraphBlock(issues, req.Prop, binDays))
		}
	}
	return blocks
}

// Render writes the blocks to w in order, one heading per block.
func Render(w io.Writer, blocks []Block) {
	for i, b := range blocks {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s ==\n", b.Title)
		fmt.Fprintln(w, b.Body)
	}
}

const noData = "no data"

func countBlock(issues []model.Issue, req Request) Block {
	if req.All {
		return Block{Title: "All issues", Body: strconv.Itoa(Count(issues, req))}
	}
	title := fmt.Sprintf("Issues with %s=%s", req.Prop, req.Value)
	return Block{Title: title, Body: strconv.Itoa(Count(issues, req))}
}

func groupsBlock(issues []model.Issue, p model.Property) Block {
	title := fmt.Sprintf("Issues by %s", p)
	entries := Groups(issues, p)
	if len(entries) == 0 {
		return Block{Title: title, Body: noData}
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\n", e.Value, e.Count)
	}
	tw.Flush()
	return Block{Title: title, Body: strings.TrimRight(sb.String(), "\n")}
}

func quantileBlock(issues []model.Issue, p model.Property) Block {
	title := fmt.Sprintf("Quantiles for %s", p)
	res := Quantiles(issues, p)
	if res.N == 0 {
		return Block{Title: title, Body: noData}
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	for _, pt := range res.Points {
		fmt.Fprintf(tw, "%s\t%s\n", pt.Label, pt.Value)
	}
	fmt.Fprintf(tw, "n\t%d\n", res.N)
	tw.Flush()
	return Block{Title: title, Body: strings.TrimRight(sb.String(), "\n")}
}

func changeGraphBlock(issues []model.Issue, binDays int) Block {
	title := "Issues opened and closed over time"
	bins := ChangeGraph(issues, binDays)
	if len(bins) == 0 {
		return Block{Title: title, Body: noData}
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "date\topened\tclosed\topen")
	for _, b := range bins {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n",
			b.Start.UTC().Format(dateLayout), b.Opened, b.Closed, b.OpenTotal)
	}
	tw.Flush()
	return Block{Title: title, Body: strings.TrimRight(sb.String(), "\n")}
}

func propGraphBlock(issues []model.Issue, p model.Property, binDays int) Block {
	title := fmt.Sprintf("Issues by %s over time", p)
	g := PropertyGraph(issues, p, binDays)
	if len(g.Bins) == 0 {
		return Block{Title: title, Body: noData}
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "date\t%s\n", strings.Join(g.Keys, "\t"))
	for _, bin := range g.Bins {
		row := make([]string, 0, len(g.Keys)+1)
		row = append(row, bin.Start.UTC().Format(dateLayout))
		for _, k := range g.Keys {
			row = append(row, strconv.Itoa(bin.Counts[k]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	return Block{Title: title, Body: strings.TrimRight(sb.String(), "\n")}
}
