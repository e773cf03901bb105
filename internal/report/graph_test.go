package report

import (
	"testing"
	"time"

	"github.com/issuestats/issuestats/internal/model"
)

func TestChangeGraph(t *testing.T) {
	issues := sampleIssues()
	bins := ChangeGraph(issues, 7)

	// Range spans 2025-03-01 (earliest publish, day-aligned) through
	// 2025-03-11 (the close), so two weekly bins.
	if len(bins) != 2 {
		t.Fatalf("got %d bins, want 2", len(bins))
	}
	if got := bins[0].Start.UTC().Format(dateLayout); got != "2025-03-01" {
		t.Errorf("first bin starts %s, want 2025-03-01", got)
	}
	if bins[0].Opened != 3 || bins[0].Closed != 0 || bins[0].OpenTotal != 3 {
		t.Errorf("bin 0 = %+v, want opened 3 closed 0 open 3", bins[0])
	}
	if bins[1].Opened != 0 || bins[1].Closed != 1 || bins[1].OpenTotal != 2 {
		t.Errorf("bin 1 = %+v, want opened 0 closed 1 open 2", bins[1])
	}
}

func TestChangeGraph_Totals(t *testing.T) {
	issues := sampleIssues()
	bins := ChangeGraph(issues, 7)

	opened, closed := 0, 0
	for _, b := range bins {
		opened += b.Opened
		closed += b.Closed
	}
	if opened != len(issues) {
		t.Errorf("cumulative opened = %d, want %d", opened, len(issues))
	}
	wantClosed := 0
	for i := range issues {
		if issues[i].Closed != nil {
			wantClosed++
		}
	}
	if closed != wantClosed {
		t.Errorf("cumulative closed = %d, want %d", closed, wantClosed)
	}
}

func TestChangeGraph_Gapless(t *testing.T) {
	quiet := base.Add(30 * 24 * time.Hour)
	issues := []model.Issue{
		{ID: 1, Status: "New", Published: base, Updated: base},
		{ID: 2, Status: "New", Published: quiet, Updated: quiet},
	}
	bins := ChangeGraph(issues, 7)
	if len(bins) != 5 {
		t.Fatalf("got %d bins, want 5 covering a 30-day gap", len(bins))
	}
	for i := 1; i < len(bins); i++ {
		if got := bins[i].Start.Sub(bins[i-1].Start); got != 7*24*time.Hour {
			t.Errorf("bin %d starts %v after previous, want 168h", i, got)
		}
	}
	for _, b := range bins[1:4] {
		if b.Opened != 0 || b.Closed != 0 {
			t.Errorf("quiet bin %+v should have zero events", b)
		}
	}
}

func TestChangeGraph_Empty(t *testing.T) {
	if bins := ChangeGraph(nil, 7); bins != nil {
		t.Errorf("empty collection produced bins: %v", bins)
	}
}

func TestPropertyGraph_Status(t *testing.T) {
	issues := sampleIssues()
	g := PropertyGraph(issues, model.PropStatus, 7)

	if len(g.Bins) != 2 {
		t.Fatalf("got %d bins, want 2", len(g.Bins))
	}
	// End of bin 1 (2025-03-08): all three issues still New.
	if got := g.Bins[0].Counts["New"]; got != 3 {
		t.Errorf("bin 0 New = %d, want 3", got)
	}
	if got := g.Bins[0].Counts["Fixed"]; got != 0 {
		t.Errorf("bin 0 Fixed = %d, want 0", got)
	}
	// End of bin 2 (2025-03-15): issue 2 fixed on 2025-03-11.
	if got := g.Bins[1].Counts["New"]; got != 2 {
		t.Errorf("bin 1 New = %d, want 2", got)
	}
	if got := g.Bins[1].Counts["Fixed"]; got != 1 {
		t.Errorf("bin 1 Fixed = %d, want 1", got)
	}

	if len(g.Keys) != 2 || g.Keys[0] != "Fixed" || g.Keys[1] != "New" {
		t.Errorf("keys = %v, want sorted [Fixed New]", g.Keys)
	}
}

func TestPropertyGraph_UnpublishedExcluded(t *testing.T) {
	late := base.Add(10 * 24 * time.Hour)
	issues := []model.Issue{
		{ID: 1, Status: "New", Published: base, Updated: base},
		{ID: 2, Status: "New", Published: late, Updated: late},
	}
	g := PropertyGraph(issues, model.PropStatus, 7)
	if len(g.Bins) != 2 {
		t.Fatalf("got %d bins, want 2", len(g.Bins))
	}
	if got := g.Bins[0].Counts["New"]; got != 1 {
		t.Errorf("bin 0 counts issue published after the bin end: New = %d, want 1", got)
	}
	if got := g.Bins[1].Counts["New"]; got != 2 {
		t.Errorf("bin 1 New = %d, want 2", got)
	}
}

func TestPropertyGraph_Labels(t *testing.T) {
	ts := base.Add(8 * 24 * time.Hour)
	issues := []model.Issue{
		{
			ID: 1, Status: "New", Labels: []string{"ui", "crash"},
			Published: base, Updated: ts,
			History: []model.ChangeEvent{
				{Timestamp: ts, Changes: map[model.Property]model.Change{
					model.PropLabel: {Added: []string{"crash"}},
				}},
			},
		},
	}
	g := PropertyGraph(issues, model.PropLabel, 7)
	if len(g.Bins) != 2 {
		t.Fatalf("got %d bins, want 2", len(g.Bins))
	}
	if g.Bins[0].Counts["ui"] != 1 || g.Bins[0].Counts["crash"] != 0 {
		t.Errorf("bin 0 counts = %v, want ui only before the label was added", g.Bins[0].Counts)
	}
	if g.Bins[1].Counts["ui"] != 1 || g.Bins[1].Counts["crash"] != 1 {
		t.Errorf("bin 1 counts = %v, want both labels", g.Bins[1].Counts)
	}
}

func TestPropertyGraph_Untracked(t *testing.T) {
	// Stars carry no change history: every bin reports the current value,
	// counting an issue only once it is published.
	late := base.Add(10 * 24 * time.Hour)
	issues := []model.Issue{
		{ID: 1, Status: "New", Stars: 5, Published: base, Updated: base},
		{ID: 2, Status: "New", Stars: 5, Published: late, Updated: late},
		{ID: 3, Status: "New", Stars: 0, Published: base, Updated: base},
	}
	g := PropertyGraph(issues, model.PropStars, 7)
	if len(g.Bins) != 2 {
		t.Fatalf("got %d bins, want 2", len(g.Bins))
	}
	if g.Bins[0].Counts["5"] != 1 || g.Bins[0].Counts["0"] != 1 {
		t.Errorf("bin 0 counts = %v, want one 5 and one 0 before issue 2 publishes", g.Bins[0].Counts)
	}
	if g.Bins[1].Counts["5"] != 2 || g.Bins[1].Counts["0"] != 1 {
		t.Errorf("bin 1 counts = %v, want two 5s and one 0", g.Bins[1].Counts)
	}
	if len(g.Keys) != 2 || g.Keys[0] != "0" || g.Keys[1] != "5" {
		t.Errorf("keys = %v, want sorted [0 5]", g.Keys)
	}

	pub := PropertyGraph(issues, model.PropPublished, 7)
	if len(pub.Bins) != 2 {
		t.Fatalf("published graph: got %d bins, want 2", len(pub.Bins))
	}
	if got := pub.Bins[0].Counts[base.UTC().Format(dateLayout)]; got != 2 {
		t.Errorf("bin 0 publish-date count = %d, want 2", got)
	}
}

func TestPropertyGraph_Empty(t *testing.T) {
	g := PropertyGraph(nil, model.PropStatus, 7)
	if len(g.Bins) != 0 || len(g.Keys) != 0 {
		t.Errorf("empty collection produced graph %+v", g)
	}
}

func TestStateIndex_BinarySearch(t *testing.T) {
	is := &model.Issue{
		ID: 1, Status: "Fixed",
		Published: base, Updated: base.Add(48 * time.Hour),
		History: []model.ChangeEvent{
			{Timestamp: base.Add(24 * time.Hour), Changes: map[model.Property]model.Change{
				model.PropStatus: {From: "New", To: "Assigned"},
			}},
			{Timestamp: base.Add(48 * time.Hour), Changes: map[model.Property]model.Change{
				model.PropStatus: {From: "Assigned", To: "Fixed"},
			}},
		},
	}
	ix := newStateIndex(is)

	cases := []struct {
		at   time.Time
		want string
	}{
		{base, "New"},                                      // at publish instant
		{base.Add(24 * time.Hour), "New"},                  // event at t is not yet visible at t
		{base.Add(24*time.Hour + time.Second), "Assigned"}, // just past the event
		{base.Add(72 * time.Hour), "Fixed"},
	}
	for _, tc := range cases {
		if got := ix.at(tc.at).Status; got != tc.want {
			t.Errorf("state at %v = %q, want %q", tc.at, got, tc.want)
		}
	}
}
