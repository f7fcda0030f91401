package catalog

import (
	"testing"

	"lifeplan/pkg/domain"
)

func TestResolveIsTotal(t *testing.T) {
	c := Default()
	cases := []struct {
		name string
		q    Query
		want string
	}{
		{"exact name", Query{Name: "health"}, "Health"},
		{"substring", Query{Name: "growth"}, "Personal Growth"},
		{"icon", Query{Icon: "cash"}, "Finance"},
		{"keywords", Query{Title: "Learn Spanish"}, "Education"},
		{"keyword prefix", Query{Title: "Saving for a house", Description: "budget and invest"}, "Finance"},
		{"description only", Query{Description: "weekly yoga"}, "Health"},
		{"nothing matches", Query{Title: "zzz"}, domain.DefaultDomain},
		{"empty", Query{}, domain.DefaultDomain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Resolve(tc.q).Name; got != tc.want {
				t.Fatalf("Resolve(%+v) = %s, want %s", tc.q, got, tc.want)
			}
		})
	}
}

func TestLookupMisses(t *testing.T) {
	if _, ok := Default().Lookup("  "); ok {
		t.Fatalf("blank lookup must miss")
	}
	if _, ok := Default().Lookup("astronomy"); ok {
		t.Fatalf("unknown name must miss")
	}
}

func TestApplyToGoalKeepsOverrides(t *testing.T) {
	g := domain.Goal{Title: "Run a marathon", Color: "#000000"}
	Default().ApplyToGoal(&g)
	if g.Domain != "Health" || g.Color != "#000000" || g.Icon != "fitness" {
		t.Fatalf("unexpected goal %+v", g)
	}
}

func TestReapplyToGoalFollowsDomainChange(t *testing.T) {
	c := Default()
	g := domain.Goal{Title: "Run a marathon"}
	c.ApplyToGoal(&g)

	g.Domain = "Career"
	c.ReapplyToGoal(&g, "Health")
	if g.Domain != "Career" || g.Icon != "briefcase" || g.Color != "#2196F3" {
		t.Fatalf("expected career defaults, got %+v", g)
	}

	g.Color = "#000000"
	g.Domain = "Home"
	c.ReapplyToGoal(&g, "Career")
	if g.Icon != "home" || g.Color != "#000000" {
		t.Fatalf("expected color override kept and icon moved, got %+v", g)
	}

	c.ReapplyToGoal(&g, "Home")
	if g.Domain != "Home" || g.Icon != "home" || g.Color != "#000000" {
		t.Fatalf("unchanged domain must be stable, got %+v", g)
	}
}

func TestSummariesFollowCatalogOrder(t *testing.T) {
	goals := []domain.Goal{
		{Title: "a", Domain: "Home"},
		{Title: "b", Domain: "Health", Completed: true},
		{Title: "c", Domain: ""},
		{Title: "d", Domain: "health"},
	}
	got := Default().Summaries(goals)
	if len(got) != 3 {
		t.Fatalf("expected 3 summaries, got %+v", got)
	}
	if got[0].Name != "Health" || got[0].GoalCount != 2 || got[0].CompletedGoalCount != 1 {
		t.Fatalf("unexpected health summary %+v", got[0])
	}
	if got[1].Name != "Home" || got[2].Name != domain.DefaultDomain {
		t.Fatalf("summaries out of catalog order: %+v", got)
	}
	if Default().Summaries(nil) != nil {
		t.Fatalf("no goals means no summaries")
	}
}

func TestNewPicksFallback(t *testing.T) {
	c := New([]Entry{{Name: "Work", Keywords: []string{"job"}}, {Name: "Misc"}})
	if c.Other().Name != "Misc" {
		t.Fatalf("last entry must be the fallback, got %s", c.Other().Name)
	}
	if c.Resolve(Query{Title: "nothing"}).Name != "Misc" {
		t.Fatalf("resolve must fall back")
	}
	if New(nil).Other().Name != domain.DefaultDomain {
		t.Fatalf("empty catalog falls back to %s", domain.DefaultDomain)
	}
}
