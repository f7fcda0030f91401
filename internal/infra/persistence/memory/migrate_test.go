package memory

import (
	"testing"
	"time"

	"lifeplan/pkg/domain"
)

func TestMigrateSnapshotNormalises(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	empty := ""
	snap := domain.Snapshot{
		Goals: []domain.Goal{
			{Base: domain.Base{ID: "g1", UpdatedAt: older}, Title: "old", Progress: 140},
			{Base: domain.Base{ID: ""}, Title: "no id"},
			{Base: domain.Base{ID: "g1", UpdatedAt: newer}, Title: "new"},
		},
		Projects: []domain.Project{
			{Base: domain.Base{ID: "p1"}, Title: "p", GoalID: &empty, GoalTitle: &empty, Status: "weird", Completed: true},
			{Base: domain.Base{ID: "p2"}, Title: "q", Status: domain.StatusDone},
		},
		TimeBlocks: []domain.TimeBlock{
			{Base: domain.Base{ID: "b"}, Recurrence: &domain.Recurrence{Frequency: domain.FrequencyDaily}},
		},
		Todos:   []domain.Todo{{Base: domain.Base{ID: "t"}, Title: "x"}},
		LinkMap: domain.LinkMap{"p1": ""},
	}
	got := migrateSnapshot(snap)

	if len(got.Goals) != 1 || got.Goals[0].Title != "new" {
		t.Fatalf("expected latest goal copy kept, got %+v", got.Goals)
	}
	if got.Goals[0].Domain != domain.DefaultDomain || got.Goals[0].Progress != 0 {
		t.Fatalf("expected default domain, got %+v", got.Goals[0])
	}
	p1 := got.Projects[0]
	if p1.GoalID != nil || p1.GoalTitle != nil || p1.Status != domain.StatusTodo || p1.Completed {
		t.Fatalf("project not normalised: %+v", p1)
	}
	if !got.Projects[1].Completed {
		t.Fatalf("done project must be completed")
	}
	if got.TimeBlocks[0].Recurrence.Interval != 1 {
		t.Fatalf("expected interval default")
	}
	if got.Todos[0].Priority != domain.PriorityMedium {
		t.Fatalf("expected priority default")
	}
	if len(got.LinkMap) != 0 || got.Settings == nil || got.Domains == nil || got.Tasks == nil {
		t.Fatalf("expected non-nil empty collections, got %+v", got)
	}
}

func TestMigrateClampsProgress(t *testing.T) {
	got := migrateSnapshot(domain.Snapshot{Goals: []domain.Goal{{Base: domain.Base{ID: "g"}, Title: "x", Progress: -3}}})
	if got.Goals[0].Progress != 0 {
		t.Fatalf("expected progress clamped, got %d", got.Goals[0].Progress)
	}
}
