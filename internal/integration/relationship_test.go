package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lifeplan/internal/core"
	"lifeplan/internal/kv"
	"lifeplan/pkg/domain"
)

func TestIntegrationEntityRelationships(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC)
	cfg := core.StorageConfig{KV: kv.Config{Driver: kv.DriverSQLite, Path: filepath.Join(t.TempDir(), "rel.db")}}

	svc, store := openService(t, cfg)
	spanish, _, err := svc.AddGoal(ctx, domain.Goal{Title: "Learn Spanish"})
	if err != nil {
		t.Fatalf("add goal: %v", err)
	}
	keep, _, err := svc.AddGoal(ctx, domain.Goal{Title: "Save money"})
	if err != nil {
		t.Fatalf("add goal: %v", err)
	}
	lessons, _, err := svc.AddProject(ctx, domain.Project{Title: "Lessons", GoalID: domain.StringPtr(spanish.ID)})
	if err != nil {
		t.Fatalf("add project: %v", err)
	}
	budget, _, err := svc.AddProject(ctx, domain.Project{Title: "Budget", GoalTitle: domain.StringPtr("save MONEY")})
	if err != nil {
		t.Fatalf("add project: %v", err)
	}
	if budget.LinkedGoal() != keep.ID {
		t.Fatalf("expected title link to %s, got %+v", keep.ID, budget)
	}
	verbs, _, err := svc.AddTask(ctx, domain.Task{Title: "Verbs", ProjectID: lessons.ID})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	block, _, err := svc.AddTimeBlock(ctx, domain.TimeBlock{
		Title:     "Practice",
		Start:     start,
		End:       start.Add(time.Hour),
		ProjectID: domain.StringPtr(lessons.ID),
		TaskID:    domain.StringPtr(verbs.ID),
		Recurrence: &domain.Recurrence{
			Frequency: domain.FrequencyDaily,
			Count:     5,
		},
	})
	if err != nil {
		t.Fatalf("add block: %v", err)
	}

	cascade, _, err := svc.DeleteGoal(ctx, spanish.ID)
	if err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	if len(cascade.ProjectIDs) != 1 || len(cascade.TaskIDs) != 1 || cascade.TimeBlocksUnlinked != 1 {
		t.Fatalf("unexpected cascade %+v", cascade)
	}
	_ = store.Close()

	svc, store = openService(t, cfg)
	defer func() { _ = store.Close() }()
	if _, ok := svc.GetProject(ctx, lessons.ID); ok {
		t.Fatalf("cascaded project came back")
	}
	if p, ok := svc.GetProject(ctx, budget.ID); !ok || p.LinkedGoal() != keep.ID {
		t.Fatalf("unrelated project lost its goal: %+v", p)
	}
	blocks := svc.ListTimeBlocks(ctx)
	if len(blocks) != 1 || blocks[0].ID != block.ID || blocks[0].ProjectID != nil || blocks[0].TaskID != nil {
		t.Fatalf("expected block kept and unlinked, got %+v", blocks)
	}
	if got := svc.ExpandTimeBlocks(ctx, start, start.AddDate(0, 0, 30)); len(got) != 5 {
		t.Fatalf("expected 5 occurrences, got %d", len(got))
	}
	if stats, err := svc.AuditProjectGoalRelationships(ctx); err != nil || stats.IssuesFound != 0 {
		t.Fatalf("expected a clean audit after reopen, got %+v %v", stats, err)
	}
}
