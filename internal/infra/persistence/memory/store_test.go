package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"lifeplan/pkg/domain"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(stages ...domain.Stage) *Store {
	n := 0
	return NewStore(domain.NewPipeline(stages...),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

type recordingStage struct {
	changes [][]domain.Change
	err     error
}

func (s *recordingStage) Name() string { return "recording" }

func (s *recordingStage) Apply(_ context.Context, state *domain.Snapshot, changes []domain.Change) (domain.Result, error) {
	s.changes = append(s.changes, changes)
	if s.err != nil {
		return domain.Result{}, s.err
	}
	var res domain.Result
	res.Add("goals", len(state.Goals))
	return res, nil
}

func seed(t *testing.T, s *Store) (domain.Goal, domain.Project, domain.Task) {
	t.Helper()
	var g domain.Goal
	var p domain.Project
	var task domain.Task
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		if g, err = tx.CreateGoal(domain.Goal{Title: "  Learn Spanish "}); err != nil {
			return err
		}
		if p, err = tx.CreateProject(domain.Project{Title: "Duolingo", GoalID: domain.StringPtr(g.ID)}); err != nil {
			return err
		}
		task, err = tx.CreateTask(domain.Task{Title: "Lesson 1", ProjectID: p.ID})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return g, p, task
}

func TestCreateAppliesDefaults(t *testing.T) {
	s := newTestStore()
	g, p, task := seed(t, s)
	if g.Title != "Learn Spanish" || g.Domain != domain.DefaultDomain {
		t.Fatalf("unexpected goal defaults: %+v", g)
	}
	if !g.CreatedAt.Equal(fixedNow) || g.ID != "id-1" {
		t.Fatalf("expected stamped goal, got %+v", g)
	}
	if p.Status != domain.StatusTodo || p.Completed {
		t.Fatalf("expected todo project, got %+v", p)
	}
	if p.GoalTitle == nil || *p.GoalTitle != "Learn Spanish" {
		t.Fatalf("expected goal title cache, got %v", p.GoalTitle)
	}
	if task.ProjectID != p.ID {
		t.Fatalf("task not attached: %+v", task)
	}
	if len(s.ListGoals()) != 1 || len(s.ListProjects()) != 1 || len(s.ListTasks()) != 1 {
		t.Fatalf("expected one record per collection")
	}
}

func TestCreateProjectResolvesGoalTitle(t *testing.T) {
	s := newTestStore()
	g, _, _ := seed(t, s)
	var linked, orphan domain.Project
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		if linked, err = tx.CreateProject(domain.Project{Title: "Podcast", GoalTitle: domain.StringPtr("learn spanish")}); err != nil {
			return err
		}
		orphan, err = tx.CreateProject(domain.Project{Title: "Other", GoalTitle: domain.StringPtr("Unknown")})
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if linked.LinkedGoal() != g.ID || *linked.GoalTitle != "Learn Spanish" {
		t.Fatalf("expected title resolution, got %+v", linked)
	}
	if !orphan.Independent() || orphan.GoalTitle == nil {
		t.Fatalf("expected independent project keeping its cached title, got %+v", orphan)
	}
}

func TestCreateRejectsMissingReferences(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	cases := map[string]func(tx Transaction) error{
		"project goal": func(tx Transaction) error {
			_, err := tx.CreateProject(domain.Project{Title: "p", GoalID: domain.StringPtr("missing")})
			return err
		},
		"task project": func(tx Transaction) error {
			_, err := tx.CreateTask(domain.Task{Title: "t", ProjectID: "missing"})
			return err
		},
		"time block task": func(tx Transaction) error {
			_, err := tx.CreateTimeBlock(domain.TimeBlock{Title: "b", Start: fixedNow, End: fixedNow.Add(time.Hour), TaskID: domain.StringPtr("missing")})
			return err
		},
	}
	for name, fn := range cases {
		if _, err := s.RunInTransaction(ctx, fn); !domain.IsNotFound(err) {
			t.Fatalf("%s: expected not found, got %v", name, err)
		}
	}
}

func TestUpdateKeepsUnchangedDanglingGoal(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	g, p, _ := seed(t, s)
	if _, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.ReplaceGoals(nil)
	}); err != nil {
		t.Fatalf("drop goals: %v", err)
	}

	var updated domain.Project
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateProject(p.ID, func(p *domain.Project) error {
			p.Title = "Duolingo streak"
			p.Status = domain.StatusDone
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update with dangling goal: %v", err)
	}
	if updated.GoalID == nil || *updated.GoalID != g.ID || !updated.Completed {
		t.Fatalf("expected goal reference kept for audit, got %+v", updated)
	}

	_, err = s.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateProject(p.ID, func(p *domain.Project) error {
			p.GoalID = domain.StringPtr("elsewhere")
			return nil
		})
		return err
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found when pointing at a new missing goal, got %v", err)
	}
}

func TestValidationFailuresLeaveStateUntouched(t *testing.T) {
	s := newTestStore()
	seed(t, s)
	before := s.ExportState()
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateGoal(domain.Goal{Title: "second"}); err != nil {
			return err
		}
		_, err := tx.CreateGoal(domain.Goal{Title: "   "})
		return err
	})
	var verr domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "Title" {
		t.Fatalf("expected title validation error, got %v", err)
	}
	if after := s.ExportState(); len(after.Goals) != len(before.Goals) {
		t.Fatalf("failed transaction leaked a goal")
	}

	_, err = s.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateTimeBlock(domain.TimeBlock{Title: "b", Start: fixedNow, End: fixedNow})
		return err
	})
	if !errors.As(err, &verr) || verr.Field != "End" {
		t.Fatalf("expected end validation error, got %v", err)
	}
}

func TestUpdateKeepsIdentityAndSyncsCompleted(t *testing.T) {
	s := newTestStore()
	_, p, _ := seed(t, s)
	later := fixedNow.Add(time.Hour)
	s.nowFn = func() time.Time { return later }
	var updated domain.Project
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateProject(p.ID, func(p *domain.Project) error {
			p.ID = "hijack"
			p.Status = domain.StatusDone
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != p.ID || !updated.CreatedAt.Equal(fixedNow) || !updated.UpdatedAt.Equal(later) {
		t.Fatalf("identity not preserved: %+v", updated)
	}
	if !updated.Completed || updated.Progress != 100 {
		t.Fatalf("done status must complete the project: %+v", updated)
	}
}

func TestMutatorErrorAborts(t *testing.T) {
	s := newTestStore()
	g, _, _ := seed(t, s)
	boom := errors.New("boom")
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateGoal(g.ID, func(g *domain.Goal) error {
			g.Title = "changed"
			return boom
		})
		return err
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	if got, _ := s.GetGoal(g.ID); got.Title != "Learn Spanish" {
		t.Fatalf("goal mutated despite error: %+v", got)
	}
}

func TestDeleteGoalCascadesAndRecordsChanges(t *testing.T) {
	stage := &recordingStage{}
	s := newTestStore(stage)
	g, p, task := seed(t, s)
	var block domain.TimeBlock
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		block, err = tx.CreateTimeBlock(domain.TimeBlock{
			Title: "study", Start: fixedNow, End: fixedNow.Add(time.Hour),
			ProjectID: domain.StringPtr(p.ID), TaskID: domain.StringPtr(task.ID),
			Recurrence: &domain.Recurrence{Frequency: domain.FrequencyWeekly},
		})
		return err
	})
	if err != nil {
		t.Fatalf("create block: %v", err)
	}
	if block.Recurrence.Interval != 1 {
		t.Fatalf("expected interval defaulted to 1, got %d", block.Recurrence.Interval)
	}

	var cascade domain.Cascade
	_, err = s.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		cascade, err = tx.DeleteGoal(g.ID)
		return err
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(cascade.ProjectIDs) != 1 || len(cascade.TaskIDs) != 1 || cascade.TimeBlocksUnlinked != 1 {
		t.Fatalf("unexpected cascade: %+v", cascade)
	}
	state := s.ExportState()
	if len(state.Goals)+len(state.Projects)+len(state.Tasks) != 0 {
		t.Fatalf("expected hierarchy removed: %+v", state)
	}
	if len(state.TimeBlocks) != 1 || state.TimeBlocks[0].ProjectID != nil || state.TimeBlocks[0].TaskID != nil {
		t.Fatalf("expected surviving unlinked block: %+v", state.TimeBlocks)
	}

	last := stage.changes[len(stage.changes)-1]
	deletes := 0
	for _, c := range last {
		if c.Action == domain.ActionDelete {
			deletes++
		}
	}
	if deletes != 3 || len(last) != 4 {
		t.Fatalf("expected three deletes and one block update, got %+v", last)
	}
}

func TestDeleteMissingReturnsNotFound(t *testing.T) {
	s := newTestStore()
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.DeleteGoal("nope")
		return err
	})
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) || nf.Entity != domain.EntityGoal {
		t.Fatalf("expected goal not found, got %v", err)
	}
	_, err = s.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteTodo("nope")
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected todo not found, got %v", err)
	}
}

func TestStageErrorRollsBack(t *testing.T) {
	stage := &recordingStage{err: errors.New("stage failed")}
	s := newTestStore(stage)
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateTodo(domain.Todo{Title: "milk"})
		return err
	})
	if err == nil || err.Error() != "stage failed" {
		t.Fatalf("expected stage error, got %v", err)
	}
	if len(s.ExportState().Todos) != 0 {
		t.Fatalf("todo committed despite stage failure")
	}
}

func TestTodoLifecycle(t *testing.T) {
	s := newTestStore()
	var todo domain.Todo
	ctx := context.Background()
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		todo, err = tx.CreateTodo(domain.Todo{Title: "milk"})
		return err
	})
	if err != nil || todo.Priority != domain.PriorityMedium {
		t.Fatalf("create todo: %+v %v", todo, err)
	}
	_, err = s.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateTodo(todo.ID, func(t *domain.Todo) error {
			t.Completed = true
			t.Priority = "urgent"
			return nil
		})
		return err
	})
	if err == nil {
		t.Fatalf("expected invalid priority to fail")
	}
	_, err = s.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteTodo(todo.ID)
	})
	if err != nil {
		t.Fatalf("delete todo: %v", err)
	}
	err = s.View(ctx, func(v TransactionView) error {
		if len(v.ListTodos()) != 0 {
			return errors.New("todo survived delete")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestReplaceRecordsDiff(t *testing.T) {
	stage := &recordingStage{}
	s := newTestStore(stage)
	g, _, _ := seed(t, s)
	renamed := g
	renamed.Title = "Learn Portuguese"
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.ReplaceGoals([]domain.Goal{renamed, {Base: domain.Base{ID: "g2"}, Title: "Run"}})
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	last := stage.changes[len(stage.changes)-1]
	if len(last) != 2 || last[0].Action != domain.ActionUpdate || last[1].Action != domain.ActionCreate {
		t.Fatalf("unexpected changes: %+v", last)
	}
	_, err = s.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.ReplaceGoals([]domain.Goal{{Base: domain.Base{ID: "dup"}, Title: "a"}, {Base: domain.Base{ID: "dup"}, Title: "b"}})
	})
	if err == nil {
		t.Fatalf("expected duplicate IDs to be rejected")
	}
}

func TestViewIsIsolatedFromCommittedState(t *testing.T) {
	s := newTestStore()
	g, _, _ := seed(t, s)
	err := s.View(context.Background(), func(v TransactionView) error {
		goals := v.ListGoals()
		goals[0].Title = "mutated"
		exported := v.Export()
		exported.LinkMap["x"] = "y"
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if got, _ := s.GetGoal(g.ID); got.Title != "Learn Spanish" {
		t.Fatalf("view leaked mutation: %+v", got)
	}
	if _, ok := s.ExportState().LinkMap["x"]; ok {
		t.Fatalf("export leaked mutation")
	}
}

func TestSettingsAndLinkMapReplace(t *testing.T) {
	s := newTestStore()
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		tx.SaveSettings(domain.Settings{"theme": "dark"})
		tx.ReplaceLinkMap(domain.LinkMap{"p": "g"})
		return nil
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	state := s.ExportState()
	if state.Settings["theme"] != "dark" || state.LinkMap["p"] != "g" {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestReloadRunsPipelineWithoutChanges(t *testing.T) {
	stage := &recordingStage{}
	s := newTestStore(stage)
	seed(t, s)
	res, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Count("goals") != 1 {
		t.Fatalf("expected stage to see one goal, got %+v", res)
	}
	if got := stage.changes[len(stage.changes)-1]; got != nil {
		t.Fatalf("expected nil changes on reload, got %+v", got)
	}
}
