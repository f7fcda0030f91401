package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestValidateReportsFirstField(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		entity EntityType
		record any
		field  string
	}{
		{"goal title", EntityGoal, Goal{Domain: DefaultDomain}, "Title"},
		{"goal progress", EntityGoal, Goal{Title: "x", Progress: 101}, "Progress"},
		{"project status", EntityProject, Project{Title: "x", Status: "later"}, "Status"},
		{"task project", EntityTask, Task{Title: "x"}, "ProjectID"},
		{"block order", EntityTimeBlock, TimeBlock{Title: "x", Start: start, End: start}, "End"},
		{"block recurrence", EntityTimeBlock, TimeBlock{Title: "x", Start: start, End: start.Add(time.Hour), Recurrence: &Recurrence{Frequency: "hourly"}}, "Frequency"},
		{"todo priority", EntityTodo, Todo{Title: "x", Priority: "urgent"}, "Priority"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.entity, tc.record)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Entity != tc.entity || ve.Field != tc.field {
				t.Fatalf("expected %s.%s, got %+v", tc.entity, tc.field, ve)
			}
		})
	}
	ok := TimeBlock{Title: "x", Start: start, End: start.Add(time.Hour), Recurrence: &Recurrence{Frequency: FrequencyWeekly, Interval: 1}}
	if err := Validate(EntityTimeBlock, ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	s := Snapshot{
		Projects:   []Project{{Base: Base{ID: "p"}, Title: "x", GoalID: StringPtr("g"), DueDate: &due}},
		TimeBlocks: []TimeBlock{{Base: Base{ID: "b"}, Title: "y", Recurrence: &Recurrence{Frequency: FrequencyDaily}}},
		Domains:    []DomainSummary{},
		LinkMap:    LinkMap{"p": "g"},
		Settings:   Settings{"theme": "dark"},
	}
	c := s.Clone()
	*c.Projects[0].GoalID = "other"
	*c.Projects[0].DueDate = due.AddDate(1, 0, 0)
	c.TimeBlocks[0].Recurrence.Interval = 9
	c.LinkMap["p"] = "other"
	c.Settings["theme"] = "light"

	if *s.Projects[0].GoalID != "g" || !s.Projects[0].DueDate.Equal(due) {
		t.Fatalf("project pointers shared: %+v", s.Projects[0])
	}
	if s.TimeBlocks[0].Recurrence.Interval != 0 || s.LinkMap["p"] != "g" || s.Settings["theme"] != "dark" {
		t.Fatalf("clone leaked into original")
	}
	if c.Domains == nil {
		t.Fatalf("clone must keep an empty domain list non-nil")
	}
}

func TestSnapshotLookups(t *testing.T) {
	s := Snapshot{
		Goals:    []Goal{{Base: Base{ID: "g"}}},
		Projects: []Project{{Base: Base{ID: "a"}, GoalID: StringPtr("g")}, {Base: Base{ID: "b"}}},
		Tasks:    []Task{{Base: Base{ID: "t"}, ProjectID: "a"}},
	}
	if !s.HasGoal("g") || s.HasGoal("x") || s.ProjectIndex("b") != 1 {
		t.Fatalf("index lookups broken")
	}
	if got := s.ProjectsForGoal("g"); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected projects for goal %+v", got)
	}
	if got := s.TasksForProject("a"); len(got) != 1 {
		t.Fatalf("unexpected tasks %+v", got)
	}
	if !s.Projects[1].Independent() || s.Projects[0].LinkedGoal() != "g" {
		t.Fatalf("link helpers broken")
	}
}

func TestErrorHelpers(t *testing.T) {
	nf := fmt.Errorf("wrap: %w", ErrNotFound{Entity: EntityGoal, ID: "g"})
	if !IsNotFound(nf) || IsStorageError(nf) {
		t.Fatalf("not found detection broken")
	}
	cause := errors.New("disk full")
	se := fmt.Errorf("wrap: %w", &StorageError{Op: "set", Key: "goals", Err: cause})
	if !IsStorageError(se) || !errors.Is(se, cause) {
		t.Fatalf("storage error must unwrap to its cause")
	}
	if (&StorageError{Op: "load", Err: cause}).Error() != "storage load: disk full" {
		t.Fatalf("unexpected message")
	}
	if !(Task{Status: StatusDone}).Done() || (Task{}).Done() {
		t.Fatalf("task completion rule broken")
	}
}

type countingStage struct {
	name string
	log  *[]string
	err  error
}

func (c countingStage) Name() string { return c.name }

func (c countingStage) Apply(_ context.Context, _ *Snapshot, _ []Change) (Result, error) {
	*c.log = append(*c.log, c.name)
	var r Result
	r.Add(c.name, 1)
	return r, c.err
}

func TestPipelineRunsInOrderAndStopsOnError(t *testing.T) {
	var log []string
	p := NewPipeline(countingStage{name: "a", log: &log}, countingStage{name: "b", log: &log})
	p.Register(countingStage{name: "c", log: &log})
	res, err := p.Run(context.Background(), &Snapshot{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fmt.Sprint(log) != "[a b c]" || res.Count("b") != 1 {
		t.Fatalf("unexpected run %v %+v", log, res.Counts)
	}

	log = nil
	boom := errors.New("boom")
	p = NewPipeline(countingStage{name: "a", log: &log, err: boom}, countingStage{name: "b", log: &log})
	if _, err := p.Run(context.Background(), &Snapshot{}, nil); !errors.Is(err, boom) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("later stages must not run after an error, ran %v", log)
	}
}
