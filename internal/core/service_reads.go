package core

import (
	"context"

	"lifeplan/internal/progress"
)

// snapshot exports the committed state. Reads never fail on the in-memory
// stores; a failing view is logged and yields an empty snapshot.
func (s *Service) snapshot(ctx context.Context) Snapshot {
	var out Snapshot
	if err := s.store.View(ctx, func(v TransactionView) error {
		out = v.Export()
		return nil
	}); err != nil {
		s.logger.Error("read snapshot", "error", err)
	}
	return out
}

// GetGoal returns a goal by ID.
func (s *Service) GetGoal(ctx context.Context, id string) (Goal, bool) {
	var g Goal
	var ok bool
	_ = s.store.View(ctx, func(v TransactionView) error {
		g, ok = v.FindGoal(id)
		return nil
	})
	return g, ok
}

// ListGoals returns all goals in creation order.
func (s *Service) ListGoals(ctx context.Context) []Goal {
	return s.snapshot(ctx).Goals
}

// GetProject returns a project by ID.
func (s *Service) GetProject(ctx context.Context, id string) (Project, bool) {
	var p Project
	var ok bool
	_ = s.store.View(ctx, func(v TransactionView) error {
		p, ok = v.FindProject(id)
		return nil
	})
	return p, ok
}

// ListProjects returns all projects in creation order.
func (s *Service) ListProjects(ctx context.Context) []Project {
	return s.snapshot(ctx).Projects
}

// GetProjectsForGoal returns the projects linked to goalID.
func (s *Service) GetProjectsForGoal(ctx context.Context, goalID string) []Project {
	return s.snapshot(ctx).ProjectsForGoal(goalID)
}

// GetIndependentProjects returns the projects not linked to any goal.
func (s *Service) GetIndependentProjects(ctx context.Context) []Project {
	var out []Project
	for _, p := range s.snapshot(ctx).Projects {
		if p.Independent() {
			out = append(out, p)
		}
	}
	return out
}

// GetTasksForProject returns the tasks owned by projectID.
func (s *Service) GetTasksForProject(ctx context.Context, projectID string) []Task {
	return s.snapshot(ctx).TasksForProject(projectID)
}

// ListTimeBlocks returns the stored time blocks without expanding recurrences.
func (s *Service) ListTimeBlocks(ctx context.Context) []TimeBlock {
	return s.snapshot(ctx).TimeBlocks
}

// ListTodos returns all todos.
func (s *Service) ListTodos(ctx context.Context) []Todo {
	return s.snapshot(ctx).Todos
}

// Domains returns the cached per-domain goal summaries.
func (s *Service) Domains(ctx context.Context) []DomainSummary {
	return s.snapshot(ctx).Domains
}

// Settings returns the stored preferences.
func (s *Service) Settings(ctx context.Context) Settings {
	return s.snapshot(ctx).Settings
}

// SaveSettings replaces the stored preferences.
func (s *Service) SaveSettings(ctx context.Context, settings Settings) (Result, error) {
	return s.run(ctx, "save_settings", "", func(tx Transaction) error {
		tx.SaveSettings(settings)
		return nil
	})
}

// CalculateGoalProgress computes a goal's progress from the current projects
// without writing it.
func (s *Service) CalculateGoalProgress(ctx context.Context, goalID string) int {
	return progress.GoalProgress(goalID, s.snapshot(ctx).Projects)
}

// CalculateProjectProgress computes a project's progress from the current
// tasks without writing it.
func (s *Service) CalculateProjectProgress(ctx context.Context, projectID string) int {
	snap := s.snapshot(ctx)
	return progress.ProjectProgress(projectID, snap.Tasks, snap.Projects)
}
