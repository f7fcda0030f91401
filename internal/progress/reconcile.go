package progress

import (
	"sort"

	"lifeplan/pkg/domain"
)

// Scope names the records whose derived progress must be recomputed.
type Scope struct {
	ProjectIDs []string
	GoalIDs    []string
}

// AddProject adds a project ID to the scope, ignoring blanks and duplicates.
func (s *Scope) AddProject(id string) {
	if id == "" || contains(s.ProjectIDs, id) {
		return
	}
	s.ProjectIDs = append(s.ProjectIDs, id)
}

// AddGoal adds a goal ID to the scope, ignoring blanks and duplicates.
func (s *Scope) AddGoal(id string) {
	if id == "" || contains(s.GoalIDs, id) {
		return
	}
	s.GoalIDs = append(s.GoalIDs, id)
}

// Empty reports whether nothing is in scope.
func (s Scope) Empty() bool {
	return len(s.ProjectIDs) == 0 && len(s.GoalIDs) == 0
}

func contains(values []string, id string) bool {
	for _, v := range values {
		if v == id {
			return true
		}
	}
	return false
}

// FullScope selects every project and goal in the snapshot.
func FullScope(s domain.Snapshot) Scope {
	var scope Scope
	for _, p := range s.Projects {
		scope.AddProject(p.ID)
	}
	for _, g := range s.Goals {
		scope.AddGoal(g.ID)
	}
	return scope
}

// ScopeFromChanges maps mutations to the records they can affect. A task
// change touches its parent project before and after the change; a project
// change touches the project plus its old and new goal.
func ScopeFromChanges(changes []domain.Change) Scope {
	var scope Scope
	for _, ch := range changes {
		switch ch.Entity {
		case domain.EntityTask:
			for _, v := range []any{ch.Before, ch.After} {
				if t, ok := v.(domain.Task); ok {
					scope.AddProject(t.ProjectID)
				}
			}
		case domain.EntityProject:
			for _, v := range []any{ch.Before, ch.After} {
				if p, ok := v.(domain.Project); ok {
					scope.AddProject(p.ID)
					scope.AddGoal(p.LinkedGoal())
				}
			}
		case domain.EntityGoal:
			for _, v := range []any{ch.Before, ch.After} {
				if g, ok := v.(domain.Goal); ok {
					scope.AddGoal(g.ID)
				}
			}
		}
	}
	return scope
}

// Stats counts what a reconciliation pass looked at and changed.
type Stats struct {
	ProjectsRecomputed int
	ProjectsChanged    int
	GoalsRecomputed    int
	GoalsChanged       int
}

// Reconcile recomputes the scoped projects, then every goal owning one of
// them plus the scoped goals. Project Status is never written. Records that
// no longer exist are skipped.
func Reconcile(s domain.Snapshot, scope Scope) (domain.Snapshot, Stats) {
	out := s.Clone()
	var stats Stats
	goals := make(map[string]struct{}, len(scope.GoalIDs))
	for _, id := range scope.GoalIDs {
		goals[id] = struct{}{}
	}
	for _, id := range scope.ProjectIDs {
		idx := out.ProjectIndex(id)
		if idx < 0 {
			continue
		}
		p := &out.Projects[idx]
		next := ProjectProgress(id, out.Tasks, out.Projects)
		stats.ProjectsRecomputed++
		if p.Progress != next {
			p.Progress = next
			stats.ProjectsChanged++
		}
		if g := p.LinkedGoal(); g != "" {
			goals[g] = struct{}{}
		}
	}
	ids := make([]string, 0, len(goals))
	for id := range goals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		idx := out.GoalIndex(id)
		if idx < 0 {
			continue
		}
		g := &out.Goals[idx]
		next := GoalProgress(id, out.Projects)
		stats.GoalsRecomputed++
		if g.Progress != next || g.Completed != (next == 100) {
			g.Progress = next
			g.Completed = next == 100
			stats.GoalsChanged++
		}
	}
	return out, stats
}
