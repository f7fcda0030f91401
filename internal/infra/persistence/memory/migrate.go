package memory

import (
	"time"

	"lifeplan/pkg/domain"
)

// migrateSnapshot normalises a snapshot loaded from storage or imported by a
// caller. Records without an ID are dropped, duplicate IDs collapse onto the
// most recently updated copy, and enum fields missing from older payloads
// take their defaults.
//
//nolint:gocyclo // one pass over every collection keeps loading linear.
func migrateSnapshot(snapshot domain.Snapshot) domain.Snapshot {
	if snapshot.LinkMap == nil {
		snapshot.LinkMap = domain.LinkMap{}
	}
	if snapshot.Settings == nil {
		snapshot.Settings = domain.Settings{}
	}
	if snapshot.Domains == nil {
		snapshot.Domains = []domain.DomainSummary{}
	}

	snapshot.Goals = dedupe(snapshot.Goals, goalID, func(g domain.Goal) time.Time { return g.UpdatedAt })
	for i := range snapshot.Goals {
		g := &snapshot.Goals[i]
		if g.Domain == "" {
			g.Domain = domain.DefaultDomain
		}
		g.Progress = clampPercent(g.Progress)
	}

	snapshot.Projects = dedupe(snapshot.Projects, projectID, func(p domain.Project) time.Time { return p.UpdatedAt })
	for i := range snapshot.Projects {
		p := &snapshot.Projects[i]
		if p.GoalID != nil && *p.GoalID == "" {
			p.GoalID = nil
		}
		if p.GoalTitle != nil && *p.GoalTitle == "" {
			p.GoalTitle = nil
		}
		if !p.Status.Valid() {
			p.Status = domain.StatusTodo
		}
		p.Completed = p.Status == domain.StatusDone
		p.Progress = clampPercent(p.Progress)
	}

	snapshot.Tasks = dedupe(snapshot.Tasks, taskID, func(t domain.Task) time.Time { return t.UpdatedAt })
	for i := range snapshot.Tasks {
		if t := &snapshot.Tasks[i]; t.Status != "" && !t.Status.Valid() {
			t.Status = ""
		}
	}

	snapshot.TimeBlocks = dedupe(snapshot.TimeBlocks, timeBlockID, func(b domain.TimeBlock) time.Time { return b.UpdatedAt })
	for i := range snapshot.TimeBlocks {
		b := &snapshot.TimeBlocks[i]
		if b.ProjectID != nil && *b.ProjectID == "" {
			b.ProjectID = nil
		}
		if b.TaskID != nil && *b.TaskID == "" {
			b.TaskID = nil
		}
		if b.Recurrence != nil && b.Recurrence.Interval < 1 {
			b.Recurrence.Interval = 1
		}
	}

	snapshot.Todos = dedupe(snapshot.Todos, todoID, func(t domain.Todo) time.Time { return t.UpdatedAt })
	for i := range snapshot.Todos {
		if t := &snapshot.Todos[i]; t.Priority == "" {
			t.Priority = domain.PriorityMedium
		}
	}

	for pid, gid := range snapshot.LinkMap {
		if pid == "" || gid == "" {
			delete(snapshot.LinkMap, pid)
		}
	}
	return snapshot
}

// dedupe keeps the first position of every ID and the copy with the latest
// updated timestamp. The result is never nil.
func dedupe[T any](records []T, id func(T) string, updated func(T) time.Time) []T {
	out := make([]T, 0, len(records))
	pos := make(map[string]int, len(records))
	for _, r := range records {
		key := id(r)
		if key == "" {
			continue
		}
		if i, seen := pos[key]; seen {
			if updated(r).After(updated(out[i])) {
				out[i] = r
			}
			continue
		}
		pos[key] = len(out)
		out = append(out, r)
	}
	return out
}

func clampPercent(v int) int {
	return min(max(v, 0), 100)
}
