package relationship

import (
	"lifeplan/pkg/domain"
)

// DeleteGoalCascade removes the goal, every project whose GoalID names it,
// their tasks and any link entries pointing at the goal. The link map is only
// a cache, so a stale entry never pulls a project into the cascade. Time block
// links to removed projects or tasks are cleared.
func DeleteGoalCascade(s domain.Snapshot, goalID string) (domain.Snapshot, domain.Cascade, error) {
	if !s.HasGoal(goalID) {
		return s, domain.Cascade{}, domain.ErrNotFound{Entity: domain.EntityGoal, ID: goalID}
	}
	projects := make(map[string]struct{})
	for _, p := range s.Projects {
		if p.LinkedGoal() == goalID {
			projects[p.ID] = struct{}{}
		}
	}
	out, cascade := removeProjects(s.Clone(), projects)
	kept := out.Goals[:0]
	for _, g := range out.Goals {
		if g.ID != goalID {
			kept = append(kept, g)
		}
	}
	out.Goals = kept
	cascade.GoalIDs = []string{goalID}
	for projectID, g := range out.LinkMap {
		if g == goalID {
			delete(out.LinkMap, projectID)
		}
	}
	return out, cascade, nil
}

// DeleteProjectCascade removes one project, its tasks and its link entry.
func DeleteProjectCascade(s domain.Snapshot, projectID string) (domain.Snapshot, domain.Cascade, error) {
	if !s.HasProject(projectID) {
		return s, domain.Cascade{}, domain.ErrNotFound{Entity: domain.EntityProject, ID: projectID}
	}
	out, cascade := removeProjects(s.Clone(), map[string]struct{}{projectID: {}})
	return out, cascade, nil
}

// DeleteTaskCascade removes one task and clears time block links to it.
func DeleteTaskCascade(s domain.Snapshot, taskID string) (domain.Snapshot, domain.Cascade, error) {
	if s.TaskIndex(taskID) < 0 {
		return s, domain.Cascade{}, domain.ErrNotFound{Entity: domain.EntityTask, ID: taskID}
	}
	out := s.Clone()
	removed := map[string]struct{}{taskID: {}}
	out.Tasks = filterTasks(out.Tasks, func(t domain.Task) bool { return t.ID != taskID })
	cascade := domain.Cascade{TaskIDs: []string{taskID}}
	cascade.TimeBlocksUnlinked = unlinkTimeBlocks(out.TimeBlocks, nil, removed)
	return out, cascade, nil
}

func removeProjects(out domain.Snapshot, ids map[string]struct{}) (domain.Snapshot, domain.Cascade) {
	var cascade domain.Cascade
	keptProjects := out.Projects[:0]
	for _, p := range out.Projects {
		if _, drop := ids[p.ID]; drop {
			cascade.ProjectIDs = append(cascade.ProjectIDs, p.ID)
			delete(out.LinkMap, p.ID)
			continue
		}
		keptProjects = append(keptProjects, p)
	}
	out.Projects = keptProjects

	tasks := make(map[string]struct{})
	out.Tasks = filterTasks(out.Tasks, func(t domain.Task) bool {
		if _, drop := ids[t.ProjectID]; drop {
			tasks[t.ID] = struct{}{}
			cascade.TaskIDs = append(cascade.TaskIDs, t.ID)
			return false
		}
		return true
	})
	cascade.TimeBlocksUnlinked = unlinkTimeBlocks(out.TimeBlocks, ids, tasks)
	return out, cascade
}

func filterTasks(tasks []domain.Task, keep func(domain.Task) bool) []domain.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func unlinkTimeBlocks(blocks []domain.TimeBlock, projects, tasks map[string]struct{}) int {
	unlinked := 0
	for i := range blocks {
		b := &blocks[i]
		changed := false
		if b.ProjectID != nil {
			if _, gone := projects[*b.ProjectID]; gone {
				b.ProjectID = nil
				changed = true
			}
		}
		if b.TaskID != nil {
			if _, gone := tasks[*b.TaskID]; gone {
				b.TaskID = nil
				changed = true
			}
		}
		if changed {
			unlinked++
		}
	}
	return unlinked
}
