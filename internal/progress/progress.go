// Package progress derives project and goal completion percentages from their
// children. Functions are pure over snapshots; callers apply the results.
//
// Status and progress are decoupled: recomputation never writes a project's
// Status. Only ApplyStatus changes Status, and a done status pins progress at
// 100 regardless of the task ratio.
package progress

import (
	"lifeplan/pkg/domain"
)

// Percent returns round(100*done/total) with halves rounded up, clamped to
// 0..100. A zero total yields 0.
func Percent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return (200*done + total) / (2 * total)
}

// ProjectComplete reports whether any of the three completion signals is set.
// The fields may diverge transiently, so completeness is permissive.
func ProjectComplete(p domain.Project) bool {
	return p.Progress == 100 || p.Completed || p.Status == domain.StatusDone
}

// ProjectProgress computes the project's percentage from its tasks. A done or
// completed project always reports 100, checked before the zero-task rule. An
// unknown project reports 0.
func ProjectProgress(projectID string, tasks []domain.Task, projects []domain.Project) int {
	var project *domain.Project
	for i := range projects {
		if projects[i].ID == projectID {
			project = &projects[i]
			break
		}
	}
	if project == nil {
		return 0
	}
	if project.Status == domain.StatusDone || project.Completed {
		return 100
	}
	return taskRatio(projectID, tasks)
}

func taskRatio(projectID string, tasks []domain.Task) int {
	total, done := 0, 0
	for _, t := range tasks {
		if t.ProjectID != projectID {
			continue
		}
		total++
		if t.Done() {
			done++
		}
	}
	return Percent(done, total)
}

// GoalProgress computes the goal's percentage from the projects linked to it.
func GoalProgress(goalID string, projects []domain.Project) int {
	total, done := 0, 0
	for _, p := range projects {
		if p.LinkedGoal() != goalID || goalID == "" {
			continue
		}
		total++
		if ProjectComplete(p) {
			done++
		}
	}
	return Percent(done, total)
}

// ApplyStatus moves a project to status. Done forces progress 100 and
// completed; any other status clears completed and recomputes progress from
// the current tasks.
func ApplyStatus(p domain.Project, status domain.ProjectStatus, tasks []domain.Task) domain.Project {
	p = domain.CloneProject(p)
	p.Status = status
	if status == domain.StatusDone {
		p.Progress = 100
		p.Completed = true
		return p
	}
	p.Completed = false
	p.Progress = taskRatio(p.ID, tasks)
	return p
}
