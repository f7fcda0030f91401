package domain

import "time"

// Snapshot is the complete planner state. Collections keep insertion order,
// which makes title matching and summaries deterministic.
type Snapshot struct {
	Goals      []Goal          `json:"goals"`
	Projects   []Project       `json:"projects"`
	Tasks      []Task          `json:"tasks"`
	TimeBlocks []TimeBlock     `json:"timeBlocks"`
	Todos      []Todo          `json:"todos"`
	Domains    []DomainSummary `json:"domains"`
	LinkMap    LinkMap         `json:"projectGoalLinkMap"`
	Settings   Settings        `json:"settings"`
}

// Clone deep-copies the snapshot so callers can mutate the result freely.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Goals:      make([]Goal, len(s.Goals)),
		Projects:   make([]Project, len(s.Projects)),
		Tasks:      make([]Task, len(s.Tasks)),
		TimeBlocks: make([]TimeBlock, len(s.TimeBlocks)),
		Todos:      make([]Todo, len(s.Todos)),
		Domains:    make([]DomainSummary, len(s.Domains)),
		LinkMap:    s.LinkMap.Clone(),
		Settings:   make(Settings, len(s.Settings)),
	}
	copy(out.Domains, s.Domains)
	for i, g := range s.Goals {
		out.Goals[i] = CloneGoal(g)
	}
	for i, p := range s.Projects {
		out.Projects[i] = CloneProject(p)
	}
	for i, t := range s.Tasks {
		out.Tasks[i] = CloneTask(t)
	}
	for i, b := range s.TimeBlocks {
		out.TimeBlocks[i] = CloneTimeBlock(b)
	}
	for i, t := range s.Todos {
		out.Todos[i] = CloneTodo(t)
	}
	for k, v := range s.Settings {
		out.Settings[k] = v
	}
	return out
}

// CloneGoal copies a goal including its optional fields.
func CloneGoal(g Goal) Goal {
	g.TargetDate = cloneTime(g.TargetDate)
	return g
}

// CloneProject copies a project including its optional fields.
func CloneProject(p Project) Project {
	p.GoalID = cloneString(p.GoalID)
	p.GoalTitle = cloneString(p.GoalTitle)
	p.DueDate = cloneTime(p.DueDate)
	return p
}

// CloneTask copies a task including its optional fields.
func CloneTask(t Task) Task {
	t.DueDate = cloneTime(t.DueDate)
	return t
}

// CloneTimeBlock copies a time block including its recurrence rule.
func CloneTimeBlock(b TimeBlock) TimeBlock {
	b.ProjectID = cloneString(b.ProjectID)
	b.TaskID = cloneString(b.TaskID)
	if b.Recurrence != nil {
		r := *b.Recurrence
		r.Until = cloneTime(r.Until)
		b.Recurrence = &r
	}
	return b
}

// CloneTodo copies a todo including its optional fields.
func CloneTodo(t Todo) Todo {
	t.DueDate = cloneTime(t.DueDate)
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// GoalIndex returns the position of the goal with id, or -1.
func (s Snapshot) GoalIndex(id string) int {
	for i := range s.Goals {
		if s.Goals[i].ID == id {
			return i
		}
	}
	return -1
}

// ProjectIndex returns the position of the project with id, or -1.
func (s Snapshot) ProjectIndex(id string) int {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

// TaskIndex returns the position of the task with id, or -1.
func (s Snapshot) TaskIndex(id string) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// TimeBlockIndex returns the position of the time block with id, or -1.
func (s Snapshot) TimeBlockIndex(id string) int {
	for i := range s.TimeBlocks {
		if s.TimeBlocks[i].ID == id {
			return i
		}
	}
	return -1
}

// TodoIndex returns the position of the todo with id, or -1.
func (s Snapshot) TodoIndex(id string) int {
	for i := range s.Todos {
		if s.Todos[i].ID == id {
			return i
		}
	}
	return -1
}

// HasGoal reports whether a goal with id exists.
func (s Snapshot) HasGoal(id string) bool { return s.GoalIndex(id) >= 0 }

// HasProject reports whether a project with id exists.
func (s Snapshot) HasProject(id string) bool { return s.ProjectIndex(id) >= 0 }

// ProjectsForGoal returns the projects whose GoalID references goalID.
func (s Snapshot) ProjectsForGoal(goalID string) []Project {
	var out []Project
	for _, p := range s.Projects {
		if p.LinkedGoal() == goalID {
			out = append(out, CloneProject(p))
		}
	}
	return out
}

// TasksForProject returns the tasks owned by projectID.
func (s Snapshot) TasksForProject(projectID string) []Task {
	var out []Task
	for _, t := range s.Tasks {
		if t.ProjectID == projectID {
			out = append(out, CloneTask(t))
		}
	}
	return out
}
