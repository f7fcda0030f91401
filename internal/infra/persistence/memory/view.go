package memory

import (
	"lifeplan/pkg/domain"
)

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *domain.Snapshot
}

func newTransactionView(state *domain.Snapshot) TransactionView {
	return transactionView{state: state}
}

// ListGoals returns all goals within the snapshot.
func (v transactionView) ListGoals() []domain.Goal {
	out := make([]domain.Goal, 0, len(v.state.Goals))
	for _, g := range v.state.Goals {
		out = append(out, domain.CloneGoal(g))
	}
	return out
}

// ListProjects returns all projects within the snapshot.
func (v transactionView) ListProjects() []domain.Project {
	out := make([]domain.Project, 0, len(v.state.Projects))
	for _, p := range v.state.Projects {
		out = append(out, domain.CloneProject(p))
	}
	return out
}

// ListTasks returns all tasks within the snapshot.
func (v transactionView) ListTasks() []domain.Task {
	out := make([]domain.Task, 0, len(v.state.Tasks))
	for _, t := range v.state.Tasks {
		out = append(out, domain.CloneTask(t))
	}
	return out
}

// ListTimeBlocks returns all time blocks within the snapshot.
func (v transactionView) ListTimeBlocks() []domain.TimeBlock {
	out := make([]domain.TimeBlock, 0, len(v.state.TimeBlocks))
	for _, b := range v.state.TimeBlocks {
		out = append(out, domain.CloneTimeBlock(b))
	}
	return out
}

// ListTodos returns all todos within the snapshot.
func (v transactionView) ListTodos() []domain.Todo {
	out := make([]domain.Todo, 0, len(v.state.Todos))
	for _, t := range v.state.Todos {
		out = append(out, domain.CloneTodo(t))
	}
	return out
}

// ListDomains returns the cached domain summaries.
func (v transactionView) ListDomains() []domain.DomainSummary {
	return append([]domain.DomainSummary(nil), v.state.Domains...)
}

// FindGoal retrieves a goal by ID from the snapshot.
func (v transactionView) FindGoal(id string) (domain.Goal, bool) {
	if i := v.state.GoalIndex(id); i >= 0 {
		return domain.CloneGoal(v.state.Goals[i]), true
	}
	return domain.Goal{}, false
}

// FindProject retrieves a project by ID from the snapshot.
func (v transactionView) FindProject(id string) (domain.Project, bool) {
	if i := v.state.ProjectIndex(id); i >= 0 {
		return domain.CloneProject(v.state.Projects[i]), true
	}
	return domain.Project{}, false
}

// FindTask retrieves a task by ID from the snapshot.
func (v transactionView) FindTask(id string) (domain.Task, bool) {
	if i := v.state.TaskIndex(id); i >= 0 {
		return domain.CloneTask(v.state.Tasks[i]), true
	}
	return domain.Task{}, false
}

// FindTimeBlock retrieves a time block by ID from the snapshot.
func (v transactionView) FindTimeBlock(id string) (domain.TimeBlock, bool) {
	if i := v.state.TimeBlockIndex(id); i >= 0 {
		return domain.CloneTimeBlock(v.state.TimeBlocks[i]), true
	}
	return domain.TimeBlock{}, false
}

// FindTodo retrieves a todo by ID from the snapshot.
func (v transactionView) FindTodo(id string) (domain.Todo, bool) {
	if i := v.state.TodoIndex(id); i >= 0 {
		return domain.CloneTodo(v.state.Todos[i]), true
	}
	return domain.Todo{}, false
}

// LinkMap returns a copy of the project to goal link map.
func (v transactionView) LinkMap() domain.LinkMap {
	return v.state.LinkMap.Clone()
}

// Settings returns a copy of the settings record.
func (v transactionView) Settings() domain.Settings {
	out := make(domain.Settings, len(v.state.Settings))
	for k, val := range v.state.Settings {
		out[k] = val
	}
	return out
}

// Export deep-copies the whole snapshot.
func (v transactionView) Export() domain.Snapshot {
	return v.state.Clone()
}
