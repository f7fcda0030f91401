package domain

import "context"

// Cascade lists everything removed (or unlinked) by a delete that fans out to
// dependent records.
type Cascade struct {
	GoalIDs    []string
	ProjectIDs []string
	TaskIDs    []string
	// TimeBlocksUnlinked counts time blocks whose project/task link was cleared.
	TimeBlocksUnlinked int
}

// Empty reports whether the cascade removed nothing.
func (c Cascade) Empty() bool {
	return len(c.GoalIDs) == 0 && len(c.ProjectIDs) == 0 && len(c.TaskIDs) == 0
}

// Transaction exposes the entity store operations that a persistence
// implementation must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateGoal(Goal) (Goal, error)
	UpdateGoal(id string, mutator func(*Goal) error) (Goal, error)
	DeleteGoal(id string) (Cascade, error)
	CreateProject(Project) (Project, error)
	UpdateProject(id string, mutator func(*Project) error) (Project, error)
	DeleteProject(id string) (Cascade, error)
	CreateTask(Task) (Task, error)
	UpdateTask(id string, mutator func(*Task) error) (Task, error)
	DeleteTask(id string) error
	CreateTimeBlock(TimeBlock) (TimeBlock, error)
	UpdateTimeBlock(id string, mutator func(*TimeBlock) error) (TimeBlock, error)
	DeleteTimeBlock(id string) error
	CreateTodo(Todo) (Todo, error)
	UpdateTodo(id string, mutator func(*Todo) error) (Todo, error)
	DeleteTodo(id string) error
	ReplaceGoals([]Goal) error
	ReplaceProjects([]Project) error
	ReplaceTasks([]Task) error
	ReplaceTimeBlocks([]TimeBlock) error
	ReplaceTodos([]Todo) error
	ReplaceLinkMap(LinkMap)
	SaveSettings(Settings)
	FindGoal(id string) (Goal, bool)
	FindProject(id string) (Project, bool)
	FindTask(id string) (Task, bool)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	ListGoals() []Goal
	ListProjects() []Project
	ListTasks() []Task
	ListTimeBlocks() []TimeBlock
	ListTodos() []Todo
	ListDomains() []DomainSummary
	FindGoal(id string) (Goal, bool)
	FindProject(id string) (Project, bool)
	FindTask(id string) (Task, bool)
	FindTimeBlock(id string) (TimeBlock, bool)
	FindTodo(id string) (Todo, bool)
	LinkMap() LinkMap
	Settings() Settings
	Export() Snapshot
}

// PersistentStore is the abstraction the mutation coordinator works against.
// Implementations commit in memory first and then write the snapshot durably;
// a *StorageError return means the in-memory commit already happened.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Reload(ctx context.Context) (Result, error)
}
