package memory

import (
	"fmt"
	"reflect"
	"time"

	"lifeplan/internal/relationship"
	"lifeplan/pkg/domain"
)

type transaction struct {
	store   *Store
	state   domain.Snapshot
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindGoal exposes goal lookup within the transaction scope.
func (tx *transaction) FindGoal(id string) (domain.Goal, bool) {
	return newTransactionView(&tx.state).FindGoal(id)
}

// FindProject exposes project lookup within the transaction scope.
func (tx *transaction) FindProject(id string) (domain.Project, bool) {
	return newTransactionView(&tx.state).FindProject(id)
}

// FindTask exposes task lookup within the transaction scope.
func (tx *transaction) FindTask(id string) (domain.Task, bool) {
	return newTransactionView(&tx.state).FindTask(id)
}

func (tx *transaction) stamp(base *domain.Base) {
	if base.ID == "" {
		base.ID = tx.store.idFn()
	}
	base.CreatedAt = tx.now
	base.UpdatedAt = tx.now
}

// CreateGoal stores a new goal. An empty domain falls back to the default
// catalog entry; derived progress starts at zero.
func (tx *transaction) CreateGoal(g domain.Goal) (domain.Goal, error) {
	tx.stamp(&g.Base)
	if tx.state.HasGoal(g.ID) {
		return domain.Goal{}, fmt.Errorf("goal %q already exists", g.ID)
	}
	prepareGoal(&g)
	g.Progress = 0
	g.Completed = false
	if err := domain.Validate(domain.EntityGoal, g); err != nil {
		return domain.Goal{}, err
	}
	tx.state.Goals = append(tx.state.Goals, domain.CloneGoal(g))
	tx.recordChange(Change{Entity: domain.EntityGoal, Action: domain.ActionCreate, After: domain.CloneGoal(g)})
	return domain.CloneGoal(g), nil
}

// UpdateGoal mutates an existing goal using mutator.
func (tx *transaction) UpdateGoal(id string, mutator func(*domain.Goal) error) (domain.Goal, error) {
	i := tx.state.GoalIndex(id)
	if i < 0 {
		return domain.Goal{}, domain.ErrNotFound{Entity: domain.EntityGoal, ID: id}
	}
	before := domain.CloneGoal(tx.state.Goals[i])
	current := domain.CloneGoal(before)
	if err := mutator(&current); err != nil {
		return domain.Goal{}, err
	}
	current.Base = domain.Base{ID: id, CreatedAt: before.CreatedAt, UpdatedAt: tx.now}
	prepareGoal(&current)
	if err := domain.Validate(domain.EntityGoal, current); err != nil {
		return domain.Goal{}, err
	}
	tx.state.Goals[i] = domain.CloneGoal(current)
	tx.recordChange(Change{Entity: domain.EntityGoal, Action: domain.ActionUpdate, Before: before, After: domain.CloneGoal(current)})
	return domain.CloneGoal(current), nil
}

// DeleteGoal removes the goal and cascades to its projects and their tasks.
func (tx *transaction) DeleteGoal(id string) (domain.Cascade, error) {
	next, cascade, err := relationship.DeleteGoalCascade(tx.state, id)
	if err != nil {
		return domain.Cascade{}, err
	}
	tx.applyCascade(next)
	return cascade, nil
}

func prepareGoal(g *domain.Goal) {
	g.Title = domain.NormalizeTitle(g.Title)
	if g.Domain == "" {
		g.Domain = domain.DefaultDomain
	}
}

// CreateProject stores a new project. A GoalID must reference an existing
// goal; a project with only a GoalTitle is linked to the first goal carrying
// that title, or kept independent with the cached title when none matches.
func (tx *transaction) CreateProject(p domain.Project) (domain.Project, error) {
	tx.stamp(&p.Base)
	if tx.state.HasProject(p.ID) {
		return domain.Project{}, fmt.Errorf("project %q already exists", p.ID)
	}
	if p.Status == "" {
		p.Status = domain.StatusTodo
	}
	if err := tx.prepareProject(&p, nil); err != nil {
		return domain.Project{}, err
	}
	if err := domain.Validate(domain.EntityProject, p); err != nil {
		return domain.Project{}, err
	}
	tx.state.Projects = append(tx.state.Projects, domain.CloneProject(p))
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionCreate, After: domain.CloneProject(p)})
	return domain.CloneProject(p), nil
}

// UpdateProject mutates an existing project. Completed always follows Status.
func (tx *transaction) UpdateProject(id string, mutator func(*domain.Project) error) (domain.Project, error) {
	i := tx.state.ProjectIndex(id)
	if i < 0 {
		return domain.Project{}, domain.ErrNotFound{Entity: domain.EntityProject, ID: id}
	}
	before := domain.CloneProject(tx.state.Projects[i])
	current := domain.CloneProject(before)
	if err := mutator(&current); err != nil {
		return domain.Project{}, err
	}
	current.Base = domain.Base{ID: id, CreatedAt: before.CreatedAt, UpdatedAt: tx.now}
	if err := tx.prepareProject(&current, before.GoalID); err != nil {
		return domain.Project{}, err
	}
	if err := domain.Validate(domain.EntityProject, current); err != nil {
		return domain.Project{}, err
	}
	tx.state.Projects[i] = domain.CloneProject(current)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionUpdate, Before: before, After: domain.CloneProject(current)})
	return domain.CloneProject(current), nil
}

// DeleteProject removes the project and its tasks.
func (tx *transaction) DeleteProject(id string) (domain.Cascade, error) {
	next, cascade, err := relationship.DeleteProjectCascade(tx.state, id)
	if err != nil {
		return domain.Cascade{}, err
	}
	tx.applyCascade(next)
	return cascade, nil
}

// prepareProject normalises p and resolves its goal link. A GoalID equal to
// previous is kept even when the goal is gone; Sync reports it and Audit
// repairs it.
func (tx *transaction) prepareProject(p *domain.Project, previous *string) error {
	p.Title = domain.NormalizeTitle(p.Title)
	if p.GoalID != nil && *p.GoalID == "" {
		p.GoalID = nil
	}
	if p.GoalTitle != nil && domain.NormalizeTitle(*p.GoalTitle) == "" {
		p.GoalTitle = nil
	}
	switch {
	case p.GoalID != nil:
		i := tx.state.GoalIndex(*p.GoalID)
		if i < 0 {
			if previous != nil && *previous == *p.GoalID {
				break
			}
			return domain.ErrNotFound{Entity: domain.EntityGoal, ID: *p.GoalID}
		}
		p.GoalTitle = domain.StringPtr(tx.state.Goals[i].Title)
	case p.GoalTitle != nil:
		if g, ok := relationship.FindGoalByTitle(tx.state.Goals, *p.GoalTitle); ok {
			p.GoalID = domain.StringPtr(g.ID)
			p.GoalTitle = domain.StringPtr(g.Title)
		}
	}
	p.Completed = p.Status == domain.StatusDone
	if p.Completed {
		p.Progress = 100
	}
	return nil
}

// CreateTask stores a new task under an existing project.
func (tx *transaction) CreateTask(t domain.Task) (domain.Task, error) {
	tx.stamp(&t.Base)
	if tx.state.TaskIndex(t.ID) >= 0 {
		return domain.Task{}, fmt.Errorf("task %q already exists", t.ID)
	}
	t.Title = domain.NormalizeTitle(t.Title)
	if err := domain.Validate(domain.EntityTask, t); err != nil {
		return domain.Task{}, err
	}
	if !tx.state.HasProject(t.ProjectID) {
		return domain.Task{}, domain.ErrNotFound{Entity: domain.EntityProject, ID: t.ProjectID}
	}
	tx.state.Tasks = append(tx.state.Tasks, domain.CloneTask(t))
	tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionCreate, After: domain.CloneTask(t)})
	return domain.CloneTask(t), nil
}

// UpdateTask mutates an existing task. Moving it requires the target project
// to exist.
func (tx *transaction) UpdateTask(id string, mutator func(*domain.Task) error) (domain.Task, error) {
	i := tx.state.TaskIndex(id)
	if i < 0 {
		return domain.Task{}, domain.ErrNotFound{Entity: domain.EntityTask, ID: id}
	}
	before := domain.CloneTask(tx.state.Tasks[i])
	current := domain.CloneTask(before)
	if err := mutator(&current); err != nil {
		return domain.Task{}, err
	}
	current.Base = domain.Base{ID: id, CreatedAt: before.CreatedAt, UpdatedAt: tx.now}
	current.Title = domain.NormalizeTitle(current.Title)
	if err := domain.Validate(domain.EntityTask, current); err != nil {
		return domain.Task{}, err
	}
	if !tx.state.HasProject(current.ProjectID) {
		return domain.Task{}, domain.ErrNotFound{Entity: domain.EntityProject, ID: current.ProjectID}
	}
	tx.state.Tasks[i] = domain.CloneTask(current)
	tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionUpdate, Before: before, After: domain.CloneTask(current)})
	return domain.CloneTask(current), nil
}

// DeleteTask removes a task and clears time block links to it.
func (tx *transaction) DeleteTask(id string) error {
	next, _, err := relationship.DeleteTaskCascade(tx.state, id)
	if err != nil {
		return err
	}
	tx.applyCascade(next)
	return nil
}

// CreateTimeBlock stores a new time block. Linked projects and tasks must exist.
func (tx *transaction) CreateTimeBlock(b domain.TimeBlock) (domain.TimeBlock, error) {
	tx.stamp(&b.Base)
	if tx.state.TimeBlockIndex(b.ID) >= 0 {
		return domain.TimeBlock{}, fmt.Errorf("time block %q already exists", b.ID)
	}
	if err := tx.prepareTimeBlock(&b); err != nil {
		return domain.TimeBlock{}, err
	}
	tx.state.TimeBlocks = append(tx.state.TimeBlocks, domain.CloneTimeBlock(b))
	tx.recordChange(Change{Entity: domain.EntityTimeBlock, Action: domain.ActionCreate, After: domain.CloneTimeBlock(b)})
	return domain.CloneTimeBlock(b), nil
}

// UpdateTimeBlock mutates an existing time block.
func (tx *transaction) UpdateTimeBlock(id string, mutator func(*domain.TimeBlock) error) (domain.TimeBlock, error) {
	i := tx.state.TimeBlockIndex(id)
	if i < 0 {
		return domain.TimeBlock{}, domain.ErrNotFound{Entity: domain.EntityTimeBlock, ID: id}
	}
	before := domain.CloneTimeBlock(tx.state.TimeBlocks[i])
	current := domain.CloneTimeBlock(before)
	if err := mutator(&current); err != nil {
		return domain.TimeBlock{}, err
	}
	current.Base = domain.Base{ID: id, CreatedAt: before.CreatedAt, UpdatedAt: tx.now}
	if err := tx.prepareTimeBlock(&current); err != nil {
		return domain.TimeBlock{}, err
	}
	tx.state.TimeBlocks[i] = domain.CloneTimeBlock(current)
	tx.recordChange(Change{Entity: domain.EntityTimeBlock, Action: domain.ActionUpdate, Before: before, After: domain.CloneTimeBlock(current)})
	return domain.CloneTimeBlock(current), nil
}

// DeleteTimeBlock removes a time block.
func (tx *transaction) DeleteTimeBlock(id string) error {
	i := tx.state.TimeBlockIndex(id)
	if i < 0 {
		return domain.ErrNotFound{Entity: domain.EntityTimeBlock, ID: id}
	}
	before := tx.state.TimeBlocks[i]
	tx.state.TimeBlocks = append(tx.state.TimeBlocks[:i], tx.state.TimeBlocks[i+1:]...)
	tx.recordChange(Change{Entity: domain.EntityTimeBlock, Action: domain.ActionDelete, Before: before})
	return nil
}

func (tx *transaction) prepareTimeBlock(b *domain.TimeBlock) error {
	b.Title = domain.NormalizeTitle(b.Title)
	if b.ProjectID != nil && *b.ProjectID == "" {
		b.ProjectID = nil
	}
	if b.TaskID != nil && *b.TaskID == "" {
		b.TaskID = nil
	}
	if b.Recurrence != nil && b.Recurrence.Interval == 0 {
		b.Recurrence.Interval = 1
	}
	if err := domain.Validate(domain.EntityTimeBlock, *b); err != nil {
		return err
	}
	if b.ProjectID != nil && !tx.state.HasProject(*b.ProjectID) {
		return domain.ErrNotFound{Entity: domain.EntityProject, ID: *b.ProjectID}
	}
	if b.TaskID != nil && tx.state.TaskIndex(*b.TaskID) < 0 {
		return domain.ErrNotFound{Entity: domain.EntityTask, ID: *b.TaskID}
	}
	return nil
}

// CreateTodo stores a new todo. Priority defaults to medium.
func (tx *transaction) CreateTodo(t domain.Todo) (domain.Todo, error) {
	tx.stamp(&t.Base)
	if tx.state.TodoIndex(t.ID) >= 0 {
		return domain.Todo{}, fmt.Errorf("todo %q already exists", t.ID)
	}
	prepareTodo(&t)
	if err := domain.Validate(domain.EntityTodo, t); err != nil {
		return domain.Todo{}, err
	}
	tx.state.Todos = append(tx.state.Todos, domain.CloneTodo(t))
	tx.recordChange(Change{Entity: domain.EntityTodo, Action: domain.ActionCreate, After: domain.CloneTodo(t)})
	return domain.CloneTodo(t), nil
}

// UpdateTodo mutates an existing todo.
func (tx *transaction) UpdateTodo(id string, mutator func(*domain.Todo) error) (domain.Todo, error) {
	i := tx.state.TodoIndex(id)
	if i < 0 {
		return domain.Todo{}, domain.ErrNotFound{Entity: domain.EntityTodo, ID: id}
	}
	before := domain.CloneTodo(tx.state.Todos[i])
	current := domain.CloneTodo(before)
	if err := mutator(&current); err != nil {
		return domain.Todo{}, err
	}
	current.Base = domain.Base{ID: id, CreatedAt: before.CreatedAt, UpdatedAt: tx.now}
	prepareTodo(&current)
	if err := domain.Validate(domain.EntityTodo, current); err != nil {
		return domain.Todo{}, err
	}
	tx.state.Todos[i] = domain.CloneTodo(current)
	tx.recordChange(Change{Entity: domain.EntityTodo, Action: domain.ActionUpdate, Before: before, After: domain.CloneTodo(current)})
	return domain.CloneTodo(current), nil
}

// DeleteTodo removes a todo.
func (tx *transaction) DeleteTodo(id string) error {
	i := tx.state.TodoIndex(id)
	if i < 0 {
		return domain.ErrNotFound{Entity: domain.EntityTodo, ID: id}
	}
	before := tx.state.Todos[i]
	tx.state.Todos = append(tx.state.Todos[:i], tx.state.Todos[i+1:]...)
	tx.recordChange(Change{Entity: domain.EntityTodo, Action: domain.ActionDelete, Before: before})
	return nil
}

func prepareTodo(t *domain.Todo) {
	t.Title = domain.NormalizeTitle(t.Title)
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
}

// ReplaceGoals swaps the whole goal collection. Records are validated but
// keep their timestamps and derived fields.
func (tx *transaction) ReplaceGoals(goals []domain.Goal) error {
	next := make([]domain.Goal, len(goals))
	for i, g := range goals {
		g = domain.CloneGoal(g)
		prepareGoal(&g)
		if err := domain.Validate(domain.EntityGoal, g); err != nil {
			return err
		}
		next[i] = g
	}
	if err := uniqueIDs(domain.EntityGoal, next, goalID); err != nil {
		return err
	}
	tx.changes = append(tx.changes, diff(domain.EntityGoal, tx.state.Goals, next, goalID)...)
	tx.state.Goals = next
	return nil
}

// ReplaceProjects swaps the whole project collection. Goal references are
// not checked here; dangling ones surface as findings and are repaired by
// the audit.
func (tx *transaction) ReplaceProjects(projects []domain.Project) error {
	next := make([]domain.Project, len(projects))
	for i, p := range projects {
		p = domain.CloneProject(p)
		p.Title = domain.NormalizeTitle(p.Title)
		if p.Status == "" {
			p.Status = domain.StatusTodo
		}
		if err := domain.Validate(domain.EntityProject, p); err != nil {
			return err
		}
		next[i] = p
	}
	if err := uniqueIDs(domain.EntityProject, next, projectID); err != nil {
		return err
	}
	tx.changes = append(tx.changes, diff(domain.EntityProject, tx.state.Projects, next, projectID)...)
	tx.state.Projects = next
	return nil
}

// ReplaceTasks swaps the whole task collection.
func (tx *transaction) ReplaceTasks(tasks []domain.Task) error {
	next := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		t = domain.CloneTask(t)
		t.Title = domain.NormalizeTitle(t.Title)
		if err := domain.Validate(domain.EntityTask, t); err != nil {
			return err
		}
		next[i] = t
	}
	if err := uniqueIDs(domain.EntityTask, next, taskID); err != nil {
		return err
	}
	tx.changes = append(tx.changes, diff(domain.EntityTask, tx.state.Tasks, next, taskID)...)
	tx.state.Tasks = next
	return nil
}

// ReplaceTimeBlocks swaps the whole time block collection.
func (tx *transaction) ReplaceTimeBlocks(blocks []domain.TimeBlock) error {
	next := make([]domain.TimeBlock, len(blocks))
	for i, b := range blocks {
		b = domain.CloneTimeBlock(b)
		b.Title = domain.NormalizeTitle(b.Title)
		if err := domain.Validate(domain.EntityTimeBlock, b); err != nil {
			return err
		}
		next[i] = b
	}
	if err := uniqueIDs(domain.EntityTimeBlock, next, timeBlockID); err != nil {
		return err
	}
	tx.changes = append(tx.changes, diff(domain.EntityTimeBlock, tx.state.TimeBlocks, next, timeBlockID)...)
	tx.state.TimeBlocks = next
	return nil
}

// ReplaceTodos swaps the whole todo collection.
func (tx *transaction) ReplaceTodos(todos []domain.Todo) error {
	next := make([]domain.Todo, len(todos))
	for i, t := range todos {
		t = domain.CloneTodo(t)
		prepareTodo(&t)
		if err := domain.Validate(domain.EntityTodo, t); err != nil {
			return err
		}
		next[i] = t
	}
	if err := uniqueIDs(domain.EntityTodo, next, todoID); err != nil {
		return err
	}
	tx.changes = append(tx.changes, diff(domain.EntityTodo, tx.state.Todos, next, todoID)...)
	tx.state.Todos = next
	return nil
}

// ReplaceLinkMap swaps the project to goal link map.
func (tx *transaction) ReplaceLinkMap(links domain.LinkMap) {
	tx.state.LinkMap = links.Clone()
}

// SaveSettings replaces the opaque settings record.
func (tx *transaction) SaveSettings(settings domain.Settings) {
	next := make(domain.Settings, len(settings))
	for k, v := range settings {
		next[k] = v
	}
	tx.state.Settings = next
}

// applyCascade swaps in the result of a relationship cascade and records a
// change for every removed or rewritten record.
func (tx *transaction) applyCascade(next domain.Snapshot) {
	tx.changes = append(tx.changes, diff(domain.EntityGoal, tx.state.Goals, next.Goals, goalID)...)
	tx.changes = append(tx.changes, diff(domain.EntityProject, tx.state.Projects, next.Projects, projectID)...)
	tx.changes = append(tx.changes, diff(domain.EntityTask, tx.state.Tasks, next.Tasks, taskID)...)
	tx.changes = append(tx.changes, diff(domain.EntityTimeBlock, tx.state.TimeBlocks, next.TimeBlocks, timeBlockID)...)
	tx.state = next
}

func goalID(g domain.Goal) string           { return g.ID }
func projectID(p domain.Project) string     { return p.ID }
func taskID(t domain.Task) string           { return t.ID }
func timeBlockID(b domain.TimeBlock) string { return b.ID }
func todoID(t domain.Todo) string           { return t.ID }

func uniqueIDs[T any](entity domain.EntityType, records []T, id func(T) string) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		key := id(r)
		if key == "" {
			return domain.ValidationError{Entity: entity, Field: "ID", Message: "is required"}
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s %q already exists", entity, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// diff describes how before became after as change records. Records are
// matched by ID; unchanged records produce nothing.
func diff[T any](entity domain.EntityType, before, after []T, id func(T) string) []Change {
	old := make(map[string]T, len(before))
	for _, r := range before {
		old[id(r)] = r
	}
	var changes []Change
	for _, r := range after {
		prev, ok := old[id(r)]
		switch {
		case !ok:
			changes = append(changes, Change{Entity: entity, Action: domain.ActionCreate, After: r})
		case !reflect.DeepEqual(prev, r):
			changes = append(changes, Change{Entity: entity, Action: domain.ActionUpdate, Before: prev, After: r})
		}
		delete(old, id(r))
	}
	for _, r := range before {
		if _, removed := old[id(r)]; removed {
			changes = append(changes, Change{Entity: entity, Action: domain.ActionDelete, Before: r})
		}
	}
	return changes
}
