package core

import (
	"context"
	"time"

	"lifeplan/internal/recurrence"
	"lifeplan/pkg/domain"
)

// AddTask stores a task under an existing project. The project's progress
// and its goal's are reconciled in the same transaction.
func (s *Service) AddTask(ctx context.Context, task Task) (Task, Result, error) {
	var created Task
	res, err := s.run(ctx, "add_task", "", func(tx Transaction) error {
		var err error
		created, err = tx.CreateTask(task)
		return err
	})
	return created, res, err
}

// UpdateTask mutates a task. Completing a task changes its project's progress
// but never the project's status.
func (s *Service) UpdateTask(ctx context.Context, id string, mutator func(*Task) error) (Task, Result, error) {
	var updated Task
	res, err := s.run(ctx, "update_task", inflightKey(EntityTask, id), func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateTask(id, mutator)
		return err
	})
	return updated, res, err
}

// SetTaskCompleted marks a task done or open.
func (s *Service) SetTaskCompleted(ctx context.Context, id string, completed bool) (Task, Result, error) {
	return s.UpdateTask(ctx, id, func(t *Task) error {
		t.Completed = completed
		switch {
		case completed:
			t.Status = StatusDone
		case t.Status == StatusDone:
			t.Status = StatusTodo
		}
		return nil
	})
}

// DeleteTask removes a task from projectID. A task owned by another project
// is reported as not found.
func (s *Service) DeleteTask(ctx context.Context, projectID, taskID string) (Result, error) {
	return s.run(ctx, "delete_task", inflightKey(EntityTask, taskID), func(tx Transaction) error {
		task, ok := tx.FindTask(taskID)
		if !ok || task.ProjectID != projectID {
			return domain.ErrNotFound{Entity: EntityTask, ID: taskID}
		}
		return tx.DeleteTask(taskID)
	})
}

// AddTimeBlock stores a time block. Linked projects and tasks must exist.
func (s *Service) AddTimeBlock(ctx context.Context, block TimeBlock) (TimeBlock, Result, error) {
	var created TimeBlock
	res, err := s.run(ctx, "add_time_block", "", func(tx Transaction) error {
		var err error
		created, err = tx.CreateTimeBlock(block)
		return err
	})
	return created, res, err
}

// UpdateTimeBlock mutates a time block.
func (s *Service) UpdateTimeBlock(ctx context.Context, id string, mutator func(*TimeBlock) error) (TimeBlock, Result, error) {
	var updated TimeBlock
	res, err := s.run(ctx, "update_time_block", inflightKey(EntityTimeBlock, id), func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateTimeBlock(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteTimeBlock removes a time block.
func (s *Service) DeleteTimeBlock(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_time_block", inflightKey(EntityTimeBlock, id), func(tx Transaction) error {
		return tx.DeleteTimeBlock(id)
	})
}

// ExpandTimeBlocks materialises every block overlapping [from, to), with
// recurring blocks expanded into instances sorted by start. Instances are
// computed on read and never stored.
func (s *Service) ExpandTimeBlocks(ctx context.Context, from, to time.Time) []TimeBlock {
	return recurrence.ExpandAll(s.ListTimeBlocks(ctx), from, to)
}

// Upcoming expands the blocks in the window starting now.
func (s *Service) Upcoming(ctx context.Context, window time.Duration) []TimeBlock {
	now := s.clock.Now()
	return s.ExpandTimeBlocks(ctx, now, now.Add(window))
}

// AddTodo stores a todo.
func (s *Service) AddTodo(ctx context.Context, todo Todo) (Todo, Result, error) {
	var created Todo
	res, err := s.run(ctx, "add_todo", "", func(tx Transaction) error {
		var err error
		created, err = tx.CreateTodo(todo)
		return err
	})
	return created, res, err
}

// UpdateTodo mutates a todo.
func (s *Service) UpdateTodo(ctx context.Context, id string, mutator func(*Todo) error) (Todo, Result, error) {
	var updated Todo
	res, err := s.run(ctx, "update_todo", inflightKey(EntityTodo, id), func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateTodo(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteTodo removes a todo.
func (s *Service) DeleteTodo(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_todo", inflightKey(EntityTodo, id), func(tx Transaction) error {
		return tx.DeleteTodo(id)
	})
}
