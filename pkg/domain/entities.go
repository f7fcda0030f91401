// Package domain defines the persistent planning entities, value types, and
// pipeline primitives shared by the lifeplan stores and engines.
package domain

import (
	"time"
)

// EntityType identifies the type of record stored in the planner.
type EntityType string

// Supported entity type identifiers used in Change records, errors and storage keys.
const (
	// EntityGoal identifies a long-lived goal record.
	EntityGoal EntityType = "goal"
	// EntityProject identifies a project that may belong to a goal.
	EntityProject EntityType = "project"
	// EntityTask identifies a task owned by a project.
	EntityTask EntityType = "task"
	// EntityTimeBlock identifies a scheduled time block.
	EntityTimeBlock EntityType = "time_block"
	// EntityTodo identifies a free-standing todo item.
	EntityTodo EntityType = "todo"
	// EntitySettings identifies the opaque settings record.
	EntitySettings EntityType = "settings"
)

// ProjectStatus enumerates the kanban columns a project can occupy.
type ProjectStatus string

// Canonical project statuses. Tasks reuse the same values.
const (
	StatusTodo       ProjectStatus = "todo"
	StatusInProgress ProjectStatus = "in_progress"
	StatusDone       ProjectStatus = "done"
)

// Valid reports whether s is one of the canonical statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Frequency enumerates supported recurrence cadences for time blocks.
type Frequency string

// Recurrence cadences.
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Priority ranks todo items.
type Priority string

// Todo priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultDomain is the catalog entry used when a goal's domain cannot be resolved.
const DefaultDomain = "Other"

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Goal is the root of the planning hierarchy. Progress and Completed are
// derived from linked projects and are rewritten on every reconciliation.
type Goal struct {
	Base
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description,omitempty"`
	Domain      string     `json:"domain"`
	Icon        string     `json:"icon,omitempty"`
	Color       string     `json:"color,omitempty"`
	Progress    int        `json:"progress" validate:"gte=0,lte=100"`
	Completed   bool       `json:"completed"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
}

// Project groups tasks and optionally belongs to a goal. GoalTitle caches the
// parent goal's title; the goal record is authoritative.
type Project struct {
	Base
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description,omitempty"`
	GoalID      *string       `json:"goalId"`
	GoalTitle   *string       `json:"goalTitle"`
	Domain      string        `json:"domain,omitempty"`
	Color       string        `json:"color,omitempty"`
	Status      ProjectStatus `json:"status" validate:"required,oneof=todo in_progress done"`
	Progress    int           `json:"progress" validate:"gte=0,lte=100"`
	Completed   bool          `json:"completed"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
}

// Independent reports whether the project is not linked to any goal.
func (p Project) Independent() bool {
	return p.GoalID == nil || *p.GoalID == ""
}

// LinkedGoal returns the referenced goal ID, or "" for independent projects.
func (p Project) LinkedGoal() string {
	if p.GoalID == nil {
		return ""
	}
	return *p.GoalID
}

// Task is a unit of work owned by exactly one project.
type Task struct {
	Base
	ProjectID   string        `json:"projectId" validate:"required"`
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description,omitempty"`
	Completed   bool          `json:"completed"`
	Status      ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
}

// Done reports whether either completion flag marks the task finished.
func (t Task) Done() bool {
	return t.Completed || t.Status == StatusDone
}

// Recurrence describes how a time block repeats.
type Recurrence struct {
	Frequency Frequency  `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Interval  int        `json:"interval,omitempty" validate:"gte=0"`
	Until     *time.Time `json:"until,omitempty"`
	Count     int        `json:"count,omitempty" validate:"gte=0"`
}

// TimeBlock is a scheduled interval, optionally linked to a project or task.
type TimeBlock struct {
	Base
	Title      string      `json:"title" validate:"required"`
	Start      time.Time   `json:"start" validate:"required"`
	End        time.Time   `json:"end" validate:"required,gtfield=Start"`
	ProjectID  *string     `json:"projectId,omitempty"`
	TaskID     *string     `json:"taskId,omitempty"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

// Duration returns the length of the block.
func (b TimeBlock) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Todo is a free-standing checklist item outside the goal hierarchy.
type Todo struct {
	Base
	Title     string     `json:"title" validate:"required"`
	Completed bool       `json:"completed"`
	Priority  Priority   `json:"priority" validate:"required,oneof=low medium high"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
}

// DomainSummary is the cached per-domain rollup persisted under the domains key.
type DomainSummary struct {
	Name               string `json:"name"`
	Icon               string `json:"icon"`
	Color              string `json:"color"`
	GoalCount          int    `json:"goalCount"`
	CompletedGoalCount int    `json:"completedGoalCount"`
}

// LinkMap mirrors Project.GoalID as projectID -> goalID.
type LinkMap map[string]string

// Clone returns an independent copy of the map.
func (m LinkMap) Clone() LinkMap {
	out := make(LinkMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Settings holds application preferences. The planner core never interprets them.
type Settings map[string]any

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Change describes a mutation recorded inside a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
