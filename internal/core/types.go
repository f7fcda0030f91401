package core

import "lifeplan/pkg/domain"

type (
	EntityType      = domain.EntityType
	Base            = domain.Base
	Goal            = domain.Goal
	Project         = domain.Project
	ProjectStatus   = domain.ProjectStatus
	Task            = domain.Task
	TimeBlock       = domain.TimeBlock
	Recurrence      = domain.Recurrence
	Todo            = domain.Todo
	DomainSummary   = domain.DomainSummary
	Settings        = domain.Settings
	LinkMap         = domain.LinkMap
	Snapshot        = domain.Snapshot
	Change          = domain.Change
	Action          = domain.Action
	Finding         = domain.Finding
	Result          = domain.Result
	Cascade         = domain.Cascade
	Stage           = domain.Stage
	Pipeline        = domain.Pipeline
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

const (
	EntityGoal      = domain.EntityGoal
	EntityProject   = domain.EntityProject
	EntityTask      = domain.EntityTask
	EntityTimeBlock = domain.EntityTimeBlock
	EntityTodo      = domain.EntityTodo
)

const (
	StatusTodo       = domain.StatusTodo
	StatusInProgress = domain.StatusInProgress
	StatusDone       = domain.StatusDone
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
