package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeplan/internal/catalog"
	"lifeplan/internal/infra/persistence/memory"
	"lifeplan/internal/progress"
	"lifeplan/pkg/domain"
)

// Service coordinates every planner mutation: it guards entities against
// duplicate in-flight operations, runs the mutation and the pipeline inside
// one store transaction, and reports the outcome to the logger, metrics and
// tracer.
type Service struct {
	store       PersistentStore
	catalog     *catalog.Catalog
	logger      Logger
	clock       Clock
	metrics     MetricsRecorder
	tracer      Tracer
	settleDelay time.Duration
	inflight    *inflightGuard
}

// Option configures a Service.
type Option func(*Service)

// WithLogger routes service logs to logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMetricsRecorder records per-operation outcomes.
func WithMetricsRecorder(metrics MetricsRecorder) Option {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithTracer opens a span per operation.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithSettleDelay sets how long an entity stays guarded after its mutation.
// Zero releases the guard as soon as the mutation returns.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.settleDelay = d
		}
	}
}

// WithCatalog replaces the domain catalog used to classify goals.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *Service) {
		if cat != nil {
			s.catalog = cat
		}
	}
}

func newService(opts []Option) *Service {
	s := &Service{
		catalog:     catalog.Default(),
		logger:      noopLogger{},
		clock:       systemClock{},
		metrics:     noopMetrics{},
		tracer:      noopTracer{},
		settleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.inflight = newInflightGuard(s.settleDelay)
	return s
}

// NewService constructs a service over store. The store's pipeline should
// come from NewDefaultPipeline.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := newService(opts)
	s.store = store
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store running
// the default pipeline.
func NewInMemoryService(opts ...Option) *Service {
	s := newService(opts)
	s.store = memory.NewStore(NewDefaultPipeline(s.catalog), memory.WithClock(s.clock.Now))
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Catalog returns the domain catalog in use.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// run executes fn in a store transaction. A non-empty guardKey rejects the
// call with ErrDuplicateInFlight when the same entity is already mutating.
func (s *Service) run(ctx context.Context, op, guardKey string, fn func(tx Transaction) error) (Result, error) {
	if guardKey != "" {
		if !s.inflight.acquire(guardKey) {
			s.logger.Warn("mutation already in flight", "operation", op, "key", guardKey)
			s.metrics.Observe(ctx, op, false, 0)
			return Result{}, domain.ErrDuplicateInFlight
		}
		defer s.inflight.release(guardKey)
	}
	ctx, span := s.tracer.Start(ctx, op)
	start := s.clock.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	s.report(op, res, err)
	return res, err
}

func (s *Service) report(op string, res Result, err error) {
	for _, f := range res.Findings {
		if f.Severity == domain.SeverityWarn {
			s.logger.Warn(f.Message, "operation", op, "stage", f.Stage, "kind", f.Kind, "entity", f.Entity, "id", f.EntityID)
			continue
		}
		s.logger.Debug(f.Message, "operation", op, "stage", f.Stage, "kind", f.Kind, "entity", f.Entity, "id", f.EntityID)
	}
	var storageErr *domain.StorageError
	switch {
	case err == nil:
		s.logger.Debug("operation committed", "operation", op, "counts", res.Counts)
	case errors.As(err, &storageErr):
		s.logger.Error("persist failed, in-memory state kept", "operation", op, "op", storageErr.Op, "key", storageErr.Key, "error", storageErr.Err)
	default:
		s.logger.Warn("operation rejected", "operation", op, "error", err)
	}
}

// AddGoal classifies goal against the catalog and stores it.
func (s *Service) AddGoal(ctx context.Context, goal Goal) (Goal, Result, error) {
	s.catalog.ApplyToGoal(&goal)
	var created Goal
	res, err := s.run(ctx, "add_goal", "", func(tx Transaction) error {
		var err error
		created, err = tx.CreateGoal(goal)
		return err
	})
	return created, res, err
}

// UpdateGoal mutates a goal. The domain is re-resolved after the mutator ran
// and linked projects pick up a renamed title in the same transaction.
func (s *Service) UpdateGoal(ctx context.Context, id string, mutator func(*Goal) error) (Goal, Result, error) {
	var updated Goal
	res, err := s.run(ctx, "update_goal", inflightKey(EntityGoal, id), func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateGoal(id, func(g *Goal) error {
			previous := g.Domain
			if err := mutator(g); err != nil {
				return err
			}
			s.catalog.ReapplyToGoal(g, previous)
			return nil
		})
		return err
	})
	if err == nil || domain.IsStorageError(err) {
		if got, ok := s.GetGoal(ctx, id); ok {
			updated = got
		}
	}
	return updated, res, err
}

// DeleteGoal removes a goal with its projects, their tasks and link entries.
func (s *Service) DeleteGoal(ctx context.Context, id string) (Cascade, Result, error) {
	var cascade Cascade
	res, err := s.run(ctx, "delete_goal", inflightKey(EntityGoal, id), func(tx Transaction) error {
		var err error
		cascade, err = tx.DeleteGoal(id)
		return err
	})
	if err == nil || domain.IsStorageError(err) {
		s.logger.Info("goal deleted", "id", id, "projects", len(cascade.ProjectIDs), "tasks", len(cascade.TaskIDs), "time_blocks_unlinked", cascade.TimeBlocksUnlinked)
	}
	return cascade, res, err
}

// AddProject stores a project. A GoalID must exist; a bare GoalTitle links to
// the matching goal when there is one.
func (s *Service) AddProject(ctx context.Context, project Project) (Project, Result, error) {
	var created Project
	res, err := s.run(ctx, "add_project", "", func(tx Transaction) error {
		var err error
		created, err = tx.CreateProject(project)
		return err
	})
	if err == nil || domain.IsStorageError(err) {
		created = s.reread(ctx, created)
	}
	return created, res, err
}

// UpdateProject mutates a project.
func (s *Service) UpdateProject(ctx context.Context, id string, mutator func(*Project) error) (Project, Result, error) {
	var updated Project
	res, err := s.run(ctx, "update_project", inflightKey(EntityProject, id), func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateProject(id, mutator)
		return err
	})
	if err == nil || domain.IsStorageError(err) {
		updated = s.reread(ctx, updated)
	}
	return updated, res, err
}

// DeleteProject removes a project with its tasks.
func (s *Service) DeleteProject(ctx context.Context, id string) (Cascade, Result, error) {
	var cascade Cascade
	res, err := s.run(ctx, "delete_project", inflightKey(EntityProject, id), func(tx Transaction) error {
		var err error
		cascade, err = tx.DeleteProject(id)
		return err
	})
	return cascade, res, err
}

// UpdateProjectStatus moves a project between kanban columns. Done pins
// progress at 100; any other status recomputes progress from the tasks. The
// owning goal is reconciled in the same transaction.
func (s *Service) UpdateProjectStatus(ctx context.Context, id string, status ProjectStatus) (Project, Result, error) {
	if !status.Valid() {
		return Project{}, Result{}, domain.ValidationError{Entity: EntityProject, Field: "Status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	var updated Project
	res, err := s.run(ctx, "update_project_status", inflightKey(EntityProject, id), func(tx Transaction) error {
		tasks := tx.Snapshot().ListTasks()
		var err error
		updated, err = tx.UpdateProject(id, func(p *Project) error {
			*p = progress.ApplyStatus(*p, status, tasks)
			return nil
		})
		return err
	})
	if err == nil || domain.IsStorageError(err) {
		updated = s.reread(ctx, updated)
	}
	return updated, res, err
}

// UpdateProjectProgress recomputes a project's progress from its tasks and
// propagates it to the owning goal. Status is left alone.
func (s *Service) UpdateProjectProgress(ctx context.Context, id string) (Project, Result, error) {
	var updated Project
	res, err := s.run(ctx, "update_project_progress", inflightKey(EntityProject, id), func(tx Transaction) error {
		view := tx.Snapshot()
		next := progress.ProjectProgress(id, view.ListTasks(), view.ListProjects())
		var err error
		updated, err = tx.UpdateProject(id, func(p *Project) error {
			p.Progress = next
			return nil
		})
		return err
	})
	if err == nil || domain.IsStorageError(err) {
		updated = s.reread(ctx, updated)
	}
	return updated, res, err
}

// reread returns the committed copy of p, which carries the fields the
// pipeline derived after the mutation.
func (s *Service) reread(ctx context.Context, p Project) Project {
	if got, ok := s.GetProject(ctx, p.ID); ok {
		return got
	}
	return p
}
