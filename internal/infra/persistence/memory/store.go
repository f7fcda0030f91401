// Package memory provides the authoritative in-memory planner store. Every
// mutation runs against a clone of the state and is swapped in only after the
// mutation and the pipeline stages succeed.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifeplan/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing pipeline runs.
	Result = domain.Result
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithIDGenerator overrides how IDs are assigned to new records.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.idFn = gen
		}
	}
}

// Store provides an in-memory transactional store for the planner.
type Store struct {
	mu       sync.RWMutex
	state    domain.Snapshot
	pipeline *domain.Pipeline
	nowFn    func() time.Time
	idFn     func() string
}

// NewStore constructs an empty store. Stages in pipeline run after every
// mutation inside the transaction.
func NewStore(pipeline *domain.Pipeline, opts ...Option) *Store {
	if pipeline == nil {
		pipeline = domain.NewPipeline()
	}
	s := &Store{
		state:    migrateSnapshot(domain.Snapshot{}),
		pipeline: pipeline,
		nowFn:    func() time.Time { return time.Now().UTC() },
		idFn:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ImportState replaces the store state with a normalised copy of snapshot.
func (s *Store) ImportState(snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = migrateSnapshot(snapshot.Clone())
}

// Pipeline exposes the configured stages.
func (s *Store) Pipeline() *domain.Pipeline {
	return s.pipeline
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// RunInTransaction executes fn within a transactional copy of the store
// state, runs the pipeline over the result and swaps it in. Any error leaves
// the committed state untouched.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.Clone(),
		now:   s.nowFn(),
	}
	if err := fn(tx); err != nil {
		return Result{}, err
	}
	return s.commit(ctx, tx)
}

func (s *Store) commit(ctx context.Context, tx *transaction) (Result, error) {
	result, err := s.pipeline.Run(ctx, &tx.state, tx.changes)
	if err != nil {
		return Result{}, err
	}
	s.state = tx.state
	return result, nil
}

// Reload re-normalises the current state and runs the full pipeline over it.
// The memory store has no backing medium to re-read.
func (s *Store) Reload(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &transaction{store: s, state: migrateSnapshot(s.state.Clone()), now: s.nowFn()}
	return s.commit(ctx, tx)
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.Clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

// GetGoal returns a goal by ID.
func (s *Store) GetGoal(id string) (domain.Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindGoal(id)
}

// ListGoals returns all goals in insertion order.
func (s *Store) ListGoals() []domain.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListGoals()
}

// ListProjects returns all projects in insertion order.
func (s *Store) ListProjects() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListProjects()
}

// ListTasks returns all tasks in insertion order.
func (s *Store) ListTasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListTasks()
}
