// Package persistence snapshots the in-memory planner store to a key/value
// backend. Every collection lives under its own key and the full set of keys
// is rewritten after each committed transaction.
package persistence

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"lifeplan/internal/infra/persistence/memory"
	"lifeplan/internal/kv"
	"lifeplan/pkg/domain"
)

// Persisted keys. The layout is shared with every kv driver.
const (
	KeyGoals      = "goals"
	KeyProjects   = "projects"
	KeyTasks      = "tasks"
	KeyTimeBlocks = "timeBlocks"
	KeyTodos      = "todos"
	KeyDomains    = "domains"
	KeyLinkMap    = "projectGoalLinkMap"
	KeySettings   = "settings"
)

// Keys lists every persisted key in load order.
var Keys = []string{KeyGoals, KeyProjects, KeyTasks, KeyTimeBlocks, KeyTodos, KeyDomains, KeyLinkMap, KeySettings}

var _ domain.PersistentStore = (*Store)(nil)

// LoadReport records how each key resolved on the last load. Missing and
// malformed keys fall back to empty collections.
type LoadReport struct {
	Missing   []string
	Malformed []string
}

// Clean reports whether every key decoded.
func (r LoadReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Malformed) == 0
}

// Store is a memory.Store whose committed state is written through to kv.
type Store struct {
	*memory.Store
	kv kv.Store

	mu     sync.Mutex
	report LoadReport
}

// Open loads the persisted snapshot from backend and wraps it in a
// transactional store running pipeline. Only backend read failures are
// returned; undecodable keys are reported through LastLoad.
func Open(ctx context.Context, backend kv.Store, pipeline *domain.Pipeline, opts ...memory.Option) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("persistence: nil kv store")
	}
	s := &Store{Store: memory.NewStore(pipeline, opts...), kv: backend}
	snapshot, report, err := load(ctx, backend)
	if err != nil {
		return nil, err
	}
	s.Store.ImportState(snapshot)
	s.report = report
	return s, nil
}

func load(ctx context.Context, backend kv.Store) (domain.Snapshot, LoadReport, error) {
	var snapshot domain.Snapshot
	decoded := make([]kv.Decoded, len(Keys))
	g, gctx := errgroup.WithContext(ctx)
	readers := []func() (kv.Decoded, error){
		func() (d kv.Decoded, err error) {
			snapshot.Goals, d, err = kv.GetJSON(gctx, backend, KeyGoals, []domain.Goal{})
			return d, err
		},
		func() (d kv.Decoded, err error) {
			snapshot.Projects, d, err = kv.GetJSON(gctx, backend, KeyProjects, []domain.Project{})
			return d, err
		},
		func() (d kv.Decoded, err error) {
			snapshot.Tasks, d, err = kv.GetJSON(gctx, backend, KeyTasks, []domain.Task{})
			return d, err
		},
		func() (d kv.Decoded, err error) {
			snapshot.TimeBlocks, d, err = kv.GetJSON(gctx, backend, KeyTimeBlocks, []domain.TimeBlock{})
			return d, err
		},
		func() (d kv.Decoded, err error) {
			snapshot.Todos, d, err = kv.GetJSON(gctx, backend, KeyTodos, []domain.Todo{})
			return d, err
		},
		func() (d kv.Decoded, err error) {
			snapshot.Domains, d, err = kv.GetJSON(gctx, backend, KeyDomains, []domain.DomainSummary{})
			return d, err
		},
		func() (d kv.Decoded, err error) {
			snapshot.LinkMap, d, err = kv.GetJSON(gctx, backend, KeyLinkMap, domain.LinkMap{})
			return d, err
		},
		func() (d kv.Decoded, err error) {
			snapshot.Settings, d, err = kv.GetJSON(gctx, backend, KeySettings, domain.Settings{})
			return d, err
		},
	}
	for i, read := range readers {
		g.Go(func() error {
			d, err := read()
			decoded[i] = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, LoadReport{}, err
	}

	var report LoadReport
	for i, d := range decoded {
		switch d {
		case kv.DecodedMissing:
			report.Missing = append(report.Missing, Keys[i])
		case kv.DecodedMalformed:
			report.Malformed = append(report.Malformed, Keys[i])
		}
	}
	return snapshot, report, nil
}

func encode(snapshot domain.Snapshot) map[string]any {
	return map[string]any{
		KeyGoals:      snapshot.Goals,
		KeyProjects:   snapshot.Projects,
		KeyTasks:      snapshot.Tasks,
		KeyTimeBlocks: snapshot.TimeBlocks,
		KeyTodos:      snapshot.Todos,
		KeyDomains:    snapshot.Domains,
		KeyLinkMap:    snapshot.LinkMap,
		KeySettings:   snapshot.Settings,
	}
}

// persist writes the latest committed snapshot. Holding mu while exporting
// keeps concurrent writers from storing an older snapshot last.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return kv.SetManyJSON(ctx, s.kv, encode(s.Store.ExportState()))
}

// RunInTransaction commits fn in memory and then writes the snapshot. A
// *domain.StorageError means the in-memory commit stands and the returned
// result is valid.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// Reload re-reads every key from the backend, runs the full pipeline over the
// result and writes the reconciled snapshot back.
func (s *Store) Reload(ctx context.Context) (domain.Result, error) {
	snapshot, report, err := load(ctx, s.kv)
	if err != nil {
		return domain.Result{}, err
	}
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
	s.Store.ImportState(snapshot)
	res, err := s.Store.Reload(ctx)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// Flush writes the current snapshot without running a transaction.
func (s *Store) Flush(ctx context.Context) error {
	return s.persist(ctx)
}

// LastLoad returns the report from the most recent load.
func (s *Store) LastLoad() LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// KV exposes the backing key/value store.
func (s *Store) KV() kv.Store { return s.kv }

// Close releases the backend.
func (s *Store) Close() error {
	return s.kv.Close()
}
