package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"lifeplan/internal/kv"
	"lifeplan/pkg/domain"
)

// flakyKV wraps a kv store and fails writes or reads on demand.
type flakyKV struct {
	kv.Store
	mu       sync.Mutex
	failSet  error
	failGet  error
	setCalls int
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.setCalls++
	err := f.failSet
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	err := f.failGet
	f.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return f.Store.Get(ctx, key)
}

func openMemoryKV(t *testing.T) kv.Store {
	t.Helper()
	store, err := kv.Open(context.Background(), kv.Config{Driver: kv.DriverMemory})
	if err != nil {
		t.Fatalf("open memory kv: %v", err)
	}
	return store
}

func createGoal(ctx context.Context, s *Store, title string) (domain.Goal, error) {
	var g domain.Goal
	_, err := s.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		g, err = tx.CreateGoal(domain.Goal{Title: title})
		return err
	})
	return g, err
}

func TestOpenEmptyBackendReportsMissingKeys(t *testing.T) {
	s, err := Open(context.Background(), openMemoryKV(t), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	report := s.LastLoad()
	if !slices.Equal(report.Missing, Keys) || report.Clean() {
		t.Fatalf("expected all keys missing, got %+v", report)
	}
	if len(s.ListGoals()) != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestWriteThroughAndReopenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lifeplan.db")
	backend, err := kv.Open(ctx, kv.Config{Driver: kv.DriverSQLite, Path: path})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	g, err := createGoal(ctx, s, "Run a marathon")
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	backend, err = kv.Open(ctx, kv.Config{Driver: kv.DriverSQLite, Path: path})
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	reopened, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, ok := reopened.GetGoal(g.ID)
	if !ok || got.Title != "Run a marathon" {
		t.Fatalf("expected persisted goal, got %+v ok=%v", got, ok)
	}
	if !reopened.LastLoad().Clean() {
		t.Fatalf("expected every key written, got %+v", reopened.LastLoad())
	}
}

func TestMalformedKeyFallsBack(t *testing.T) {
	ctx := context.Background()
	backend := openMemoryKV(t)
	if err := backend.Set(ctx, KeyGoals, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := kv.SetJSON(ctx, backend, KeyTodos, []domain.Todo{{Base: domain.Base{ID: "t1"}, Title: "milk"}}); err != nil {
		t.Fatalf("seed todos: %v", err)
	}
	s, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !slices.Contains(s.LastLoad().Malformed, KeyGoals) {
		t.Fatalf("expected goals reported malformed, got %+v", s.LastLoad())
	}
	state := s.ExportState()
	if len(state.Goals) != 0 || len(state.Todos) != 1 || state.Todos[0].Priority != domain.PriorityMedium {
		t.Fatalf("unexpected state after fallback: %+v", state)
	}
}

func TestStorageFailureKeepsInMemoryCommit(t *testing.T) {
	ctx := context.Background()
	backend := &flakyKV{Store: openMemoryKV(t)}
	s, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	backend.failSet = errors.New("disk full")
	g, err := createGoal(ctx, s, "Save money")
	var se *domain.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, ok := s.GetGoal(g.ID); !ok {
		t.Fatalf("in-memory commit must stand after a storage failure")
	}

	backend.failSet = nil
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	goals, _, err := kv.GetJSON(ctx, backend, KeyGoals, []domain.Goal{})
	if err != nil || len(goals) != 1 {
		t.Fatalf("expected healed write, got %+v err=%v", goals, err)
	}
}

func TestFailedTransactionDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	backend := &flakyKV{Store: openMemoryKV(t)}
	s, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := createGoal(ctx, s, " "); err == nil {
		t.Fatalf("expected validation error")
	}
	if backend.setCalls != 0 {
		t.Fatalf("failed transaction wrote %d keys", backend.setCalls)
	}
}

func TestOpenPropagatesBackendReadFailure(t *testing.T) {
	backend := &flakyKV{Store: openMemoryKV(t), failGet: errors.New("timeout")}
	if _, err := Open(context.Background(), backend, nil); !domain.IsStorageError(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestReloadPicksUpExternalWrites(t *testing.T) {
	ctx := context.Background()
	backend := openMemoryKV(t)
	s, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	raw, _ := json.Marshal([]domain.Goal{
		{Base: domain.Base{ID: "g1"}, Title: "Write a book"},
		{Base: domain.Base{ID: "g1"}, Title: "Duplicate"},
	})
	if err := backend.Set(ctx, KeyGoals, raw); err != nil {
		t.Fatalf("external write: %v", err)
	}
	if _, err := s.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	goals := s.ListGoals()
	if len(goals) != 1 || goals[0].Title != "Write a book" || goals[0].Domain != domain.DefaultDomain {
		t.Fatalf("expected normalised reload, got %+v", goals)
	}
	persisted, _, _ := kv.GetJSON(ctx, backend, KeyGoals, []domain.Goal{})
	if len(persisted) != 1 {
		t.Fatalf("expected reload to write back the deduplicated goals, got %+v", persisted)
	}
}
