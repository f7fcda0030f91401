package core

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"lifeplan/internal/kv"
	"lifeplan/internal/persistence"
	"lifeplan/pkg/domain"
)

// failingKV rejects writes while fail is set.
type failingKV struct {
	kv.Store
	mu   sync.Mutex
	fail error
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	err := f.fail
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.Set(ctx, key, value)
}

func newMemoryKV(t *testing.T) kv.Store {
	t.Helper()
	store, err := kv.Open(context.Background(), kv.Config{Driver: kv.DriverMemory})
	if err != nil {
		t.Fatalf("open memory kv: %v", err)
	}
	return store
}

func openPersistence(t *testing.T, backend kv.Store) *persistence.Store {
	t.Helper()
	store, err := persistence.Open(context.Background(), backend, NewDefaultPipeline(nil))
	if err != nil {
		t.Fatalf("open persistence: %v", err)
	}
	return store
}

func TestOpenServiceReconcilesAndAuditsOnLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plan.db")
	cfg := StorageConfig{KV: kv.Config{Driver: kv.DriverSQLite, Path: path}}

	backend, err := kv.Open(ctx, cfg.KV)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	seed := map[string]any{
		persistence.KeyGoals: []Goal{{Base: Base{ID: "g1"}, Title: "Learn Spanish", Domain: "Education", Progress: 42}},
		persistence.KeyProjects: []Project{
			{Base: Base{ID: "p1"}, Title: "Duolingo", GoalID: domain.StringPtr("gone"), GoalTitle: domain.StringPtr("learn spanish"), Status: StatusDone},
			{Base: Base{ID: "p2"}, Title: "Orphan", GoalID: domain.StringPtr("gone"), Status: StatusTodo},
		},
		persistence.KeyLinkMap: LinkMap{"p1": "gone", "ghost": "g1"},
	}
	if err := kv.SetManyJSON(ctx, backend, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = backend.Close()

	svc, store, err := OpenService(ctx, cfg, WithSettleDelay(0))
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	defer func() { _ = store.Close() }()

	p1 := projectState(t, svc, "p1")
	if p1.LinkedGoal() != "g1" || *p1.GoalTitle != "Learn Spanish" {
		t.Fatalf("expected relink by title, got %+v", p1)
	}
	if p2 := projectState(t, svc, "p2"); !p2.Independent() || p2.GoalTitle != nil {
		t.Fatalf("expected orphan demoted, got %+v", p2)
	}
	if g := goalProgress(t, svc, "g1"); g.Progress != 100 || !g.Completed {
		t.Fatalf("expected goal reconciled from its done project, got %+v", g)
	}
	links := svc.snapshot(ctx).LinkMap
	if len(links) != 1 || links["p1"] != "g1" {
		t.Fatalf("expected repaired link map, got %+v", links)
	}

	persisted, _, err := kv.GetJSON(ctx, store.KV(), persistence.KeyLinkMap, LinkMap{})
	if err != nil || len(persisted) != 1 {
		t.Fatalf("expected repaired links written back, got %+v %v", persisted, err)
	}
}

func TestRefreshDataPicksUpExternalChanges(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryKV(t)
	svc := NewService(openPersistence(t, backend), WithSettleDelay(0))
	mustGoal(t, svc, "Run a marathon")

	if err := kv.SetJSON(ctx, backend, persistence.KeyTodos, []Todo{{Base: Base{ID: "t1"}, Title: "stretch"}}); err != nil {
		t.Fatalf("external write: %v", err)
	}
	if !svc.RefreshData(ctx) {
		t.Fatalf("refresh failed")
	}
	if todos := svc.ListTodos(ctx); len(todos) != 1 || todos[0].ID != "t1" {
		t.Fatalf("expected external todo after refresh, got %+v", todos)
	}
	if len(svc.ListGoals(ctx)) != 1 {
		t.Fatalf("expected goal kept")
	}
}

func TestOpenServiceUnknownDriver(t *testing.T) {
	if _, _, err := OpenService(context.Background(), StorageConfig{KV: kv.Config{Driver: "floppy"}}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
