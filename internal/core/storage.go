package core

import (
	"context"
	"fmt"

	"lifeplan/internal/infra/persistence/memory"
	"lifeplan/internal/kv"
	"lifeplan/internal/persistence"
	"lifeplan/pkg/domain"
)

// StorageConfig selects the kv backend the planner snapshot is written to.
type StorageConfig struct {
	KV kv.Config
}

// openStore opens the configured kv backend and loads the planner snapshot
// from it. The store runs the default pipeline over the service catalog.
func (s *Service) openStore(ctx context.Context, cfg StorageConfig) (*persistence.Store, error) {
	backend, err := kv.Open(ctx, cfg.KV)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.KV.Driver, err)
	}
	store, err := persistence.Open(ctx, backend, NewDefaultPipeline(s.catalog), memory.WithClock(s.clock.Now))
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if report := store.LastLoad(); len(report.Malformed) > 0 {
		s.logger.Warn("ignored malformed keys on load", "keys", report.Malformed)
	}
	return store, nil
}

// OpenService opens the configured backend and returns a service over it.
// The loaded snapshot is fully reconciled and audited before it is returned.
func OpenService(ctx context.Context, cfg StorageConfig, opts ...Option) (*Service, *persistence.Store, error) {
	s := newService(opts)
	store, err := s.openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	s.store = store
	if _, err := store.Store.Reload(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("reconcile snapshot: %w", err)
	}
	if _, err := s.AuditProjectGoalRelationships(ctx); err != nil && !domain.IsStorageError(err) {
		_ = store.Close()
		return nil, nil, fmt.Errorf("initial audit: %w", err)
	}
	return s, store, nil
}
