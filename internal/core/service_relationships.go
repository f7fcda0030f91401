package core

import (
	"context"

	"lifeplan/internal/relationship"
)

// AuditProjectGoalRelationships verifies every project's goal reference,
// relinking by cached title or demoting to independent, and rewrites the
// link map to mirror Project.GoalID.
func (s *Service) AuditProjectGoalRelationships(ctx context.Context) (relationship.AuditStats, error) {
	var stats relationship.AuditStats
	_, err := s.run(ctx, "audit_relationships", "", func(tx Transaction) error {
		view := tx.Snapshot()
		audit := relationship.Audit(view.ListProjects(), view.ListGoals(), view.LinkMap())
		stats = audit.Stats
		if err := tx.ReplaceProjects(audit.Projects); err != nil {
			return err
		}
		tx.ReplaceLinkMap(audit.LinkMap)
		return nil
	})
	if stats.IssuesFound > 0 {
		s.logger.Info("relationship audit repaired issues",
			"checked", stats.Checked,
			"found", stats.IssuesFound,
			"fixed", stats.IssuesFixed,
			"relinked", stats.Relinked,
			"demoted", stats.Demoted,
			"titles_refreshed", stats.TitlesRefreshed,
			"links_repaired", stats.LinksRepaired,
		)
	}
	return stats, err
}

// CleanupOrphanedProjects demotes projects whose goal no longer exists and
// returns how many were demoted.
func (s *Service) CleanupOrphanedProjects(ctx context.Context) (int, error) {
	var orphans int
	_, err := s.run(ctx, "cleanup_orphans", "", func(tx Transaction) error {
		view := tx.Snapshot()
		cleanup := relationship.CleanupOrphans(view.ListProjects(), view.ListGoals(), view.LinkMap())
		orphans = cleanup.Orphans
		if err := tx.ReplaceProjects(cleanup.Projects); err != nil {
			return err
		}
		tx.ReplaceLinkMap(cleanup.LinkMap)
		return nil
	})
	if orphans > 0 {
		s.logger.Info("orphaned projects demoted", "count", orphans)
	}
	return orphans, err
}

// LinkProjectsToGoalsByTitle links independent projects whose cached goal
// title matches a goal, and returns how many were linked.
func (s *Service) LinkProjectsToGoalsByTitle(ctx context.Context) (int, error) {
	var fixed int
	_, err := s.run(ctx, "link_by_title", "", func(tx Transaction) error {
		view := tx.Snapshot()
		linked := relationship.LinkByTitle(view.ListProjects(), view.ListGoals(), view.LinkMap())
		fixed = linked.Fixed
		if err := tx.ReplaceProjects(linked.Projects); err != nil {
			return err
		}
		tx.ReplaceLinkMap(linked.LinkMap)
		return nil
	})
	if fixed > 0 {
		s.logger.Info("projects linked by title", "count", fixed)
	}
	return fixed, err
}

// RefreshData reloads every collection from storage, reconciles it through
// the full pipeline and audits the relationships. It reports whether the
// refresh completed; failures are logged.
func (s *Service) RefreshData(ctx context.Context) bool {
	ctx, span := s.tracer.Start(ctx, "refresh_data")
	start := s.clock.Now()
	res, err := s.store.Reload(ctx)
	if err == nil {
		_, err = s.AuditProjectGoalRelationships(ctx)
	}
	span.End(err)
	s.metrics.Observe(ctx, "refresh_data", err == nil, s.clock.Now().Sub(start))
	s.report("refresh_data", res, err)
	return err == nil
}
