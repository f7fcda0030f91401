package core

import (
	"context"

	"lifeplan/internal/catalog"
	"lifeplan/internal/progress"
	"lifeplan/internal/relationship"
	"lifeplan/pkg/domain"
)

// Stage names, in the order NewDefaultPipeline registers them.
const (
	StageRelationships = "relationships"
	StageProgress      = "progress"
	StageDomains       = "domains"
)

// RelationshipStage keeps the link map and goal title caches in step with
// Project.GoalID after every mutation. Dangling references become findings.
type RelationshipStage struct{}

// NewRelationshipStage constructs the stage.
func NewRelationshipStage() RelationshipStage { return RelationshipStage{} }

// Name implements Stage.
func (RelationshipStage) Name() string { return StageRelationships }

// Apply implements Stage.
func (r RelationshipStage) Apply(_ context.Context, state *Snapshot, _ []Change) (Result, error) {
	next, stats, findings := relationship.Sync(*state)
	*state = next
	var res Result
	for i := range findings {
		findings[i].Stage = r.Name()
	}
	res.Findings = findings
	res.Add("links_written", stats.LinksWritten)
	res.Add("links_dropped", stats.LinksDropped)
	res.Add("titles_refreshed", stats.TitlesRefreshed)
	res.Add("inherited", stats.Inherited)
	return res, nil
}

// ProgressStage recomputes project and goal progress for the records touched
// by the transaction. A nil change set, as on reload, reconciles everything.
type ProgressStage struct{}

// NewProgressStage constructs the stage.
func NewProgressStage() ProgressStage { return ProgressStage{} }

// Name implements Stage.
func (ProgressStage) Name() string { return StageProgress }

// Apply implements Stage.
func (ProgressStage) Apply(_ context.Context, state *Snapshot, changes []Change) (Result, error) {
	scope := progress.ScopeFromChanges(changes)
	if changes == nil {
		scope = progress.FullScope(*state)
	}
	var res Result
	if scope.Empty() {
		return res, nil
	}
	next, stats := progress.Reconcile(*state, scope)
	*state = next
	res.Add("projects_recomputed", stats.ProjectsRecomputed)
	res.Add("projects_changed", stats.ProjectsChanged)
	res.Add("goals_recomputed", stats.GoalsRecomputed)
	res.Add("goals_changed", stats.GoalsChanged)
	return res, nil
}

// DomainStage rebuilds the cached per-domain goal summaries.
type DomainStage struct {
	catalog *catalog.Catalog
}

// NewDomainStage constructs the stage over cat, or the default catalog.
func NewDomainStage(cat *catalog.Catalog) DomainStage {
	if cat == nil {
		cat = catalog.Default()
	}
	return DomainStage{catalog: cat}
}

// Name implements Stage.
func (DomainStage) Name() string { return StageDomains }

// Apply implements Stage.
func (d DomainStage) Apply(_ context.Context, state *Snapshot, _ []Change) (Result, error) {
	summaries := d.catalog.Summaries(state.Goals)
	if summaries == nil {
		summaries = []DomainSummary{}
	}
	state.Domains = summaries
	return Result{}, nil
}

// NewDefaultPipeline registers the relationship, progress and domain stages
// in that order. Progress depends on the links the first stage settles.
func NewDefaultPipeline(cat *catalog.Catalog) *Pipeline {
	return domain.NewPipeline(NewRelationshipStage(), NewProgressStage(), NewDomainStage(cat))
}
