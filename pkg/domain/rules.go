package domain

import "context"

// Severity captures how a pipeline finding should be reported.
type Severity string

// Finding severities. Findings never block a commit; they are logged and
// counted so the audit pass can heal them later.
const (
	SeverityWarn Severity = "warn"
	SeverityInfo Severity = "info"
)

// FindingKind classifies a pipeline finding.
type FindingKind string

// Finding kinds reported by pipeline stages and audits.
const (
	// FindingDanglingReference marks a foreign key pointing at a missing record.
	FindingDanglingReference FindingKind = "dangling_reference"
	// FindingStaleCache marks a denormalised field that drifted from its source.
	FindingStaleCache FindingKind = "stale_cache"
	// FindingLinkDivergence marks a link map entry that disagrees with Project.GoalID.
	FindingLinkDivergence FindingKind = "link_divergence"
)

// Finding reports something a stage noticed while reconciling a snapshot.
type Finding struct {
	Stage    string
	Kind     FindingKind
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates findings and counters from a pipeline run.
type Result struct {
	Findings []Finding
	Counts   map[string]int
}

// Merge appends findings and sums counters from another result.
func (r *Result) Merge(other Result) {
	if len(other.Findings) > 0 {
		r.Findings = append(r.Findings, other.Findings...)
	}
	for k, v := range other.Counts {
		r.Add(k, v)
	}
}

// Add increments the named counter by n.
func (r *Result) Add(name string, n int) {
	if n == 0 {
		return
	}
	if r.Counts == nil {
		r.Counts = make(map[string]int)
	}
	r.Counts[name] += n
}

// Count returns the named counter.
func (r Result) Count(name string) int {
	return r.Counts[name]
}

// Stage is one ordered step run after every mutation inside the transaction.
// Stages rewrite derived fields of state in place.
type Stage interface {
	Name() string
	Apply(ctx context.Context, state *Snapshot, changes []Change) (Result, error)
}

// Pipeline runs stages in registration order.
type Pipeline struct {
	stages []Stage
}

// NewPipeline constructs a pipeline with the given stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// Register appends a stage to the pipeline.
func (p *Pipeline) Register(stage Stage) {
	p.stages = append(p.stages, stage)
}

// Stages returns the registered stage names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name())
	}
	return names
}

// Run executes all stages and aggregates their results.
func (p *Pipeline) Run(ctx context.Context, state *Snapshot, changes []Change) (Result, error) {
	var combined Result
	for _, stage := range p.stages {
		res, err := stage.Apply(ctx, state, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
