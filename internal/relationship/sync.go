package relationship

import (
	"fmt"

	"lifeplan/pkg/domain"
)

// SyncStats counts the cache rewrites a Sync pass made.
type SyncStats struct {
	LinksWritten    int
	LinksDropped    int
	TitlesRefreshed int
	Inherited       int
}

// Sync is the cheap pass run after every mutation. For projects whose goal
// exists it mirrors the link into the link map, refreshes GoalTitle and
// inherits domain and color. Dangling references are reported as findings and
// left in place for Audit to repair.
func Sync(s domain.Snapshot) (domain.Snapshot, SyncStats, []domain.Finding) {
	out := s.Clone()
	if out.LinkMap == nil {
		out.LinkMap = domain.LinkMap{}
	}
	idx := indexGoals(out.Goals)
	var stats SyncStats
	var findings []domain.Finding
	live := make(map[string]struct{}, len(out.Projects))

	for i := range out.Projects {
		p := &out.Projects[i]
		live[p.ID] = struct{}{}
		if p.Independent() {
			if _, ok := out.LinkMap[p.ID]; ok {
				delete(out.LinkMap, p.ID)
				stats.LinksDropped++
			}
			continue
		}
		g, ok := idx.byID[*p.GoalID]
		if !ok {
			findings = append(findings, domain.Finding{
				Kind:     domain.FindingDanglingReference,
				Severity: domain.SeverityWarn,
				Entity:   domain.EntityProject,
				EntityID: p.ID,
				Message:  fmt.Sprintf("project %s references missing goal %s", p.ID, *p.GoalID),
			})
			continue
		}
		if out.LinkMap[p.ID] != g.ID {
			out.LinkMap[p.ID] = g.ID
			stats.LinksWritten++
		}
		if p.GoalTitle == nil || *p.GoalTitle != g.Title {
			p.GoalTitle = domain.StringPtr(g.Title)
			stats.TitlesRefreshed++
		}
		if inherit(p, g) {
			stats.Inherited++
		}
	}

	for projectID, goalID := range out.LinkMap {
		if _, ok := live[projectID]; ok {
			continue
		}
		delete(out.LinkMap, projectID)
		stats.LinksDropped++
		findings = append(findings, domain.Finding{
			Kind:     domain.FindingLinkDivergence,
			Severity: domain.SeverityInfo,
			Entity:   domain.EntityProject,
			EntityID: projectID,
			Message:  fmt.Sprintf("dropped link %s -> %s for missing project", projectID, goalID),
		})
	}

	projects := make(map[string]struct{}, len(out.Projects))
	for _, p := range out.Projects {
		projects[p.ID] = struct{}{}
	}
	for _, t := range out.Tasks {
		if _, ok := projects[t.ProjectID]; !ok {
			findings = append(findings, domain.Finding{
				Kind:     domain.FindingDanglingReference,
				Severity: domain.SeverityWarn,
				Entity:   domain.EntityTask,
				EntityID: t.ID,
				Message:  fmt.Sprintf("task %s references missing project %s", t.ID, t.ProjectID),
			})
		}
	}
	return out, stats, findings
}
