// Package relationship keeps the project to goal graph consistent: it audits
// and repairs dangling references, links orphaned projects by title, keeps the
// link map in step with Project.GoalID, and computes delete cascades.
//
// Every function is pure over its inputs. Callers persist the returned
// collections and log the counters.
package relationship

import (
	"strings"

	"lifeplan/pkg/domain"
)

// AuditStats counts what an audit inspected and repaired.
type AuditStats struct {
	Checked         int
	IssuesFound     int
	IssuesFixed     int
	Relinked        int
	Demoted         int
	TitlesRefreshed int
	LinksRepaired   int
}

// AuditResult carries the repaired collections and their stats.
type AuditResult struct {
	Projects []domain.Project
	LinkMap  domain.LinkMap
	Stats    AuditStats
}

// LinkResult is returned by LinkByTitle.
type LinkResult struct {
	Projects []domain.Project
	LinkMap  domain.LinkMap
	Fixed    int
}

// CleanupResult is returned by CleanupOrphans.
type CleanupResult struct {
	Projects []domain.Project
	LinkMap  domain.LinkMap
	Orphans  int
}

type goalIndex struct {
	byID  map[string]domain.Goal
	order []domain.Goal
}

func indexGoals(goals []domain.Goal) goalIndex {
	idx := goalIndex{byID: make(map[string]domain.Goal, len(goals)), order: goals}
	for _, g := range goals {
		if _, dup := idx.byID[g.ID]; !dup {
			idx.byID[g.ID] = g
		}
	}
	return idx
}

// byTitle returns the first goal in order whose title matches exactly,
// ignoring case and surrounding whitespace.
func (idx goalIndex) byTitle(title string) (domain.Goal, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Goal{}, false
	}
	for _, g := range idx.order {
		if strings.EqualFold(strings.TrimSpace(g.Title), title) {
			return g, true
		}
	}
	return domain.Goal{}, false
}

func cloneProjects(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, len(projects))
	for i, p := range projects {
		out[i] = domain.CloneProject(p)
	}
	return out
}

func demote(p *domain.Project, links domain.LinkMap) {
	p.GoalID = nil
	p.GoalTitle = nil
	delete(links, p.ID)
}

func attach(p *domain.Project, g domain.Goal, links domain.LinkMap) {
	p.GoalID = domain.StringPtr(g.ID)
	p.GoalTitle = domain.StringPtr(g.Title)
	links[p.ID] = g.ID
}

// Audit verifies every project's goal reference. A missing goal is repaired by
// matching the cached GoalTitle against goal titles, otherwise the project is
// demoted to independent. Drifted title caches are refreshed and the link map
// is rewritten to mirror Project.GoalID. Audit is idempotent.
func Audit(projects []domain.Project, goals []domain.Goal, linkMap domain.LinkMap) AuditResult {
	idx := indexGoals(goals)
	out := AuditResult{Projects: cloneProjects(projects), LinkMap: linkMap.Clone()}
	st := &out.Stats
	live := make(map[string]struct{}, len(out.Projects))

	for i := range out.Projects {
		p := &out.Projects[i]
		live[p.ID] = struct{}{}
		if p.Independent() {
			if p.GoalID != nil {
				p.GoalID = nil
			}
			if _, stale := out.LinkMap[p.ID]; stale {
				delete(out.LinkMap, p.ID)
				st.IssuesFound++
				st.IssuesFixed++
				st.LinksRepaired++
			}
			continue
		}

		st.Checked++
		goalID := *p.GoalID
		if g, ok := idx.byID[goalID]; ok {
			if out.LinkMap[p.ID] != goalID {
				out.LinkMap[p.ID] = goalID
				st.IssuesFound++
				st.IssuesFixed++
				st.LinksRepaired++
			}
			if p.GoalTitle == nil || *p.GoalTitle != g.Title {
				p.GoalTitle = domain.StringPtr(g.Title)
				st.IssuesFound++
				st.IssuesFixed++
				st.TitlesRefreshed++
			}
			continue
		}

		st.IssuesFound++
		cached := ""
		if p.GoalTitle != nil {
			cached = *p.GoalTitle
		}
		if g, ok := idx.byTitle(cached); ok {
			attach(p, g, out.LinkMap)
			st.Relinked++
		} else {
			demote(p, out.LinkMap)
			st.Demoted++
		}
		st.IssuesFixed++
	}

	for projectID := range out.LinkMap {
		if _, ok := live[projectID]; !ok {
			delete(out.LinkMap, projectID)
			st.IssuesFound++
			st.IssuesFixed++
			st.LinksRepaired++
		}
	}
	return out
}

// LinkByTitle links independent projects that still carry a GoalTitle to the
// goal with that title. Linked projects inherit the goal's domain and color
// when they define none.
func LinkByTitle(projects []domain.Project, goals []domain.Goal, linkMap domain.LinkMap) LinkResult {
	idx := indexGoals(goals)
	out := LinkResult{Projects: cloneProjects(projects), LinkMap: linkMap.Clone()}
	for i := range out.Projects {
		p := &out.Projects[i]
		if !p.Independent() || p.GoalTitle == nil {
			continue
		}
		g, ok := idx.byTitle(*p.GoalTitle)
		if !ok {
			continue
		}
		attach(p, g, out.LinkMap)
		inherit(p, g)
		out.Fixed++
	}
	return out
}

func inherit(p *domain.Project, g domain.Goal) bool {
	changed := false
	if p.Domain == "" && g.Domain != "" {
		p.Domain = g.Domain
		changed = true
	}
	if p.Color == "" && g.Color != "" {
		p.Color = g.Color
		changed = true
	}
	return changed
}

// CleanupOrphans demotes projects whose goal no longer exists and drops their
// link map entries.
func CleanupOrphans(projects []domain.Project, goals []domain.Goal, linkMap domain.LinkMap) CleanupResult {
	idx := indexGoals(goals)
	out := CleanupResult{Projects: cloneProjects(projects), LinkMap: linkMap.Clone()}
	for i := range out.Projects {
		p := &out.Projects[i]
		if p.Independent() {
			continue
		}
		if _, ok := idx.byID[*p.GoalID]; ok {
			continue
		}
		demote(p, out.LinkMap)
		out.Orphans++
	}
	return out
}

// FindGoalByTitle returns the first goal in order whose title matches title
// exactly, ignoring case.
func FindGoalByTitle(goals []domain.Goal, title string) (domain.Goal, bool) {
	return indexGoals(goals).byTitle(title)
}
