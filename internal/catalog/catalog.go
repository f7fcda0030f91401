// Package catalog holds the fixed table of life domains that goals are filed
// under, and resolves free-text labels to canonical entries.
package catalog

import (
	"strings"

	"lifeplan/pkg/domain"
)

// Entry is one life domain with its display metadata.
type Entry struct {
	Name     string
	Icon     string
	Color    string
	Keywords []string
}

// Catalog is an ordered, immutable list of entries. Order breaks ties.
type Catalog struct {
	entries []Entry
	other   Entry
}

var defaultEntries = []Entry{
	{Name: "Health", Icon: "fitness", Color: "#4CAF50", Keywords: []string{"health", "fitness", "exercise", "gym", "run", "diet", "sleep", "weight", "workout", "yoga", "meditate"}},
	{Name: "Career", Icon: "briefcase", Color: "#2196F3", Keywords: []string{"career", "job", "work", "promotion", "business", "interview", "resume", "client", "startup"}},
	{Name: "Finance", Icon: "cash", Color: "#FFC107", Keywords: []string{"money", "finance", "save", "saving", "invest", "budget", "debt", "income", "retirement"}},
	{Name: "Education", Icon: "school", Color: "#9C27B0", Keywords: []string{"learn", "study", "course", "degree", "read", "book", "language", "exam", "class", "spanish"}},
	{Name: "Relationships", Icon: "people", Color: "#E91E63", Keywords: []string{"family", "friend", "partner", "relationship", "date", "kids", "parents", "wedding"}},
	{Name: "Personal Growth", Icon: "leaf", Color: "#009688", Keywords: []string{"habit", "growth", "journal", "mindset", "confidence", "discipline", "routine"}},
	{Name: "Creativity", Icon: "color-palette", Color: "#FF5722", Keywords: []string{"art", "paint", "music", "write", "writing", "draw", "photo", "design", "guitar", "piano"}},
	{Name: "Recreation", Icon: "airplane", Color: "#00BCD4", Keywords: []string{"travel", "trip", "vacation", "hobby", "game", "hike", "camping", "fun"}},
	{Name: "Spirituality", Icon: "flower", Color: "#673AB7", Keywords: []string{"spiritual", "faith", "pray", "church", "gratitude", "mindfulness"}},
	{Name: "Home", Icon: "home", Color: "#795548", Keywords: []string{"home", "house", "garden", "clean", "renovate", "move", "apartment", "declutter"}},
	{Name: domain.DefaultDomain, Icon: "ellipsis-horizontal", Color: "#607D8B"},
}

// Default returns the built-in catalog. The last entry is the fallback.
func Default() *Catalog {
	return New(defaultEntries)
}

// New builds a catalog from entries. The entry named domain.DefaultDomain is
// the fallback; when absent the last entry takes that role.
func New(entries []Entry) *Catalog {
	c := &Catalog{entries: make([]Entry, len(entries))}
	for i, e := range entries {
		e.Keywords = append([]string(nil), e.Keywords...)
		c.entries[i] = e
		if strings.EqualFold(e.Name, domain.DefaultDomain) {
			c.other = e
		}
	}
	if c.other.Name == "" && len(c.entries) > 0 {
		c.other = c.entries[len(c.entries)-1]
	}
	if c.other.Name == "" {
		c.other = Entry{Name: domain.DefaultDomain}
	}
	return c
}

// Entries returns a copy of the catalog in order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Other returns the fallback entry.
func (c *Catalog) Other() Entry {
	return c.other
}

// Lookup matches nameOrIcon by exact name, then substring, then icon. All
// comparisons ignore case. It reports false when nothing matches.
func (c *Catalog) Lookup(nameOrIcon string) (Entry, bool) {
	q := strings.ToLower(strings.TrimSpace(nameOrIcon))
	if q == "" {
		return Entry{}, false
	}
	for _, e := range c.entries {
		if strings.ToLower(e.Name) == q {
			return e, true
		}
	}
	for _, e := range c.entries {
		name := strings.ToLower(e.Name)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return e, true
		}
	}
	for _, e := range c.entries {
		if e.Icon != "" && strings.ToLower(e.Icon) == q {
			return e, true
		}
	}
	return Entry{}, false
}

// Query carries everything Resolve may use to classify a goal.
type Query struct {
	Name        string
	Icon        string
	Title       string
	Description string
}

// Resolve always returns an entry: name, icon, keyword score over the title
// and description, then the fallback. Keyword scoring is a best-effort guess.
func (c *Catalog) Resolve(q Query) Entry {
	if e, ok := c.Lookup(q.Name); ok {
		return e
	}
	if e, ok := c.Lookup(q.Icon); ok {
		return e
	}
	if e, ok := c.score(q.Title + " " + q.Description); ok {
		return e
	}
	return c.other
}

func (c *Catalog) score(text string) (Entry, bool) {
	words := tokenize(text)
	if len(words) == 0 {
		return Entry{}, false
	}
	best, bestHits := -1, 0
	for i, e := range c.entries {
		hits := 0
		for _, kw := range e.Keywords {
			kw = strings.ToLower(kw)
			for _, w := range words {
				if w == kw || strings.HasPrefix(w, kw) {
					hits++
					break
				}
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}
	if best < 0 {
		return Entry{}, false
	}
	return c.entries[best], true
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
}

// ApplyToGoal normalises the goal's domain to a canonical name and fills in
// icon and color when the goal does not override them.
func (c *Catalog) ApplyToGoal(g *domain.Goal) {
	e := c.Resolve(Query{Name: g.Domain, Icon: g.Icon, Title: g.Title, Description: g.Description})
	g.Domain = e.Name
	if g.Icon == "" {
		g.Icon = e.Icon
	}
	if g.Color == "" {
		g.Color = e.Color
	}
}

// ReapplyToGoal runs ApplyToGoal on an edited goal. Icon and color that still
// equal the previous domain's defaults were never overridden, so they follow
// the new domain.
func (c *Catalog) ReapplyToGoal(g *domain.Goal, previousDomain string) {
	if prev, ok := c.Lookup(previousDomain); ok {
		if g.Icon == prev.Icon {
			g.Icon = ""
		}
		if g.Color == prev.Color {
			g.Color = ""
		}
	}
	c.ApplyToGoal(g)
}

// Summaries rolls goals up per domain in catalog order. Domains without goals
// are omitted.
func (c *Catalog) Summaries(goals []domain.Goal) []domain.DomainSummary {
	type counts struct{ total, done int }
	tally := make(map[string]*counts)
	for _, g := range goals {
		name := c.Resolve(Query{Name: g.Domain}).Name
		if g.Domain == "" {
			name = c.other.Name
		}
		ct, ok := tally[name]
		if !ok {
			ct = &counts{}
			tally[name] = ct
		}
		ct.total++
		if g.Completed {
			ct.done++
		}
	}
	var out []domain.DomainSummary
	for _, e := range c.entries {
		ct, ok := tally[e.Name]
		if !ok {
			continue
		}
		out = append(out, domain.DomainSummary{
			Name:               e.Name,
			Icon:               e.Icon,
			Color:              e.Color,
			GoalCount:          ct.total,
			CompletedGoalCount: ct.done,
		})
	}
	return out
}
