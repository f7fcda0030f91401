package core

import (
	"sync"
	"time"
)

// DefaultSettleDelay is how long an entity stays guarded after its mutation
// finished persisting.
const DefaultSettleDelay = 300 * time.Millisecond

// inflightGuard rejects a second mutation of an entity while the first is
// still running or settling. Keys are "entity:id".
type inflightGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
	delay  time.Duration
}

func newInflightGuard(delay time.Duration) *inflightGuard {
	return &inflightGuard{active: make(map[string]struct{}), delay: delay}
}

func inflightKey(entity EntityType, id string) string {
	return string(entity) + ":" + id
}

// acquire marks key in flight and reports false when it already was.
func (g *inflightGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

// release frees key once the settle delay has passed.
func (g *inflightGuard) release(key string) {
	if g.delay <= 0 {
		g.clear(key)
		return
	}
	time.AfterFunc(g.delay, func() { g.clear(key) })
}

func (g *inflightGuard) clear(key string) {
	g.mu.Lock()
	delete(g.active, key)
	g.mu.Unlock()
}

func (g *inflightGuard) busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[key]
	return ok
}
