package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Gate serialises runs per roster. Callers arriving while a run for the
// same roster and options is in flight wait for it and share its Result.
// A dry run never joins a writing run, nor the other way round.
type Gate struct {
	group singleflight.Group

	mu      sync.Mutex
	waiting map[string]int
}

func NewGate() *Gate {
	return &Gate{waiting: make(map[string]int)}
}

// Run executes or joins the run for rosterID. shared reports whether the
// Result was produced for another caller as well.
func (g *Gate) Run(ctx context.Context, deps Deps, rosterID string, opts Options) (res Result, shared bool) {
	g.enter(rosterID)
	defer g.leave(rosterID)

	v, _, shared := g.group.Do(flightKey(rosterID, opts), func() (interface{}, error) {
		return Run(ctx, deps, rosterID, opts), nil
	})
	return v.(Result), shared
}

func flightKey(rosterID string, opts Options) string {
	if opts.DryRun {
		return rosterID + "\x00dry-run"
	}
	return rosterID
}

// InFlight is the number of callers currently inside Run for rosterID.
func (g *Gate) InFlight(rosterID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiting[rosterID]
}

func (g *Gate) enter(rosterID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.waiting == nil {
		g.waiting = make(map[string]int)
	}
	g.waiting[rosterID]++
}

func (g *Gate) leave(rosterID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.waiting[rosterID]--
	if g.waiting[rosterID] <= 0 {
		delete(g.waiting, rosterID)
	}
}
