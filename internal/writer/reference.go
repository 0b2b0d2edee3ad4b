package writer

import (
	"sort"

	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/storage"
)

// Tier records which fallback step resolved a requirement reference.
type Tier int

const (
	TierUnresolved Tier = iota
	TierExactTeam
	TierAggregateTeam
	TierAnyTeam
)

func (t Tier) String() string {
	switch t {
	case TierExactTeam:
		return "exact_team"
	case TierAggregateTeam:
		return "aggregate_team"
	case TierAnyTeam:
		return "any_team"
	}
	return "unresolved"
}

// Resolution is the outcome of resolving one assigned slot's reference.
type Resolution struct {
	SlotID        string
	RequirementID string
	Tier          Tier
}

func (r Resolution) Resolved() bool {
	return r.Tier != TierUnresolved
}

type refEntry struct {
	req       models.Requirement
	remaining int
}

// refLedger tracks how many more slots may reference each requirement.
// References held by slots in the touched set are not counted, so a rerun
// over the same slots sees the same remaining capacity.
type refLedger struct {
	entries []*refEntry
}

func newRefLedger(reqs []models.Requirement, held []storage.SlotReference, touched []string) *refLedger {
	skip := make(map[string]bool, len(touched))
	for _, id := range touched {
		skip[id] = true
	}
	used := make(map[string]int)
	for _, h := range held {
		if !skip[h.SlotID] {
			used[h.RequirementID]++
		}
	}

	l := &refLedger{}
	for _, r := range reqs {
		l.entries = append(l.entries, &refEntry{req: r, remaining: r.RequiredCount - used[r.ID]})
	}
	sort.SliceStable(l.entries, func(i, j int) bool { return l.entries[i].req.ID < l.entries[j].req.ID })
	return l
}

func (l *refLedger) candidates(s *models.Slot) []*refEntry {
	var out []*refEntry
	for _, e := range l.entries {
		if e.remaining > 0 && e.req.Date == s.Date && e.req.Period == s.Period && e.req.ServiceCode == s.AssignedService {
			out = append(out, e)
		}
	}
	return out
}

// resolve tries the slot's own team, then an aggregate team, then any team
// with the most remaining capacity. A hit consumes one unit.
func (l *refLedger) resolve(s *models.Slot) Resolution {
	cands := l.candidates(s)
	take := func(e *refEntry, tier Tier) Resolution {
		e.remaining--
		return Resolution{SlotID: s.ID, RequirementID: e.req.ID, Tier: tier}
	}

	for _, e := range cands {
		if e.req.Team == s.Team {
			return take(e, TierExactTeam)
		}
	}
	for _, e := range cands {
		if e.req.Team.IsAggregate() {
			return take(e, TierAggregateTeam)
		}
	}
	if len(cands) > 0 {
		best := cands[0]
		for _, e := range cands[1:] {
			if e.remaining > best.remaining {
				best = e
			}
		}
		return take(best, TierAnyTeam)
	}
	return Resolution{SlotID: s.ID, Tier: TierUnresolved}
}
