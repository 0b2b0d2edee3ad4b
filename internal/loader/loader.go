// Package loader reads a roster's requirements, slots, entitlements and the
// service catalogue into a workbench.
package loader

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/rosterfill/internal/logger"
	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/storage"
	"github.com/julianstephens/rosterfill/internal/workbench"
)

// Stats describes the adjustments made while loading.
type Stats struct {
	SkippedZero        int // requirements with required_count <= 0
	SkippedOutOfPeriod int
	ProtectedConsumed  int // capacity units consumed by protected assignments
	PriorConsumed      int // capacity units consumed by earlier autofill runs
	Clamped            int // persisted assignments beyond the entitlement
	PreSatisfied       int // task units covered by persisted assignments
}

// Load builds the workbench for rosterID.
func Load(ctx context.Context, r storage.Reader, rosterID string) (*workbench.Bench, Stats, error) {
	var stats Stats
	lg := logger.With("roster", rosterID, "phase", "load")

	roster, err := r.GetRoster(ctx, rosterID)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load roster: %w", err)
	}
	reqs, err := r.GetRequirements(ctx, rosterID)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load requirements: %w", err)
	}
	slotRows, err := r.GetSlots(ctx, rosterID)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load slots: %w", err)
	}
	capRows, err := r.GetCapacities(ctx, rosterID)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load capacities: %w", err)
	}
	services, err := r.GetServices(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load services: %w", err)
	}

	var tasks []*models.Task
	for _, req := range reqs {
		if req.RequiredCount <= 0 {
			stats.SkippedZero++
			continue
		}
		if !roster.Contains(req.Date) {
			lg.Debug("skipping requirement outside roster period", "requirement", req.ID, "date", req.Date)
			stats.SkippedOutOfPeriod++
			continue
		}
		tasks = append(tasks, models.NewTask(req))
	}

	slots := make([]*models.Slot, len(slotRows))
	for i := range slotRows {
		slots[i] = &slotRows[i]
	}
	caps := make([]*models.Capacity, len(capRows))
	for i := range capRows {
		caps[i] = &capRows[i]
	}

	if err := checkCollections(rosterID, len(tasks), len(slots), len(caps), len(services)); err != nil {
		return nil, stats, err
	}

	bench := workbench.New(roster, tasks, slots, caps, services)
	applyAssigned(bench, &stats, lg)

	lg.Info("loaded",
		"tasks", bench.Tasks.Len(),
		"slots", bench.Slots.Len(),
		"capacities", bench.Capacities.Len(),
		"services", bench.Services.Len(),
		"protected_consumed", stats.ProtectedConsumed,
		"prior_consumed", stats.PriorConsumed,
	)
	return bench, stats, nil
}

func checkCollections(rosterID string, tasks, slots, caps, services int) error {
	var missing []string
	for _, c := range []struct {
		name string
		n    int
	}{
		{CollectionTasks, tasks},
		{CollectionSlots, slots},
		{CollectionCapacities, caps},
		{CollectionServices, services},
	} {
		if c.n == 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	kind := KindMissingCollection
	if missing[0] == CollectionTasks {
		kind = KindNoTasksFound
	}
	return &LoadError{Kind: kind, RosterID: rosterID, Missing: missing}
}

// applyAssigned charges every persisted assignment against capacity and the
// task it covers, so the solver only plans what is still missing. Protected
// slots go first and win any contested entitlement; slots an earlier run
// filled stay unprotected so a rerun can rewrite them.
func applyAssigned(bench *workbench.Bench, stats *Stats, lg *log.Logger) {
	for _, protected := range []bool{true, false} {
		for _, slot := range bench.Slots.All() {
			if slot.Status != models.SlotAssigned || slot.Protected != protected {
				continue
			}
			if charge(bench, slot, stats, lg) {
				if protected {
					stats.ProtectedConsumed++
				} else {
					stats.PriorConsumed++
				}
			}
		}
	}
}

// charge reports whether a capacity unit was consumed.
func charge(bench *workbench.Bench, slot *models.Slot, stats *Stats, lg *log.Logger) bool {
	consumed := false
	if row, ok := bench.Capacities.Get(slot.EmployeeID, slot.AssignedService); ok {
		if row.AvailableCount > 0 {
			row.AvailableCount--
			consumed = true
		} else {
			lg.Warn("assignment exceeds entitlement, clamping at zero",
				"employee", slot.EmployeeID, "service", slot.AssignedService, "slot", slot.ID)
			stats.Clamped++
		}
	} else {
		lg.Debug("assignment without capacity row", "employee", slot.EmployeeID, "service", slot.AssignedService)
	}

	if task := bench.Tasks.Covering(slot.Date, slot.Period, slot.AssignedService, slot.Team); task != nil {
		// remaining > 0 is guaranteed by FindOpen
		_ = task.Consume()
		stats.PreSatisfied++
	}
	return consumed
}
