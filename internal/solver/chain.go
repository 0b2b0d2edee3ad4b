package solver

import (
	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/utils"
)

// prepareChain shapes the slots around a chain head assigned at the first
// period: the same-day midday is blocked, the evening takes the paired
// service, and for services that block the next day the following morning
// and midday are blocked for recovery when still inside the roster period.
func (r *run) prepareChain(head *models.Slot) {
	meta, _ := r.bench.Services.Get(head.AssignedService)
	ref := models.BlockRef{Date: head.Date, Period: head.Period, ServiceCode: meta.Code}
	r.result.Chains++

	if slot, ok := r.fillable(head.EmployeeID, head.Date, models.PeriodMidday); ok {
		slot.Block(ref, nil)
		r.result.Blocked++
		r.touch(slot)
	}

	if slot, ok := r.fillable(head.EmployeeID, head.Date, models.PeriodEvening); ok {
		r.assignPaired(slot, meta)
	}

	if !meta.BlocksNextDay {
		return
	}
	next := utils.NextDay(head.Date)
	if next > r.bench.Roster.PeriodEnd {
		return
	}
	for _, period := range []models.Period{models.PeriodMorning, models.PeriodMidday} {
		if slot, ok := r.fillable(head.EmployeeID, next, period); ok {
			slot.Block(ref, models.ChainRecovery{Service: meta.Code})
			r.result.Blocked++
			r.touch(slot)
		}
	}
}

// assignPaired gives the evening slot the chain's paired service. The pair
// is part of the chain structure, so it is placed even when the employee
// has no remaining entitlement for it; capacity and a matching task are
// charged when they exist.
func (r *run) assignPaired(slot *models.Slot, meta models.ServiceMetadata) {
	if meta.PairedService == "" {
		r.lg.Warn("chain service has no paired service", "service", meta.Code, "slot", slot.ID)
		return
	}

	if row, ok := r.bench.Capacities.Get(slot.EmployeeID, meta.PairedService); ok && row.CanTake() {
		mustConsume(row.Consume())
	}
	slot.Assign(meta.PairedService)
	r.touch(slot)
	r.result.Paired++

	if task := r.bench.Tasks.Covering(slot.Date, slot.Period, meta.PairedService, slot.Team); task != nil {
		r.consumeTask(task)
	}
}
