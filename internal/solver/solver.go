// Package solver assigns employees to open slots to satisfy staffing
// tasks, and prepares the dependent slots of chain services.
package solver

import (
	"fmt"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/rosterfill/internal/constants"
	"github.com/julianstephens/rosterfill/internal/logger"
	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/utils"
	"github.com/julianstephens/rosterfill/internal/workbench"
)

type Options struct {
	// FairnessWindowDays is the trailing window, including the task date,
	// over which recent assignments count against a candidate.
	FairnessWindowDays int
}

func DefaultOptions() Options {
	return Options{FairnessWindowDays: constants.DefaultFairnessWindowDays}
}

// OpenUnit is a task left (partly) unstaffed.
type OpenUnit struct {
	TaskID  string
	Date    string
	Period  models.Period
	Team    models.Team
	Service string
	Missing int
}

type Result struct {
	// Touched lists every slot the solver mutated, in mutation order.
	Touched   []*models.Slot
	Assigned  int // units committed to tasks
	Open      int // units left unstaffed
	OpenUnits []OpenUnit
	Chains    int // chain heads prepared
	Paired    int // paired evening assignments
	Blocked   int
}

type Solver struct {
	opts Options
	// onCommit observes every task unit committed; nil outside tests.
	onCommit func(*models.Task)
}

func New(opts Options) *Solver {
	if opts.FairnessWindowDays <= 0 {
		opts.FairnessWindowDays = constants.DefaultFairnessWindowDays
	}
	return &Solver{opts: opts}
}

type run struct {
	bench    *workbench.Bench
	opts     Options
	result   Result
	touched  map[string]bool
	lg       *log.Logger
	onCommit func(*models.Task)
}

// Solve staffs every task in deterministic order, mutating the bench's
// slots, capacities and tasks in place.
func (s *Solver) Solve(bench *workbench.Bench) Result {
	r := &run{
		bench:    bench,
		opts:     s.opts,
		touched:  make(map[string]bool),
		lg:       logger.With("roster", bench.Roster.ID, "phase", "solve"),
		onCommit: s.onCommit,
	}

	for _, task := range bench.Tasks.Ordered() {
		r.staff(task)
	}

	r.lg.Info("solved",
		"assigned", r.result.Assigned,
		"open", r.result.Open,
		"chains", r.result.Chains,
		"touched", len(r.result.Touched),
	)
	return r.result
}

func (r *run) staff(task *models.Task) {
	for task.RemainingCount > 0 {
		c, ok := r.best(task)
		if !ok {
			r.result.Open += task.RemainingCount
			r.result.OpenUnits = append(r.result.OpenUnits, OpenUnit{
				TaskID:  task.ID,
				Date:    task.Date,
				Period:  task.Period,
				Team:    task.Team,
				Service: task.ServiceCode,
				Missing: task.RemainingCount,
			})
			r.lg.Debug("no candidate", "task", task.String(), "missing", task.RemainingCount)
			return
		}

		r.commit(c.slot, c.capacity, task.ServiceCode)
		r.consumeTask(task)

		if task.Period == models.FirstPeriod && r.bench.Services.IsChain(task.ServiceCode) {
			r.prepareChain(c.slot)
		}
	}
}

func (r *run) commit(slot *models.Slot, capacity *models.Capacity, service string) {
	mustConsume(capacity.Consume())
	slot.Assign(service)
	r.touch(slot)
}

func (r *run) consumeTask(task *models.Task) {
	mustConsume(task.Consume())
	r.result.Assigned++
	if r.onCommit != nil {
		r.onCommit(task)
	}
}

func (r *run) touch(slot *models.Slot) {
	if r.touched[slot.ID] {
		return
	}
	r.touched[slot.ID] = true
	r.result.Touched = append(r.result.Touched, slot)
}

// mustConsume panics on an invariant violation; candidate selection only
// offers rows that can take a unit.
func mustConsume(err error) {
	if err != nil {
		panic(fmt.Sprintf("solver: %v", err))
	}
}

// fillable returns the first record at the key autofill may write to.
func (r *run) fillable(employeeID, date string, period models.Period) (*models.Slot, bool) {
	for _, slot := range r.bench.Slots.LookupAll(models.SlotKey{EmployeeID: employeeID, Date: date, Period: period}) {
		if slot.IsFillable() {
			return slot, true
		}
	}
	return nil, false
}

type candidate struct {
	slot     *models.Slot
	capacity *models.Capacity
	load     int
}

// best searches the task's team tiers in order and returns the winning
// candidate of the first tier that has any.
func (r *run) best(task *models.Task) (candidate, bool) {
	for _, tier := range models.SearchOrder(task.Team) {
		var pool []candidate
		for _, row := range r.bench.Capacities.ForService(task.ServiceCode) {
			if !slices.Contains(tier, row.Team) || !row.CanTake() {
				continue
			}
			slot, ok := r.fillable(row.EmployeeID, task.Date, task.Period)
			if !ok || r.bench.Slots.UnavailableAt(row.EmployeeID, task.Date, task.Period) {
				continue
			}
			pool = append(pool, candidate{
				slot:     slot,
				capacity: row,
				load:     r.fairnessLoad(row.EmployeeID, task.Date),
			})
		}
		if len(pool) == 0 {
			continue
		}
		sort.SliceStable(pool, func(i, j int) bool {
			a, b := pool[i], pool[j]
			if a.capacity.AvailableCount != b.capacity.AvailableCount {
				return a.capacity.AvailableCount > b.capacity.AvailableCount
			}
			if a.load != b.load {
				return a.load < b.load
			}
			return a.capacity.EmployeeID < b.capacity.EmployeeID
		})
		return pool[0], true
	}
	return candidate{}, false
}

// fairnessLoad counts the employee's assignments in the trailing window
// ending on date. Fewer recent assignments rank higher.
func (r *run) fairnessLoad(employeeID, date string) int {
	from := utils.AddDays(date, -(r.opts.FairnessWindowDays - 1))
	return r.bench.Slots.CountAssigned(employeeID, from, date)
}
