package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/storage"
	"github.com/julianstephens/rosterfill/internal/storage/memory"
)

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	mustNoErr(t, s.UpsertRoster(ctx, models.Roster{ID: "r1", PeriodStart: "2024-03-01", PeriodEnd: "2024-03-07"}))
	mustNoErr(t, s.UpsertEmployees(ctx, []models.Employee{
		{ID: "anne", Team: models.TeamGreen, Active: true},
		{ID: "sam", Team: models.TeamShared, Active: true},
	}))
	mustNoErr(t, s.UpsertServices(ctx, []models.ServiceMetadata{{Code: "DIO", IsSystemChain: true}}))
	mustNoErr(t, s.UpsertRequirements(ctx, []models.Requirement{
		{ID: "req1", RosterID: "r1", Date: "2024-03-01", Period: models.PeriodMorning, Team: models.TeamGreen, ServiceCode: "DIO", RequiredCount: 2},
		{ID: "req0", RosterID: "r1", Date: "2024-03-02", Period: models.PeriodMorning, Team: models.TeamGreen, ServiceCode: "DIO", RequiredCount: 0},
		{ID: "reqX", RosterID: "r1", Date: "2024-04-01", Period: models.PeriodMorning, Team: models.TeamGreen, ServiceCode: "DIO", RequiredCount: 1},
	}))
	mustNoErr(t, s.UpsertCapacities(ctx, []models.Capacity{
		{RosterID: "r1", EmployeeID: "anne", ServiceCode: "DIO", Team: models.TeamGreen, TotalCount: 5, Eligible: true},
		{RosterID: "r1", EmployeeID: "sam", ServiceCode: "DIO", Team: models.TeamShared, TotalCount: 1, Eligible: true},
	}))
	mustNoErr(t, s.UpsertSlots(ctx, []models.Slot{
		{ID: "a1", RosterID: "r1", EmployeeID: "anne", Date: "2024-03-01", Period: models.PeriodMorning},
		{ID: "s1", RosterID: "r1", EmployeeID: "sam", Date: "2024-03-01", Period: models.PeriodMorning,
			Status: models.SlotAssigned, AssignedService: "DIO", Source: models.SourcePrePlanning},
		{ID: "s2", RosterID: "r1", EmployeeID: "sam", Date: "2024-03-02", Period: models.PeriodMorning,
			Status: models.SlotAssigned, AssignedService: "DIO", Source: models.SourceManual},
	}))
	return s
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad(t *testing.T) {
	bench, stats, err := Load(context.Background(), newStore(t), "r1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if bench.Tasks.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", bench.Tasks.Len())
	}
	if stats.SkippedZero != 1 || stats.SkippedOutOfPeriod != 1 {
		t.Errorf("unexpected skip counts: %+v", stats)
	}
	if bench.Slots.Len() != 3 {
		t.Errorf("all slots must load regardless of status, got %d", bench.Slots.Len())
	}

	// sam's first protected assignment consumes the only unit; the second clamps
	sam, _ := bench.Capacities.Get("sam", "DIO")
	if sam.AvailableCount != 0 {
		t.Errorf("expected sam available 0, got %d", sam.AvailableCount)
	}
	if stats.ProtectedConsumed != 1 || stats.Clamped != 1 {
		t.Errorf("unexpected protected stats: %+v", stats)
	}
	anne, _ := bench.Capacities.Get("anne", "DIO")
	if anne.AvailableCount != 5 {
		t.Errorf("anne untouched, expected 5 got %d", anne.AvailableCount)
	}

	// the shared employee's pre-planning covers one unit of the green task
	task := bench.Tasks.All()[0]
	if task.RemainingCount != 1 || task.RequiredCount != 2 {
		t.Errorf("expected 1 of 2 remaining, got %d of %d", task.RemainingCount, task.RequiredCount)
	}
	if stats.PreSatisfied != 1 {
		t.Errorf("expected 1 pre-satisfied unit, got %d", stats.PreSatisfied)
	}
}

// Scenario E: no requirement rows aborts with NoTasksFound.
func TestLoadNoTasksFound(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	mustNoErr(t, s.UpsertRoster(ctx, models.Roster{ID: "r1", PeriodStart: "2024-03-01", PeriodEnd: "2024-03-07"}))
	mustNoErr(t, s.UpsertServices(ctx, []models.ServiceMetadata{{Code: "DIO"}}))

	_, _, err := Load(ctx, s, "r1")
	if !errors.Is(err, ErrNoTasksFound) {
		t.Fatalf("expected ErrNoTasksFound, got %v", err)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %T", err)
	}
	want := []string{CollectionTasks, CollectionSlots, CollectionCapacities}
	if len(le.Missing) != len(want) {
		t.Fatalf("expected every missing collection %v, got %v", want, le.Missing)
	}
	for i := range want {
		if le.Missing[i] != want[i] {
			t.Errorf("missing[%d] = %s, want %s", i, le.Missing[i], want[i])
		}
	}
}

func TestLoadMissingCollections(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	mustNoErr(t, s.UpsertRoster(ctx, models.Roster{ID: "r1", PeriodStart: "2024-03-01", PeriodEnd: "2024-03-07"}))
	mustNoErr(t, s.UpsertRequirements(ctx, []models.Requirement{
		{ID: "req1", RosterID: "r1", Date: "2024-03-01", Period: models.PeriodMorning, Team: models.TeamGreen, ServiceCode: "DIO", RequiredCount: 1},
	}))

	_, _, err := Load(ctx, s, "r1")
	if !errors.Is(err, ErrMissingCollection) {
		t.Fatalf("expected ErrMissingCollection, got %v", err)
	}
	if errors.Is(err, ErrNoTasksFound) {
		t.Error("tasks were present; must not match ErrNoTasksFound")
	}
	var le *LoadError
	errors.As(err, &le)
	if len(le.Missing) != 3 {
		t.Errorf("expected slots, capacities and services missing, got %v", le.Missing)
	}
}

func TestLoadUnknownRoster(t *testing.T) {
	_, _, err := Load(context.Background(), memory.New(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected wrapped ErrNotFound, got %v", err)
	}
}

func TestLoadChargesEarlierRuns(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	mustNoErr(t, s.UpsertSlots(ctx, []models.Slot{
		{ID: "a1", RosterID: "r1", EmployeeID: "anne", Date: "2024-03-01", Period: models.PeriodMorning,
			Status: models.SlotAssigned, AssignedService: "DIO", Source: models.SourceAutofill},
	}))

	bench, stats, err := Load(ctx, s, "r1")
	mustNoErr(t, err)

	task := bench.Tasks.All()[0]
	if task.RemainingCount != 0 {
		t.Errorf("earlier assignment must count toward the task, remaining %d", task.RemainingCount)
	}
	if stats.PriorConsumed != 1 || stats.PreSatisfied != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	anne, _ := bench.Capacities.Get("anne", "DIO")
	if anne.AvailableCount != 4 {
		t.Errorf("expected anne available 4, got %d", anne.AvailableCount)
	}
	a1, _ := bench.Slots.At("anne", "2024-03-01", models.PeriodMorning)
	if a1.Protected {
		t.Error("autofill slots must stay rewritable")
	}
}
