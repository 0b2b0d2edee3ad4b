package validation

import (
	"strings"
	"testing"

	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/solver"
	"github.com/julianstephens/rosterfill/internal/workbench"
)

var catalog = workbench.NewCatalog([]models.ServiceMetadata{
	{Code: "DIO", IsSystemChain: true, BlocksNextDay: true, PairedService: "DIO-E"},
	{Code: "DIO-E"},
	{Code: "SUP", IsSystemChain: true, PairedService: "SUP-E"},
	{Code: "SUP-E"},
	{Code: "WARD"},
})

func slot(id, emp, date string, p models.Period, status models.SlotStatus) *models.Slot {
	return &models.Slot{ID: id, RosterID: "r1", EmployeeID: emp, Team: models.TeamGreen, Date: date, Period: p, Status: status}
}

func assigned(id, emp, date string, p models.Period, service string) *models.Slot {
	s := slot(id, emp, date, p, models.SlotAssigned)
	s.AssignedService = service
	return s
}

func blocked(id, emp, date string, p models.Period, by models.BlockRef) *models.Slot {
	s := slot(id, emp, date, p, models.SlotBlocked)
	s.BlockedBy = &by
	return s
}

var dioDay1 = models.BlockRef{Date: "2024-03-01", Period: models.PeriodMorning, ServiceCode: "DIO"}

// completeChain returns the five slots of a valid DIO chain on 2024-03-01.
func completeChain(emp string) []*models.Slot {
	return []*models.Slot{
		assigned(emp+"-h", emp, "2024-03-01", models.PeriodMorning, "DIO"),
		blocked(emp+"-b1", emp, "2024-03-01", models.PeriodMidday, dioDay1),
		assigned(emp+"-p", emp, "2024-03-01", models.PeriodEvening, "DIO-E"),
		blocked(emp+"-b2", emp, "2024-03-02", models.PeriodMorning, dioDay1),
		blocked(emp+"-b3", emp, "2024-03-02", models.PeriodMidday, dioDay1),
	}
}

func without(slots []*models.Slot, id string) []*models.Slot {
	var out []*models.Slot
	for _, s := range slots {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

func validate(slots []*models.Slot, start, end string) Result {
	return New().ValidateChains(workbench.NewSlots(slots), catalog, start, end)
}

func kinds(errs []ValidationError) []ErrorKind {
	out := make([]ErrorKind, len(errs))
	for i, e := range errs {
		out[i] = e.Kind
	}
	return out
}

func TestValidChain(t *testing.T) {
	res := validate(completeChain("anne"), "2024-03-01", "2024-03-05")

	if len(res.Chains) != 1 {
		t.Fatalf("expected 1 chain, got %d", len(res.Chains))
	}
	ch := res.Chains[0]
	if !ch.Valid {
		t.Errorf("expected valid chain, errors: %v", res.Errors)
	}
	if ch.SameDayBlock == nil || ch.SameDayPair == nil || ch.NextDayBlockA == nil || ch.NextDayBlockB == nil {
		t.Errorf("expected all positions reconstructed, got %+v", ch)
	}
	if res.HasErrors() {
		t.Error("HasErrors() = true for a valid chain")
	}
	if !strings.Contains(res.FormatReport(), "No chain violations") {
		t.Errorf("unexpected report: %s", res.FormatReport())
	}
}

func TestScenarioBMissingMidday(t *testing.T) {
	res := validate(without(completeChain("anne"), "anne-b1"), "2024-03-01", "2024-03-05")

	errs := res.ErrorsFor("anne-h")
	if len(errs) != 1 || errs[0].Kind != KindMissingBlock {
		t.Fatalf("expected one MissingBlock error, got %v", kinds(errs))
	}
	if res.Chains[0].Valid {
		t.Error("chain with a missing block reported valid")
	}
	if res.Chains[0].SameDayBlock != nil {
		t.Error("missing position should be nil")
	}
}

func TestPerInvariantErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]*models.Slot) []*models.Slot
		want   []ErrorKind
	}{
		{
			name:   "missing pair",
			mutate: func(s []*models.Slot) []*models.Slot { return without(s, "anne-p") },
			want:   []ErrorKind{KindMissingPair},
		},
		{
			name: "wrong paired service",
			mutate: func(s []*models.Slot) []*models.Slot {
				s[2].AssignedService = "WARD"
				return s
			},
			want: []ErrorKind{KindMissingPair},
		},
		{
			name: "open pair",
			mutate: func(s []*models.Slot) []*models.Slot {
				s[2].Status = models.SlotOpen
				s[2].AssignedService = ""
				return s
			},
			want: []ErrorKind{KindWrongStatus},
		},
		{
			name: "open recovery slot",
			mutate: func(s []*models.Slot) []*models.Slot {
				s[3].Status = models.SlotOpen
				s[3].BlockedBy = nil
				return s
			},
			want: []ErrorKind{KindWrongStatus},
		},
		{
			name: "block referencing another head",
			mutate: func(s []*models.Slot) []*models.Slot {
				s[4].BlockedBy = &models.BlockRef{Date: "2024-02-28", Period: models.PeriodMorning, ServiceCode: "DIO"}
				return s
			},
			want: []ErrorKind{KindInconsistentBlocking},
		},
		{
			name: "several violations on one anchor",
			mutate: func(s []*models.Slot) []*models.Slot {
				return without(without(s, "anne-b1"), "anne-b3")
			},
			want: []ErrorKind{KindMissingBlock, KindMissingBlock},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validate(tt.mutate(completeChain("anne")), "2024-03-01", "2024-03-05")
			got := kinds(res.ErrorsFor("anne-h"))
			if strings.Join(kindStrings(got), ",") != strings.Join(kindStrings(tt.want), ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if res.Chains[0].Valid {
				t.Error("chain reported valid")
			}
		})
	}
}

func kindStrings(ks []ErrorKind) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	return out
}

func TestInconsistentBlockingIsWarning(t *testing.T) {
	s := completeChain("anne")
	s[1].BlockedBy = nil
	res := validate(s, "2024-03-01", "2024-03-05")

	if res.HasErrors() {
		t.Error("a warning alone should not count as an error")
	}
	if res.Chains[0].Valid {
		t.Error("a chain with an associated warning is not valid")
	}
}

func TestOverlappingBlocks(t *testing.T) {
	// A second chain on day 2 claims the midday that day 1 recovery blocks.
	ref2 := models.BlockRef{Date: "2024-03-02", Period: models.PeriodMorning, ServiceCode: "SUP"}
	slots := []*models.Slot{
		assigned("h1", "anne", "2024-03-01", models.PeriodMorning, "DIO"),
		blocked("b1", "anne", "2024-03-01", models.PeriodMidday, dioDay1),
		assigned("p1", "anne", "2024-03-01", models.PeriodEvening, "DIO-E"),
		assigned("h2", "anne", "2024-03-02", models.PeriodMorning, "SUP"),
		blocked("b2", "anne", "2024-03-02", models.PeriodMidday, ref2),
		assigned("p2", "anne", "2024-03-02", models.PeriodEvening, "SUP-E"),
	}
	res := validate(slots, "2024-03-01", "2024-03-05")

	counts := res.CountByKind()
	if counts[KindOverlappingBlocks] != 1 {
		t.Fatalf("expected 1 OverlappingBlocks error, got %v", counts)
	}
	for _, e := range res.Errors {
		if e.Kind != KindOverlappingBlocks {
			continue
		}
		if len(e.AnchorIDs) != 2 || e.AnchorIDs[0] != "h1" || e.AnchorIDs[1] != "h2" {
			t.Errorf("overlap should name both chains, got %v", e.AnchorIDs)
		}
	}
	for _, ch := range res.Chains {
		if ch.Valid {
			t.Errorf("chain %s should be invalid", ch.Anchor.ID)
		}
	}
}

func TestDuplicatePair(t *testing.T) {
	s := completeChain("anne")
	s = append(s, assigned("anne-p2", "anne", "2024-03-01", models.PeriodEvening, "DIO-E"))
	res := validate(s, "2024-03-01", "2024-03-05")

	if res.CountByKind()[KindDuplicatePair] != 1 {
		t.Errorf("expected DuplicatePair, got %v", kinds(res.Errors))
	}

	// Two heads on the same key both claim the same evening.
	dup := completeChain("bob")
	dup = append(dup, assigned("bob-h2", "bob", "2024-03-01", models.PeriodMorning, "DIO"))
	res = validate(dup, "2024-03-01", "2024-03-05")
	counts := res.CountByKind()
	if counts[KindDuplicatePair] != 1 || counts[KindOverlappingBlocks] != 3 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestPeriodBoundary(t *testing.T) {
	t.Run("anchor after period end", func(t *testing.T) {
		res := validate(completeChain("anne"), "2024-02-01", "2024-02-29")
		errs := res.ErrorsFor("anne-h")
		if len(errs) != 1 || errs[0].Kind != KindPeriodBoundary {
			t.Errorf("expected PeriodBoundary only, got %v", kinds(errs))
		}
	})

	t.Run("recovery leaking past the end", func(t *testing.T) {
		res := validate(completeChain("anne"), "2024-03-01", "2024-03-01")
		counts := res.CountByKind()
		if counts[KindPeriodBoundary] != 2 {
			t.Errorf("expected two PeriodBoundary errors, got %v", counts)
		}
		if res.Chains[0].NextDayBlockA != nil {
			t.Error("next-day positions are not part of a chain at the period end")
		}
	})

	t.Run("no recovery at the end is valid", func(t *testing.T) {
		s := without(without(completeChain("anne"), "anne-b2"), "anne-b3")
		res := validate(s, "2024-03-01", "2024-03-01")
		if !res.Chains[0].Valid {
			t.Errorf("expected valid chain, got %v", kinds(res.Errors))
		}
	})
}

func TestNonRecoveryChainSkipsNextDay(t *testing.T) {
	ref := models.BlockRef{Date: "2024-03-01", Period: models.PeriodMorning, ServiceCode: "SUP"}
	res := validate([]*models.Slot{
		assigned("h", "anne", "2024-03-01", models.PeriodMorning, "SUP"),
		blocked("b", "anne", "2024-03-01", models.PeriodMidday, ref),
		assigned("p", "anne", "2024-03-01", models.PeriodEvening, "SUP-E"),
	}, "2024-03-01", "2024-03-05")

	if !res.Chains[0].Valid {
		t.Errorf("expected valid chain, got %v", kinds(res.Errors))
	}
}

func TestNonRecoveryChainMustNotBlockNextDay(t *testing.T) {
	ref := models.BlockRef{Date: "2024-03-01", Period: models.PeriodMorning, ServiceCode: "SUP"}
	chain := func() []*models.Slot {
		return []*models.Slot{
			assigned("h", "anne", "2024-03-01", models.PeriodMorning, "SUP"),
			blocked("b", "anne", "2024-03-01", models.PeriodMidday, ref),
			assigned("p", "anne", "2024-03-01", models.PeriodEvening, "SUP-E"),
			blocked("n", "anne", "2024-03-02", models.PeriodMorning, ref),
		}
	}

	t.Run("inside the period", func(t *testing.T) {
		res := validate(chain(), "2024-03-01", "2024-03-05")
		if got := res.CountByKind()[KindInconsistentBlocking]; got != 1 {
			t.Fatalf("expected 1 inconsistent blocking warning, got %v", kinds(res.Errors))
		}
		if res.HasErrors() {
			t.Error("a stray block inside the period is a warning")
		}
		if res.Chains[0].Valid {
			t.Error("chain with a stray next-day block must not be valid")
		}
	})

	t.Run("past the period end", func(t *testing.T) {
		res := validate(chain(), "2024-03-01", "2024-03-01")
		if got := res.CountByKind()[KindPeriodBoundary]; got != 1 {
			t.Fatalf("expected 1 period boundary error, got %v", kinds(res.Errors))
		}
	})
}

func TestNonAnchorsIgnored(t *testing.T) {
	res := validate([]*models.Slot{
		assigned("w", "anne", "2024-03-01", models.PeriodMorning, "WARD"),
		assigned("m", "anne", "2024-03-02", models.PeriodMidday, "DIO"),
		slot("o", "anne", "2024-03-03", models.PeriodMorning, models.SlotOpen),
	}, "2024-03-01", "2024-03-05")

	if len(res.Chains) != 0 || len(res.Errors) != 0 {
		t.Errorf("expected nothing, got %d chains, %v", len(res.Chains), kinds(res.Errors))
	}
}

func TestValidatorDoesNotMutate(t *testing.T) {
	s := without(completeChain("anne"), "anne-b1")
	before := make([]models.Slot, len(s))
	for i, x := range s {
		before[i] = *x
	}
	validate(s, "2024-03-01", "2024-03-05")
	for i, x := range s {
		if x.Status != before[i].Status || x.AssignedService != before[i].AssignedService || x.BlockedBy != before[i].BlockedBy {
			t.Errorf("slot %s changed", x.ID)
		}
	}
}

func TestFormatReportListsViolations(t *testing.T) {
	res := validate(without(completeChain("anne"), "anne-b1"), "2024-03-01", "2024-03-05")
	report := res.FormatReport()
	if !strings.Contains(report, "0 of 1 chains valid") {
		t.Errorf("missing summary line: %s", report)
	}
	if !strings.Contains(report, "missing_block") || !strings.Contains(report, "anne-h") {
		t.Errorf("missing violation detail: %s", report)
	}
}

// Solver output over a multi-day roster always yields complete chains
// with no block claimed twice.
func TestSolvedRosterChainsComplete(t *testing.T) {
	var slots []*models.Slot
	var caps []*models.Capacity
	var tasks []*models.Task
	dates := []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"}
	for _, emp := range []string{"anne", "bob", "cara"} {
		for _, d := range dates {
			for _, p := range models.AllPeriods() {
				slots = append(slots, slot(emp+"-"+d+"-"+string(p), emp, d, p, models.SlotOpen))
			}
		}
		for _, svc := range []string{"DIO", "DIO-E"} {
			caps = append(caps, &models.Capacity{RosterID: "r1", EmployeeID: emp, ServiceCode: svc, Team: models.TeamGreen, TotalCount: 4, AvailableCount: 4, Eligible: true})
		}
	}
	for i, d := range dates {
		tasks = append(tasks, models.NewTask(models.Requirement{
			ID: "req-" + string(rune('a'+i)), RosterID: "r1", Date: d, Period: models.PeriodMorning,
			Team: models.TeamGreen, ServiceCode: "DIO", RequiredCount: 1,
		}))
	}
	roster := models.Roster{ID: "r1", PeriodStart: "2024-03-01", PeriodEnd: "2024-03-04"}
	bench := workbench.New(roster, tasks, slots, caps, []models.ServiceMetadata{
		{Code: "DIO", IsSystemChain: true, BlocksNextDay: true, PairedService: "DIO-E"},
		{Code: "DIO-E"},
	})

	solved := solver.New(solver.DefaultOptions()).Solve(bench)
	if solved.Chains != 4 {
		t.Fatalf("expected 4 chains, got %d", solved.Chains)
	}

	res := New().ValidateChains(bench.Slots, bench.Services, roster.PeriodStart, roster.PeriodEnd)
	if len(res.Chains) != 4 {
		t.Fatalf("expected 4 reconstructed chains, got %d", len(res.Chains))
	}
	for _, ch := range res.Chains {
		if !ch.Valid && len(res.ErrorsFor(ch.Anchor.ID)) == 0 {
			t.Errorf("invalid chain %s has no error", ch.Anchor.ID)
		}
	}
	if n := res.CountByKind()[KindOverlappingBlocks]; n != 0 {
		t.Errorf("expected no double blocking, got %d overlaps", n)
	}
	if res.ValidCount() != 4 {
		t.Errorf("expected every solved chain valid, got %s", res.FormatReport())
	}
}
