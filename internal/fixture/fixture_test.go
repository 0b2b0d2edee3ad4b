package fixture

import (
	"context"
	"strings"
	"testing"

	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/storage/memory"
)

func TestReadFileSample(t *testing.T) {
	f, err := ReadFile("testdata/sample.yaml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	d, err := f.Expand()
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	if len(d.Employees) != 4 || !d.Employees[0].Active || d.Employees[3].Active {
		t.Errorf("unexpected employees: %+v", d.Employees)
	}
	if d.Requirements[0].ID != "march-2024-req-001" || d.Requirements[0].RosterID != "march-2024" {
		t.Errorf("requirement ids not generated: %+v", d.Requirements[0])
	}
	// 3 active employees x 3 days x 3 periods, explicit slots replace generated ones
	if len(d.Slots) != 27 {
		t.Errorf("expected 27 slots, got %d", len(d.Slots))
	}

	var manual models.Slot
	for _, s := range d.Slots {
		if s.ID == SlotID("sam", "2024-03-03", models.PeriodMidday) {
			manual = s
		}
	}
	if !manual.Protected || manual.Status != models.SlotAssigned {
		t.Errorf("manual slot should be protected and assigned: %+v", manual)
	}

	for _, c := range d.Capacities {
		if c.EmployeeID == "anne" && c.ServiceCode == "WARD" && c.Eligible {
			t.Error("explicit eligible: false was ignored")
		}
		if c.EmployeeID == "sam" && c.Team != models.TeamShared {
			t.Errorf("capacity team should default to the employee's, got %s", c.Team)
		}
	}
}

func TestParseReportsEveryProblem(t *testing.T) {
	_, err := Parse([]byte(`
roster: { id: r1, period_start: "2024-03-05", period_end: "2024-03-01" }
employees:
  - { id: anne, team: purple }
services:
  - { code: DIO, paired_service: NOPE }
requirements:
  - { date: "2024-3-1", period: night, team: green, service: XYZ, required_count: -1 }
slots:
  - { employee: ghost, date: "2024-03-01", period: morning, status: blocked }
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"period_end", "unknown team", "paired service", "invalid date",
		"unknown period", "unknown service", "negative", "unknown employee", "blocked_by",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %q:\n%v", want, err)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse([]byte("  \n")); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestApplyIsRepeatable(t *testing.T) {
	f, err := ReadFile("testdata/sample.yaml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	store := memory.New()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := f.Apply(ctx, store); err != nil {
			t.Fatalf("Apply #%d failed: %v", i+1, err)
		}
	}
	slots, err := store.GetSlots(ctx, "march-2024")
	if err != nil {
		t.Fatalf("GetSlots failed: %v", err)
	}
	if len(slots) != 27 {
		t.Errorf("expected 27 slots after two applies, got %d", len(slots))
	}
}
