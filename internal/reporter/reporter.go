// Package reporter turns the final state of a run into coverage metrics.
// Every figure is a projection of the bench; nothing here mutates it.
package reporter

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/rosterfill/internal/constants"
	"github.com/julianstephens/rosterfill/internal/logger"
	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/utils"
	"github.com/julianstephens/rosterfill/internal/validation"
	"github.com/julianstephens/rosterfill/internal/workbench"
	"github.com/julianstephens/rosterfill/internal/writer"
)

// Rating grades overall coverage
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// Thresholds decide when a service is reported as a bottleneck. Both must
// be exceeded.
type Thresholds struct {
	MinRatio float64
	MinOpen  int
}

func DefaultThresholds() Thresholds {
	return Thresholds{MinRatio: constants.DefaultBottleneckMinRatio, MinOpen: constants.DefaultBottleneckMinOpen}
}

type PhaseTiming struct {
	Phase    string        `json:"phase"`
	Duration time.Duration `json:"duration_ns"`
}

// Input is everything a report is computed from. Validation and Write are
// optional.
type Input struct {
	RunID       string
	GeneratedAt time.Time
	Duration    time.Duration
	Bench       *workbench.Bench
	Timings     []PhaseTiming
	Validation  *validation.Result
	Write       *writer.Result
	Thresholds  Thresholds
}

type Summary struct {
	TotalRequired   int     `json:"total_required"`
	TotalPlanned    int     `json:"total_planned"`
	TotalOpen       int     `json:"total_open"`
	CoveragePercent float64 `json:"coverage_percent"`
	Rating          Rating  `json:"rating"`
	AssignedSlots   int     `json:"assigned_slots"`
	BlockedSlots    int     `json:"blocked_slots"`
	OpenSlots       int     `json:"open_slots"`
}

type ServiceStats struct {
	Service         string  `json:"service"`
	Required        int     `json:"required"`
	Planned         int     `json:"planned"`
	Open            int     `json:"open"`
	CoveragePercent float64 `json:"coverage_percent"`
	Bottleneck      bool    `json:"bottleneck"`
}

type TeamStats struct {
	Team            models.Team `json:"team"`
	Required        int         `json:"required"`
	Planned         int         `json:"planned"`
	Open            int         `json:"open"`
	CoveragePercent float64     `json:"coverage_percent"`
}

// EmployeeCapacity is one entitlement row after the run.
type EmployeeCapacity struct {
	EmployeeID string      `json:"employee_id"`
	Service    string      `json:"service"`
	Team       models.Team `json:"team"`
	Total      int         `json:"total"`
	Used       int         `json:"used"`
	Available  int         `json:"available"`
	Eligible   bool        `json:"eligible"`
}

// OpenRequirement is a task left understaffed.
type OpenRequirement struct {
	RequirementID string        `json:"requirement_id"`
	Date          string        `json:"date"`
	Period        models.Period `json:"period"`
	Team          models.Team   `json:"team"`
	Service       string        `json:"service"`
	Required      int           `json:"required"`
	Open          int           `json:"open"`
}

type DailyCoverage struct {
	Date            string  `json:"date"`
	Required        int     `json:"required"`
	Planned         int     `json:"planned"`
	Open            int     `json:"open"`
	CoveragePercent float64 `json:"coverage_percent"`
}

type ValidationSummary struct {
	Chains   int            `json:"chains"`
	Valid    int            `json:"valid"`
	Invalid  int            `json:"invalid"`
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	ByKind   map[string]int `json:"by_kind,omitempty"`
}

type WriteSummary struct {
	Attempted         int     `json:"attempted"`
	Updated           int     `json:"updated"`
	Batches           int     `json:"batches"`
	FailedBatches     int     `json:"failed_batches"`
	RecordFailures    int     `json:"record_failures"`
	Unresolved        int     `json:"unresolved_references"`
	UnresolvedPercent float64 `json:"unresolved_percent"`
}

// Report is built once and never changed afterwards.
type Report struct {
	RunID              string             `json:"run_id"`
	RosterID           string             `json:"roster_id"`
	PeriodStart        string             `json:"period_start"`
	PeriodEnd          string             `json:"period_end"`
	GeneratedAt        string             `json:"generated_at"`
	Duration           time.Duration      `json:"duration_ns"`
	Summary            Summary            `json:"summary"`
	Services           []ServiceStats     `json:"services"`
	Teams              []TeamStats        `json:"teams"`
	BottleneckServices []string           `json:"bottleneck_services"`
	Employees          []EmployeeCapacity `json:"employees"`
	Open               []OpenRequirement  `json:"open_requirements"`
	Daily              []DailyCoverage    `json:"daily_coverage"`
	Validation         *ValidationSummary `json:"validation,omitempty"`
	Write              *WriteSummary      `json:"write,omitempty"`
	Timings            []PhaseTiming      `json:"timings,omitempty"`
	// Warnings lists sections that could not be computed.
	Warnings []string `json:"warnings,omitempty"`
}

// Partial reports whether any section was skipped.
func (r *Report) Partial() bool {
	return len(r.Warnings) > 0
}

// Generate builds a report. It never fails: a section that panics is
// left empty and noted in Warnings.
func Generate(in Input) *Report {
	if in.Thresholds == (Thresholds{}) {
		in.Thresholds = DefaultThresholds()
	}
	rep := &Report{
		RunID:       in.RunID,
		GeneratedAt: utils.FormatTimestamp(in.GeneratedAt),
		Duration:    in.Duration,
		Timings:     in.Timings,
	}

	g := &generator{in: in, rep: rep}
	g.section("roster", g.roster)
	g.section("summary", g.summary)
	g.section("services", g.services)
	g.section("teams", g.teams)
	g.section("employees", g.employees)
	g.section("open requirements", g.open)
	g.section("daily coverage", g.daily)
	if in.Validation != nil {
		g.section("validation", g.validation)
	}
	if in.Write != nil {
		g.section("write", g.write)
	}
	return rep
}

type generator struct {
	in  Input
	rep *Report
}

func (g *generator) section(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%s section unavailable: %v", name, r)
			g.rep.Warnings = append(g.rep.Warnings, msg)
			logger.Warn("report section failed", "section", name, "run_id", g.in.RunID, "err", r)
		}
	}()
	fn()
}

func (g *generator) roster() {
	r := g.in.Bench.Roster
	g.rep.RosterID = r.ID
	g.rep.PeriodStart = r.PeriodStart
	g.rep.PeriodEnd = r.PeriodEnd
}

type tally struct {
	required, planned, open int
}

func (t *tally) add(task *models.Task) {
	t.required += task.RequiredCount
	t.planned += task.Planned()
	t.open += task.RemainingCount
}

func (g *generator) summary() {
	var t tally
	for _, task := range g.in.Bench.Tasks.All() {
		t.add(task)
	}
	s := Summary{
		TotalRequired:   t.required,
		TotalPlanned:    t.planned,
		TotalOpen:       t.open,
		CoveragePercent: Percent(t.planned, t.required),
	}
	s.Rating = Rate(t.planned, t.required)
	for _, slot := range g.in.Bench.Slots.All() {
		switch slot.Status {
		case models.SlotAssigned:
			s.AssignedSlots++
		case models.SlotBlocked:
			s.BlockedSlots++
		case models.SlotOpen:
			s.OpenSlots++
		}
	}
	g.rep.Summary = s
}

func (g *generator) services() {
	byService := make(map[string]*tally)
	for _, task := range g.in.Bench.Tasks.All() {
		if byService[task.ServiceCode] == nil {
			byService[task.ServiceCode] = &tally{}
		}
		byService[task.ServiceCode].add(task)
	}
	codes := make([]string, 0, len(byService))
	for code := range byService {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	g.rep.Services = make([]ServiceStats, 0, len(codes))
	g.rep.BottleneckServices = []string{}
	for _, code := range codes {
		t := byService[code]
		stats := ServiceStats{
			Service:         code,
			Required:        t.required,
			Planned:         t.planned,
			Open:            t.open,
			CoveragePercent: Percent(t.planned, t.required),
			Bottleneck:      IsBottleneck(t.open, t.required, g.in.Thresholds),
		}
		g.rep.Services = append(g.rep.Services, stats)
		if stats.Bottleneck {
			g.rep.BottleneckServices = append(g.rep.BottleneckServices, code)
		}
	}
}

func (g *generator) teams() {
	byTeam := make(map[models.Team]*tally)
	for _, task := range g.in.Bench.Tasks.All() {
		if byTeam[task.Team] == nil {
			byTeam[task.Team] = &tally{}
		}
		byTeam[task.Team].add(task)
	}
	g.rep.Teams = []TeamStats{}
	for _, team := range models.AllTeams() {
		t, ok := byTeam[team]
		if !ok {
			continue
		}
		g.rep.Teams = append(g.rep.Teams, TeamStats{
			Team:            team,
			Required:        t.required,
			Planned:         t.planned,
			Open:            t.open,
			CoveragePercent: Percent(t.planned, t.required),
		})
	}
}

func (g *generator) employees() {
	rows := g.in.Bench.Capacities.All()
	out := make([]EmployeeCapacity, 0, len(rows))
	for _, c := range rows {
		out = append(out, EmployeeCapacity{
			EmployeeID: c.EmployeeID,
			Service:    c.ServiceCode,
			Team:       c.Team,
			Total:      c.TotalCount,
			Used:       c.Used(),
			Available:  c.AvailableCount,
			Eligible:   c.Eligible,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Service < out[j].Service
	})
	g.rep.Employees = out
}

func (g *generator) open() {
	g.rep.Open = []OpenRequirement{}
	for _, task := range g.in.Bench.Tasks.Ordered() {
		if task.RemainingCount == 0 {
			continue
		}
		g.rep.Open = append(g.rep.Open, OpenRequirement{
			RequirementID: task.RequirementID,
			Date:          task.Date,
			Period:        task.Period,
			Team:          task.Team,
			Service:       task.ServiceCode,
			Required:      task.RequiredCount,
			Open:          task.RemainingCount,
		})
	}
}

func (g *generator) daily() {
	byDate := make(map[string]*tally)
	for _, task := range g.in.Bench.Tasks.All() {
		if byDate[task.Date] == nil {
			byDate[task.Date] = &tally{}
		}
		byDate[task.Date].add(task)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	g.rep.Daily = make([]DailyCoverage, 0, len(dates))
	for _, d := range dates {
		t := byDate[d]
		g.rep.Daily = append(g.rep.Daily, DailyCoverage{
			Date:            d,
			Required:        t.required,
			Planned:         t.planned,
			Open:            t.open,
			CoveragePercent: Percent(t.planned, t.required),
		})
	}
}

func (g *generator) validation() {
	v := g.in.Validation
	sum := &ValidationSummary{Chains: len(v.Chains), Valid: v.ValidCount()}
	sum.Invalid = sum.Chains - sum.Valid
	for _, e := range v.Errors {
		if e.Severity == validation.SeverityWarning {
			sum.Warnings++
		} else {
			sum.Errors++
		}
	}
	if counts := v.CountByKind(); len(counts) > 0 {
		sum.ByKind = make(map[string]int, len(counts))
		for kind, n := range counts {
			sum.ByKind[string(kind)] = n
		}
	}
	g.rep.Validation = sum
}

func (g *generator) write() {
	w := g.in.Write
	sum := &WriteSummary{
		Attempted:      w.Attempted,
		Updated:        w.Updated,
		Batches:        w.Batches,
		FailedBatches:  w.FailedBatches,
		RecordFailures: len(w.ErrorsOfKind(writer.KindRecordFailure)),
		Unresolved:     w.Unresolved(),
	}
	if len(w.Resolutions) > 0 {
		sum.UnresolvedPercent = Percent(sum.Unresolved, len(w.Resolutions))
	}
	g.rep.Write = sum
}

var hundred = decimal.NewFromInt(100)

// Percent returns part/whole*100 rounded half-up to one decimal. A zero
// whole counts as fully covered.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 100
	}
	return decimal.NewFromInt(int64(part)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(whole))).
		Round(1).
		InexactFloat64()
}

// Rate rates the exact planned/required ratio, so 94.95% is good even
// though Percent displays it as 95.0.
func Rate(planned, required int) Rating {
	if required <= 0 {
		return RatingExcellent
	}
	exact := decimal.NewFromInt(int64(planned)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(required)))
	for _, th := range []struct {
		min    float64
		rating Rating
	}{
		{constants.CoverageExcellent, RatingExcellent},
		{constants.CoverageGood, RatingGood},
		{constants.CoverageFair, RatingFair},
	} {
		if exact.GreaterThanOrEqual(decimal.NewFromFloat(th.min)) {
			return th.rating
		}
	}
	return RatingPoor
}

func RatingFor(coverage float64) Rating {
	switch {
	case coverage >= constants.CoverageExcellent:
		return RatingExcellent
	case coverage >= constants.CoverageGood:
		return RatingGood
	case coverage >= constants.CoverageFair:
		return RatingFair
	}
	return RatingPoor
}

// IsBottleneck applies both the relative and the absolute threshold.
func IsBottleneck(open, required int, th Thresholds) bool {
	if open <= 0 || required <= 0 || open < th.MinOpen {
		return false
	}
	ratio := decimal.NewFromInt(int64(open)).Div(decimal.NewFromInt(int64(required)))
	return ratio.GreaterThan(decimal.NewFromFloat(th.MinRatio))
}
