// Package fixture imports roster master data and pre-planned slots from
// YAML files.
package fixture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/storage"
	"github.com/julianstephens/rosterfill/internal/utils"
)

// Fixture is the on-disk shape. Roster ids are filled in wherever the
// nested records omit them.
type Fixture struct {
	Roster       models.Roster            `yaml:"roster"`
	Employees    []EmployeeSpec           `yaml:"employees"`
	Services     []models.ServiceMetadata `yaml:"services"`
	Requirements []models.Requirement     `yaml:"requirements"`
	Capacities   []CapacitySpec           `yaml:"capacities"`
	Slots        []SlotSpec               `yaml:"slots"`
	// FillOpenSlots creates an open slot for every active employee, date and
	// period of the roster that has no explicit slot.
	FillOpenSlots bool `yaml:"fill_open_slots"`
}

type EmployeeSpec struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Team   models.Team `yaml:"team"`
	Active *bool       `yaml:"active"` // defaults to true
}

func (e EmployeeSpec) toEmployee() models.Employee {
	active := true
	if e.Active != nil {
		active = *e.Active
	}
	return models.Employee{ID: e.ID, Name: e.Name, Team: e.Team, Active: active}
}

type CapacitySpec struct {
	Employee string      `yaml:"employee"`
	Service  string      `yaml:"service"`
	Total    int         `yaml:"total"`
	Team     models.Team `yaml:"team"`     // defaults to the employee's team
	Eligible *bool       `yaml:"eligible"` // defaults to true
}

type SlotSpec struct {
	ID        string            `yaml:"id"`
	Employee  string            `yaml:"employee"`
	Date      string            `yaml:"date"`
	Period    models.Period     `yaml:"period"`
	Status    models.SlotStatus `yaml:"status"`
	Service   string            `yaml:"service"`
	Source    models.Source     `yaml:"source"`
	Protected bool              `yaml:"protected"`
	BlockedBy *models.BlockRef  `yaml:"blocked_by"`
	// Absence and Note set an Absence or ManualBlock constraint reason.
	Absence string `yaml:"absence"`
	Note    string `yaml:"note"`
}

// Data is a fixture expanded into storage records.
type Data struct {
	Roster       models.Roster
	Employees    []models.Employee
	Services     []models.ServiceMetadata
	Requirements []models.Requirement
	Capacities   []models.Capacity
	Slots        []models.Slot
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*Fixture, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("fixture: payload is empty")
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("fixture: decode: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func ReadFile(path string) (*Fixture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	f, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Validate reports every problem found, joined.
func (f *Fixture) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if f.Roster.ID == "" {
		add("roster.id is required")
	}
	if !utils.ValidateDateFormat(f.Roster.PeriodStart) || !utils.ValidateDateFormat(f.Roster.PeriodEnd) {
		add("roster period must be YYYY-MM-DD dates")
	} else if f.Roster.PeriodEnd < f.Roster.PeriodStart {
		add("roster period_end %s is before period_start %s", f.Roster.PeriodEnd, f.Roster.PeriodStart)
	}

	employees := make(map[string]bool)
	for i, e := range f.Employees {
		if e.ID == "" {
			add("employees[%d]: id is required", i)
		}
		if _, err := models.ParseTeam(string(e.Team)); err != nil {
			add("employees[%d]: %v", i, err)
		}
		employees[e.ID] = true
	}
	services := make(map[string]bool)
	for _, m := range f.Services {
		services[m.Code] = true
	}
	for i, m := range f.Services {
		if m.Code == "" {
			add("services[%d]: code is required", i)
		}
		if m.PairedService != "" && !services[m.PairedService] {
			add("services[%d]: paired service %q is not in the catalogue", i, m.PairedService)
		}
	}
	for i, r := range f.Requirements {
		if !utils.ValidateDateFormat(r.Date) {
			add("requirements[%d]: invalid date %q", i, r.Date)
		}
		if _, err := models.ParsePeriod(string(r.Period)); err != nil {
			add("requirements[%d]: %v", i, err)
		}
		if _, err := models.ParseTeam(string(r.Team)); err != nil {
			add("requirements[%d]: %v", i, err)
		}
		if !services[r.ServiceCode] {
			add("requirements[%d]: unknown service %q", i, r.ServiceCode)
		}
		if r.RequiredCount < 0 {
			add("requirements[%d]: required_count must not be negative", i)
		}
	}
	for i, c := range f.Capacities {
		if !employees[c.Employee] {
			add("capacities[%d]: unknown employee %q", i, c.Employee)
		}
		if !services[c.Service] {
			add("capacities[%d]: unknown service %q", i, c.Service)
		}
		if c.Total < 0 {
			add("capacities[%d]: total must not be negative", i)
		}
		if c.Team != "" {
			if _, err := models.ParseTeam(string(c.Team)); err != nil {
				add("capacities[%d]: %v", i, err)
			}
		}
	}
	for i, s := range f.Slots {
		if !employees[s.Employee] {
			add("slots[%d]: unknown employee %q", i, s.Employee)
		}
		if !utils.ValidateDateFormat(s.Date) {
			add("slots[%d]: invalid date %q", i, s.Date)
		}
		if _, err := models.ParsePeriod(string(s.Period)); err != nil {
			add("slots[%d]: %v", i, err)
		}
		if s.Status != "" {
			if _, err := models.ParseSlotStatus(string(s.Status)); err != nil {
				add("slots[%d]: %v", i, err)
			}
		}
		if _, err := models.ParseSource(string(s.Source)); err != nil {
			add("slots[%d]: %v", i, err)
		}
		if s.Status == models.SlotAssigned && s.Service == "" {
			add("slots[%d]: assigned slot needs a service", i)
		}
		if s.Status == models.SlotBlocked && s.BlockedBy == nil {
			add("slots[%d]: blocked slot needs blocked_by", i)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("fixture: invalid: %w", errors.Join(errs...))
	}
	return nil
}

// Expand produces the storage records, generating ids and open slots.
func (f *Fixture) Expand() (Data, error) {
	d := Data{
		Roster:   f.Roster,
		Services: f.Services,
	}
	rosterID := f.Roster.ID

	teams := make(map[string]models.Team, len(f.Employees))
	for _, spec := range f.Employees {
		e := spec.toEmployee()
		teams[e.ID] = e.Team
		d.Employees = append(d.Employees, e)
	}

	for i, r := range f.Requirements {
		if r.ID == "" {
			r.ID = fmt.Sprintf("%s-req-%03d", rosterID, i+1)
		}
		if r.RosterID == "" {
			r.RosterID = rosterID
		}
		d.Requirements = append(d.Requirements, r)
	}

	for _, c := range f.Capacities {
		team := c.Team
		if team == "" {
			team = teams[c.Employee]
		}
		eligible := true
		if c.Eligible != nil {
			eligible = *c.Eligible
		}
		d.Capacities = append(d.Capacities, models.Capacity{
			RosterID:       rosterID,
			EmployeeID:     c.Employee,
			ServiceCode:    c.Service,
			Team:           team,
			TotalCount:     c.Total,
			AvailableCount: c.Total,
			Eligible:       eligible,
		})
	}

	seen := make(map[models.SlotKey]bool)
	for _, s := range f.Slots {
		slot := s.toSlot(rosterID, teams[s.Employee])
		seen[slot.Key()] = true
		d.Slots = append(d.Slots, slot)
	}

	if f.FillOpenSlots {
		dates, err := utils.DateRange(f.Roster.PeriodStart, f.Roster.PeriodEnd)
		if err != nil {
			return Data{}, fmt.Errorf("fixture: %w", err)
		}
		for _, e := range d.Employees {
			if !e.Active {
				continue
			}
			for _, date := range dates {
				for _, period := range models.AllPeriods() {
					key := models.SlotKey{EmployeeID: e.ID, Date: date, Period: period}
					if seen[key] {
						continue
					}
					d.Slots = append(d.Slots, models.Slot{
						ID:         SlotID(e.ID, date, period),
						RosterID:   rosterID,
						EmployeeID: e.ID,
						Team:       e.Team,
						Date:       date,
						Period:     period,
						Status:     models.SlotOpen,
						Source:     models.SourceNone,
					})
				}
			}
		}
	}
	return d, nil
}

// SlotID is the id generated for fixture slots without an explicit one.
func SlotID(employeeID, date string, period models.Period) string {
	return fmt.Sprintf("%s-%s-%s", employeeID, date, period)
}

func (s SlotSpec) toSlot(rosterID string, team models.Team) models.Slot {
	id := s.ID
	if id == "" {
		id = SlotID(s.Employee, s.Date, s.Period)
	}
	status := s.Status
	if status == "" {
		status = models.SlotOpen
	}
	source, _ := models.ParseSource(string(s.Source))

	var reason models.ConstraintReason
	switch {
	case s.Absence != "":
		reason = models.Absence{Type: s.Absence}
	case s.Note != "":
		reason = models.ManualBlock{Note: s.Note}
	}

	return models.Slot{
		ID:               id,
		RosterID:         rosterID,
		EmployeeID:       s.Employee,
		Team:             team,
		Date:             s.Date,
		Period:           s.Period,
		Status:           status,
		AssignedService:  s.Service,
		Source:           source,
		BlockedBy:        s.BlockedBy,
		ConstraintReason: reason,
		Protected:        s.Protected || source.IsProtected(),
	}
}

// Apply writes the expanded fixture through w. Records are upserted, so
// applying the same fixture twice is harmless.
func (f *Fixture) Apply(ctx context.Context, w storage.FixtureWriter) (Data, error) {
	d, err := f.Expand()
	if err != nil {
		return Data{}, err
	}
	if err := w.UpsertRoster(ctx, d.Roster); err != nil {
		return Data{}, err
	}
	if err := w.UpsertEmployees(ctx, d.Employees); err != nil {
		return Data{}, err
	}
	if err := w.UpsertServices(ctx, d.Services); err != nil {
		return Data{}, err
	}
	if err := w.UpsertRequirements(ctx, d.Requirements); err != nil {
		return Data{}, err
	}
	if err := w.UpsertCapacities(ctx, d.Capacities); err != nil {
		return Data{}, err
	}
	if err := w.UpsertSlots(ctx, d.Slots); err != nil {
		return Data{}, err
	}
	return d, nil
}
