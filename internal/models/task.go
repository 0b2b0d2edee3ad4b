package models

import "fmt"

// Requirement is a persisted staffing-requirement row: how many employees
// of a team must work a service at a date and period.
type Requirement struct {
	ID            string `json:"id" yaml:"id"`
	RosterID      string `json:"roster_id" yaml:"roster_id"`
	Date          string `json:"date" yaml:"date"` // YYYY-MM-DD format
	Period        Period `json:"period" yaml:"period"`
	Team          Team   `json:"team" yaml:"team"`
	ServiceCode   string `json:"service" yaml:"service"`
	RequiredCount int    `json:"required_count" yaml:"required_count"`
}

// Task is the in-memory staffing need derived from a Requirement.
// RequiredCount never changes; RemainingCount is consumed by the solver.
type Task struct {
	ID             string
	RequirementID  string
	Date           string // YYYY-MM-DD format
	Period         Period
	Team           Team
	ServiceCode    string
	RequiredCount  int
	RemainingCount int
}

// NewTask builds a task with nothing consumed yet.
func NewTask(req Requirement) *Task {
	return &Task{
		ID:             req.ID,
		RequirementID:  req.ID,
		Date:           req.Date,
		Period:         req.Period,
		Team:           req.Team,
		ServiceCode:    req.ServiceCode,
		RequiredCount:  req.RequiredCount,
		RemainingCount: req.RequiredCount,
	}
}

// Planned is the number of units already satisfied.
func (t *Task) Planned() int {
	return t.RequiredCount - t.RemainingCount
}

// Consume satisfies one unit. It refuses to drop below zero.
func (t *Task) Consume() error {
	if t.RemainingCount <= 0 {
		return fmt.Errorf("task %s: no remaining units to consume", t.ID)
	}
	t.RemainingCount--
	return nil
}

func (t *Task) String() string {
	return fmt.Sprintf("%s %s %s/%s (%d/%d)", t.Date, t.Period, t.Team, t.ServiceCode, t.Planned(), t.RequiredCount)
}
