package models

import "fmt"

// Team is the closed set of teams an employee or requirement belongs to.
type Team string

const (
	TeamGreen    Team = "green"
	TeamBlue     Team = "blue"
	TeamShared   Team = "shared"   // fallback pool any team may draw from
	TeamCombined Team = "combined" // requirement served by all teams as one pool
)

// AllTeams lists every Team value in a stable order.
func AllTeams() []Team {
	return []Team{TeamGreen, TeamBlue, TeamShared, TeamCombined}
}

// ParseTeam validates a persisted team value.
func ParseTeam(s string) (Team, error) {
	for _, t := range AllTeams() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown team %q", s)
}

// IsAggregate reports whether the team is a pooled team rather than an
// operational one.
func (t Team) IsAggregate() bool {
	return t == TeamShared || t == TeamCombined
}

// SearchOrder returns the tiers of teams searched for candidates when
// staffing a requirement of team t. Tiers are tried in order and the first
// tier yielding a candidate wins; teams inside one tier form a single pool.
func SearchOrder(t Team) [][]Team {
	switch t {
	case TeamGreen:
		return [][]Team{{TeamGreen}, {TeamShared}}
	case TeamBlue:
		return [][]Team{{TeamBlue}, {TeamShared}}
	case TeamShared:
		return [][]Team{{TeamShared}}
	case TeamCombined:
		return [][]Team{{TeamGreen, TeamBlue, TeamShared}}
	}
	panic(fmt.Sprintf("models: no search order for team %q", t))
}

// Period is a segment of the day. Morning is the first period and anchors
// chains.
type Period string

const (
	PeriodMorning Period = "morning"
	PeriodMidday  Period = "midday"
	PeriodEvening Period = "evening"
)

// FirstPeriod is the period a chain head is assigned at.
const FirstPeriod = PeriodMorning

// AllPeriods lists the periods in day order.
func AllPeriods() []Period {
	return []Period{PeriodMorning, PeriodMidday, PeriodEvening}
}

func ParsePeriod(s string) (Period, error) {
	for _, p := range AllPeriods() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Index returns the ordinal position of the period within a day.
func (p Period) Index() int {
	switch p {
	case PeriodMorning:
		return 0
	case PeriodMidday:
		return 1
	case PeriodEvening:
		return 2
	}
	return -1
}

type SlotStatus string

const (
	SlotOpen        SlotStatus = "open"
	SlotAssigned    SlotStatus = "assigned"
	SlotBlocked     SlotStatus = "blocked"
	SlotUnavailable SlotStatus = "unavailable"
)

func ParseSlotStatus(s string) (SlotStatus, error) {
	switch SlotStatus(s) {
	case SlotOpen, SlotAssigned, SlotBlocked, SlotUnavailable:
		return SlotStatus(s), nil
	}
	return "", fmt.Errorf("unknown slot status %q", s)
}

// Source records who produced a slot's current state.
type Source string

const (
	SourceNone        Source = "none"
	SourceAutofill    Source = "autofill"
	SourceManual      Source = "manual"
	SourcePrePlanning Source = "pre_planning"
)

func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceNone, SourceAutofill, SourceManual, SourcePrePlanning:
		return Source(s), nil
	case "":
		return SourceNone, nil
	}
	return "", fmt.Errorf("unknown slot source %q", s)
}

// IsProtected reports whether slots from this source are off limits to
// autofill.
func (s Source) IsProtected() bool {
	return s == SourceManual || s == SourcePrePlanning
}
