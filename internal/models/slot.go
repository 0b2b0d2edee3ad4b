package models

import "fmt"

// SlotKey addresses one employee's period on one date.
type SlotKey struct {
	EmployeeID string
	Date       string
	Period     Period
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s@%s/%s", k.EmployeeID, k.Date, k.Period)
}

// BlockRef records which chain head blocked a slot.
type BlockRef struct {
	Date        string `json:"date" yaml:"date"`
	Period      Period `json:"period" yaml:"period"`
	ServiceCode string `json:"service" yaml:"service"`
}

// Slot is one employee's schedulable unit in a roster.
type Slot struct {
	ID               string
	RosterID         string
	EmployeeID       string
	Team             Team
	Date             string // YYYY-MM-DD format
	Period           Period
	Status           SlotStatus
	AssignedService  string
	Source           Source
	BlockedBy        *BlockRef
	ConstraintReason ConstraintReason
	Protected        bool
	RequirementRef   *string
	RunID            string
}

func (s *Slot) Key() SlotKey {
	return SlotKey{EmployeeID: s.EmployeeID, Date: s.Date, Period: s.Period}
}

// IsFillable reports whether autofill may write to the slot.
func (s *Slot) IsFillable() bool {
	return s.Status == SlotOpen && !s.Protected
}

// Assign marks the slot as worked by autofill.
func (s *Slot) Assign(service string) {
	s.Status = SlotAssigned
	s.AssignedService = service
	s.Source = SourceAutofill
	s.BlockedBy = nil
}

// Block marks the slot as blocked by a chain head.
func (s *Slot) Block(ref BlockRef, reason ConstraintReason) {
	s.Status = SlotBlocked
	s.AssignedService = ""
	s.Source = SourceAutofill
	s.BlockedBy = &ref
	s.ConstraintReason = reason
}

// CheckInvariants verifies the status-dependent field requirements.
func (s *Slot) CheckInvariants() error {
	switch s.Status {
	case SlotAssigned:
		if s.AssignedService == "" {
			return fmt.Errorf("slot %s is assigned without a service", s.ID)
		}
	case SlotBlocked:
		if s.BlockedBy == nil {
			return fmt.Errorf("slot %s is blocked without a blocking reference", s.ID)
		}
	}
	return nil
}

// SlotUpdate is the write-contract payload for one slot row.
type SlotUpdate struct {
	SlotID           string
	Status           SlotStatus
	AssignedService  string
	Source           Source
	BlockedBy        *BlockRef
	ConstraintReason ConstraintReason
	RequirementRef   *string
	RunID            string
}

// UpdateFromSlot captures the mutable fields of s.
func UpdateFromSlot(s *Slot, ref *string, runID string) SlotUpdate {
	var blocked *BlockRef
	if s.BlockedBy != nil {
		b := *s.BlockedBy
		blocked = &b
	}
	return SlotUpdate{
		SlotID:           s.ID,
		Status:           s.Status,
		AssignedService:  s.AssignedService,
		Source:           s.Source,
		BlockedBy:        blocked,
		ConstraintReason: s.ConstraintReason,
		RequirementRef:   ref,
		RunID:            runID,
	}
}
