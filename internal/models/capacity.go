package models

import "fmt"

// Capacity is an employee's entitlement to work a service within a roster.
type Capacity struct {
	RosterID       string
	EmployeeID     string
	ServiceCode    string
	Team           Team
	TotalCount     int
	AvailableCount int
	Eligible       bool
}

// CanTake reports whether one more unit may be consumed.
func (c *Capacity) CanTake() bool {
	return c.Eligible && c.AvailableCount > 0
}

// Consume takes one unit of entitlement. The check happens before the
// mutation so AvailableCount never goes negative.
func (c *Capacity) Consume() error {
	if c.AvailableCount <= 0 {
		return fmt.Errorf("capacity %s/%s exhausted", c.EmployeeID, c.ServiceCode)
	}
	c.AvailableCount--
	return nil
}

// Used is the number of units consumed so far.
func (c *Capacity) Used() int {
	return c.TotalCount - c.AvailableCount
}
