package workbench

import (
	"sort"

	"github.com/julianstephens/rosterfill/internal/models"
)

// Slots indexes slot records by key and by employee. More than one record
// may exist for a key when upstream data is inconsistent; lookups return
// them in id order.
type Slots struct {
	items      []*models.Slot
	byKey      map[models.SlotKey][]*models.Slot
	byEmployee map[string][]*models.Slot
}

func NewSlots(items []*models.Slot) *Slots {
	s := &Slots{
		items:      items,
		byKey:      make(map[models.SlotKey][]*models.Slot, len(items)),
		byEmployee: make(map[string][]*models.Slot),
	}
	for _, slot := range items {
		k := slot.Key()
		s.byKey[k] = append(s.byKey[k], slot)
		s.byEmployee[slot.EmployeeID] = append(s.byEmployee[slot.EmployeeID], slot)
	}
	for _, list := range s.byKey {
		sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return s
}

func (s *Slots) Len() int {
	return len(s.items)
}

// All returns every slot record. The pointers are shared with the bench.
func (s *Slots) All() []*models.Slot {
	return s.items
}

// Lookup returns the first slot record at key.
func (s *Slots) Lookup(key models.SlotKey) (*models.Slot, bool) {
	list := s.byKey[key]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// LookupAll returns every slot record at key.
func (s *Slots) LookupAll(key models.SlotKey) []*models.Slot {
	return s.byKey[key]
}

// At is shorthand for Lookup by parts.
func (s *Slots) At(employeeID, date string, period models.Period) (*models.Slot, bool) {
	return s.Lookup(models.SlotKey{EmployeeID: employeeID, Date: date, Period: period})
}

// ForEmployee returns the slots of one employee.
func (s *Slots) ForEmployee(employeeID string) []*models.Slot {
	return s.byEmployee[employeeID]
}

// Employees lists the employee ids that own at least one slot, sorted.
func (s *Slots) Employees() []string {
	ids := make([]string, 0, len(s.byEmployee))
	for id := range s.byEmployee {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UnavailableAt reports whether any record for the employee at date/period
// is marked unavailable.
func (s *Slots) UnavailableAt(employeeID, date string, period models.Period) bool {
	for _, slot := range s.LookupAll(models.SlotKey{EmployeeID: employeeID, Date: date, Period: period}) {
		if slot.Status == models.SlotUnavailable {
			return true
		}
	}
	return false
}

// CountAssigned counts the employee's assigned slots dated in [from, to].
func (s *Slots) CountAssigned(employeeID, from, to string) int {
	n := 0
	for _, slot := range s.byEmployee[employeeID] {
		if slot.Status == models.SlotAssigned && slot.Date >= from && slot.Date <= to {
			n++
		}
	}
	return n
}
