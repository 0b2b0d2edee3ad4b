package workbench

import (
	"sort"

	"github.com/julianstephens/rosterfill/internal/models"
)

type capacityKey struct {
	employeeID string
	service    string
}

type Capacities struct {
	items     []*models.Capacity
	byKey     map[capacityKey]*models.Capacity
	byService map[string][]*models.Capacity
}

func NewCapacities(items []*models.Capacity) *Capacities {
	c := &Capacities{
		items:     items,
		byKey:     make(map[capacityKey]*models.Capacity, len(items)),
		byService: make(map[string][]*models.Capacity),
	}
	for _, row := range items {
		c.byKey[capacityKey{row.EmployeeID, row.ServiceCode}] = row
		c.byService[row.ServiceCode] = append(c.byService[row.ServiceCode], row)
	}
	for _, list := range c.byService {
		sort.SliceStable(list, func(i, j int) bool { return list[i].EmployeeID < list[j].EmployeeID })
	}
	return c
}

func (c *Capacities) Len() int {
	return len(c.items)
}

func (c *Capacities) All() []*models.Capacity {
	return c.items
}

// Get returns the capacity row for an employee and service.
func (c *Capacities) Get(employeeID, service string) (*models.Capacity, bool) {
	row, ok := c.byKey[capacityKey{employeeID, service}]
	return row, ok
}

// ForService returns the capacity rows for a service ordered by employee id.
func (c *Capacities) ForService(service string) []*models.Capacity {
	return c.byService[service]
}

// Snapshot copies the available counts, keyed "employee/service".
func (c *Capacities) Snapshot() map[string]int {
	out := make(map[string]int, len(c.items))
	for _, row := range c.items {
		out[row.EmployeeID+"/"+row.ServiceCode] = row.AvailableCount
	}
	return out
}
