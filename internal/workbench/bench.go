package workbench

import (
	"github.com/julianstephens/rosterfill/internal/models"
)

// Bench bundles the collections for one roster run.
type Bench struct {
	Roster     models.Roster
	Tasks      *Tasks
	Slots      *Slots
	Capacities *Capacities
	Services   *Catalog
}

// New indexes the given entities into a Bench.
func New(roster models.Roster, tasks []*models.Task, slots []*models.Slot, caps []*models.Capacity, services []models.ServiceMetadata) *Bench {
	return &Bench{
		Roster:     roster,
		Tasks:      NewTasks(tasks),
		Slots:      NewSlots(slots),
		Capacities: NewCapacities(caps),
		Services:   NewCatalog(services),
	}
}
