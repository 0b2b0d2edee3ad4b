package workbench

import (
	"slices"
	"sort"

	"github.com/julianstephens/rosterfill/internal/models"
)

type Tasks struct {
	items []*models.Task
}

func NewTasks(items []*models.Task) *Tasks {
	return &Tasks{items: items}
}

func (t *Tasks) Len() int {
	return len(t.items)
}

// All returns the tasks in load order.
func (t *Tasks) All() []*models.Task {
	return t.items
}

// Ordered returns the tasks sorted by date, period, team, service and id.
// The solver relies on this order for deterministic output.
func (t *Tasks) Ordered() []*models.Task {
	out := make([]*models.Task, len(t.items))
	copy(out, t.items)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Period != b.Period {
			return a.Period.Index() < b.Period.Index()
		}
		if a.Team != b.Team {
			return a.Team < b.Team
		}
		if a.ServiceCode != b.ServiceCode {
			return a.ServiceCode < b.ServiceCode
		}
		return a.ID < b.ID
	})
	return out
}

// FindOpen returns the first task at date/period for service whose team is
// one of teams and which still has remaining units.
func (t *Tasks) FindOpen(date string, period models.Period, service string, teams ...models.Team) *models.Task {
	for _, task := range t.Ordered() {
		if task.Date != date || task.Period != period || task.ServiceCode != service || task.RemainingCount == 0 {
			continue
		}
		for _, team := range teams {
			if task.Team == team {
				return task
			}
		}
	}
	return nil
}

// Covering returns the open task an assignment by an employee of team
// would satisfy: a task of the same team first, then any task whose search
// order reaches that team.
func (t *Tasks) Covering(date string, period models.Period, service string, team models.Team) *models.Task {
	if task := t.FindOpen(date, period, service, team); task != nil {
		return task
	}
	var reaching []models.Team
	for _, other := range models.AllTeams() {
		if other == team {
			continue
		}
		for _, tier := range models.SearchOrder(other) {
			if slices.Contains(tier, team) {
				reaching = append(reaching, other)
				break
			}
		}
	}
	if len(reaching) == 0 {
		return nil
	}
	return t.FindOpen(date, period, service, reaching...)
}
