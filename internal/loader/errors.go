package loader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a LoadError.
type ErrorKind string

const (
	KindMissingCollection ErrorKind = "missing_collection"
	KindNoTasksFound      ErrorKind = "no_tasks_found"
)

var (
	ErrMissingCollection = errors.New("missing collection")
	ErrNoTasksFound      = errors.New("no tasks found")
)

// Collection names reported in LoadError.Missing.
const (
	CollectionTasks      = "tasks"
	CollectionSlots      = "slots"
	CollectionCapacities = "capacities"
	CollectionServices   = "services"
)

// LoadError aborts a run before solving. Missing lists every empty
// collection, not only the first one found.
type LoadError struct {
	Kind     ErrorKind
	RosterID string
	Missing  []string
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case KindNoTasksFound:
		msg := fmt.Sprintf("roster %s: no staffing requirements with required_count > 0", e.RosterID)
		if len(e.Missing) > 1 {
			msg += fmt.Sprintf(" (also missing: %s)", strings.Join(e.Missing[1:], ", "))
		}
		return msg
	default:
		return fmt.Sprintf("roster %s: missing %s", e.RosterID, strings.Join(e.Missing, ", "))
	}
}

// Is lets callers match with errors.Is(err, ErrNoTasksFound).
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrNoTasksFound:
		return e.Kind == KindNoTasksFound
	case ErrMissingCollection:
		return e.Kind == KindMissingCollection
	}
	return false
}
