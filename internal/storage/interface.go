package storage

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/rosterfill/internal/models"
)

// ErrNotFound is returned when a requested row does not exist, or an update
// matched no row.
var ErrNotFound = errors.New("not found")

// Reader is the read side consumed by the loader.
type Reader interface {
	GetRoster(ctx context.Context, rosterID string) (models.Roster, error)
	GetRequirements(ctx context.Context, rosterID string) ([]models.Requirement, error)
	// GetSlots returns every slot of the roster regardless of status.
	GetSlots(ctx context.Context, rosterID string) ([]models.Slot, error)
	// GetCapacities returns entitlements with AvailableCount equal to
	// TotalCount; consumption is computed in memory.
	GetCapacities(ctx context.Context, rosterID string) ([]models.Capacity, error)
	GetServices(ctx context.Context) ([]models.ServiceMetadata, error)
}

// SlotReference is a slot's persisted backward reference to the staffing
// requirement it consumes.
type SlotReference struct {
	SlotID        string
	RequirementID string
}

// RecordFailure is one slot update that could not be applied.
type RecordFailure struct {
	SlotID string
	Err    error
}

// BatchResult reports the outcome of one UpdateSlots call.
type BatchResult struct {
	Updated  int
	Failures []RecordFailure
}

// SlotWriter is the write side consumed by the writer.
type SlotWriter interface {
	GetRequirements(ctx context.Context, rosterID string) ([]models.Requirement, error)
	GetSlotReferences(ctx context.Context, rosterID string) ([]SlotReference, error)
	// UpdateSlots applies each update independently. A returned error means
	// the batch as a whole could not be attempted or was interrupted;
	// BatchResult still reports what was applied before that point.
	UpdateSlots(ctx context.Context, updates []models.SlotUpdate) (BatchResult, error)
}

// RunLedger records pipeline outcomes against the roster.
type RunLedger interface {
	MarkRosterProcessed(ctx context.Context, rosterID, runID string, at time.Time) error
	RecordRun(ctx context.Context, run models.RunRecord) error
	ListRuns(ctx context.Context, rosterID string, limit int) ([]models.RunRecord, error)
}

// FixtureWriter imports master data and pre-planned slots.
type FixtureWriter interface {
	UpsertRoster(ctx context.Context, roster models.Roster) error
	UpsertEmployees(ctx context.Context, employees []models.Employee) error
	UpsertServices(ctx context.Context, services []models.ServiceMetadata) error
	UpsertRequirements(ctx context.Context, reqs []models.Requirement) error
	UpsertCapacities(ctx context.Context, caps []models.Capacity) error
	UpsertSlots(ctx context.Context, slots []models.Slot) error
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	Reader
	SlotWriter
	RunLedger
	FixtureWriter

	// SchemaStatus reports the applied and latest migration versions.
	SchemaStatus(ctx context.Context) (current, latest int, err error)

	// Utils
	GetConfigPath() string
}
