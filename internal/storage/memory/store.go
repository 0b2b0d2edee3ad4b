// Package memory is a map-backed storage.Provider. It keeps the whole
// dataset in process and supports failure injection for exercising the
// writer's partial-failure handling.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/rosterfill/internal/constants"
	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/storage"
)

type capKey struct{ roster, employee, service string }

type Store struct {
	mu           sync.Mutex
	rosters      map[string]models.Roster
	employees    map[string]models.Employee
	services     map[string]models.ServiceMetadata
	requirements map[string]models.Requirement
	capacities   map[capKey]models.Capacity
	slots        map[string]models.Slot
	runs         []models.RunRecord

	// FailSlot makes UpdateSlots record a failure for matching slot ids.
	FailSlot func(slotID string) error
	// FailBatch makes UpdateSlots reject a whole call. n counts calls from 1.
	FailBatch func(n int) error
	batches   int
}

var _ storage.Provider = (*Store)(nil)

func New() *Store {
	return &Store{
		rosters:      make(map[string]models.Roster),
		employees:    make(map[string]models.Employee),
		services:     make(map[string]models.ServiceMetadata),
		requirements: make(map[string]models.Requirement),
		capacities:   make(map[capKey]models.Capacity),
		slots:        make(map[string]models.Slot),
	}
}

func (s *Store) Init() error          { return nil }
func (s *Store) Load() error          { return nil }
func (s *Store) Close() error         { return nil }
func (s *Store) GetConfigPath() string { return "memory" }

func (s *Store) SchemaStatus(context.Context) (int, int, error) {
	return 0, 0, nil
}

func (s *Store) GetRoster(_ context.Context, rosterID string) (models.Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rosters[rosterID]
	if !ok {
		return models.Roster{}, fmt.Errorf("roster %s: %w", rosterID, storage.ErrNotFound)
	}
	return r, nil
}

func (s *Store) GetRequirements(_ context.Context, rosterID string) ([]models.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Requirement
	for _, r := range s.requirements {
		if r.RosterID == rosterID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetSlots(_ context.Context, rosterID string) ([]models.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Slot
	for _, sl := range s.slots {
		if sl.RosterID != rosterID {
			continue
		}
		if e, ok := s.employees[sl.EmployeeID]; ok {
			sl.Team = e.Team
		}
		sl.Protected = sl.Protected || sl.Source.IsProtected()
		out = append(out, cloneSlot(sl))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetCapacities(_ context.Context, rosterID string) ([]models.Capacity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Capacity
	for _, c := range s.capacities {
		if c.RosterID == rosterID {
			c.AvailableCount = c.TotalCount
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].ServiceCode < out[j].ServiceCode
	})
	return out, nil
}

func (s *Store) GetServices(context.Context) ([]models.ServiceMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ServiceMetadata, 0, len(s.services))
	for _, m := range s.services {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) GetSlotReferences(_ context.Context, rosterID string) ([]storage.SlotReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.SlotReference
	for _, sl := range s.slots {
		if sl.RosterID == rosterID && sl.RequirementRef != nil {
			out = append(out, storage.SlotReference{SlotID: sl.ID, RequirementID: *sl.RequirementRef})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotID < out[j].SlotID })
	return out, nil
}

func (s *Store) UpdateSlots(ctx context.Context, updates []models.SlotUpdate) (storage.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res storage.BatchResult
	s.batches++
	if s.FailBatch != nil {
		if err := s.FailBatch(s.batches); err != nil {
			return res, err
		}
	}
	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if s.FailSlot != nil {
			if err := s.FailSlot(u.SlotID); err != nil {
				res.Failures = append(res.Failures, storage.RecordFailure{SlotID: u.SlotID, Err: err})
				continue
			}
		}
		sl, ok := s.slots[u.SlotID]
		if !ok || sl.Protected || sl.Source.IsProtected() {
			res.Failures = append(res.Failures, storage.RecordFailure{
				SlotID: u.SlotID,
				Err:    fmt.Errorf("slot %s missing or protected: %w", u.SlotID, storage.ErrNotFound),
			})
			continue
		}
		sl.Status = u.Status
		sl.AssignedService = u.AssignedService
		sl.Source = u.Source
		sl.BlockedBy = cloneRef(u.BlockedBy)
		sl.ConstraintReason = u.ConstraintReason
		sl.RequirementRef = cloneString(u.RequirementRef)
		sl.RunID = u.RunID
		s.slots[u.SlotID] = sl
		res.Updated++
	}
	return res, nil
}

func (s *Store) MarkRosterProcessed(_ context.Context, rosterID, runID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rosters[rosterID]
	if !ok {
		return fmt.Errorf("roster %s: %w", rosterID, storage.ErrNotFound)
	}
	stamp := at.UTC().Format(time.RFC3339)
	r.Status = constants.RosterStatusProcessed
	r.ProcessedAt = &stamp
	r.LastRunID = &runID
	s.rosters[rosterID] = r
	return nil
}

func (s *Store) RecordRun(_ context.Context, run models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.runs {
		if existing.RunID == run.RunID {
			return errors.New("duplicate run id " + run.RunID)
		}
	}
	s.runs = append(s.runs, run)
	return nil
}

func (s *Store) ListRuns(_ context.Context, rosterID string, limit int) ([]models.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RunRecord
	for _, r := range s.runs {
		if r.RosterID == rosterID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertRoster(_ context.Context, r models.Roster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Status == "" {
		r.Status = constants.RosterStatusDraft
	}
	s.rosters[r.ID] = r
	return nil
}

func (s *Store) UpsertEmployees(_ context.Context, employees []models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range employees {
		s.employees[e.ID] = e
	}
	return nil
}

func (s *Store) UpsertServices(_ context.Context, services []models.ServiceMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range services {
		s.services[m.Code] = m
	}
	return nil
}

func (s *Store) UpsertRequirements(_ context.Context, reqs []models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range reqs {
		s.requirements[r.ID] = r
	}
	return nil
}

func (s *Store) UpsertCapacities(_ context.Context, caps []models.Capacity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range caps {
		s.capacities[capKey{c.RosterID, c.EmployeeID, c.ServiceCode}] = c
	}
	return nil
}

func (s *Store) UpsertSlots(_ context.Context, slots []models.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range slots {
		if sl.Status == "" {
			sl.Status = models.SlotOpen
		}
		if sl.Source == "" {
			sl.Source = models.SourceNone
		}
		s.slots[sl.ID] = cloneSlot(sl)
	}
	return nil
}

// Slot returns a copy of one persisted slot.
func (s *Store) Slot(id string) (models.Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[id]
	return cloneSlot(sl), ok
}

// SlotIDs lists every persisted slot id, sorted.
func (s *Store) SlotIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func cloneSlot(sl models.Slot) models.Slot {
	sl.BlockedBy = cloneRef(sl.BlockedBy)
	sl.RequirementRef = cloneString(sl.RequirementRef)
	return sl
}

func cloneRef(b *models.BlockRef) *models.BlockRef {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
