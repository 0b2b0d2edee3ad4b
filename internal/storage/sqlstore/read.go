package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/storage"
)

func (s *Store) GetRoster(ctx context.Context, rosterID string) (models.Roster, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, period_start, period_end, status, processed_at, last_run_id
		FROM rosters WHERE id = ?`), rosterID)

	var r models.Roster
	var processedAt, lastRunID sql.NullString
	if err := row.Scan(&r.ID, &r.Name, &r.PeriodStart, &r.PeriodEnd, &r.Status, &processedAt, &lastRunID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Roster{}, fmt.Errorf("roster %s: %w", rosterID, storage.ErrNotFound)
		}
		return models.Roster{}, fmt.Errorf("failed to read roster %s: %w", rosterID, err)
	}
	r.ProcessedAt = nullString(processedAt)
	r.LastRunID = nullString(lastRunID)
	return r, nil
}

func (s *Store) GetRequirements(ctx context.Context, rosterID string) ([]models.Requirement, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, roster_id, date, period, team, service_code, required_count
		FROM staffing_requirements WHERE roster_id = ?
		ORDER BY date, period, team, service_code, id`), rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query requirements: %w", err)
	}
	defer rows.Close()

	var reqs []models.Requirement
	for rows.Next() {
		var r models.Requirement
		var period, team string
		if err := rows.Scan(&r.ID, &r.RosterID, &r.Date, &period, &team, &r.ServiceCode, &r.RequiredCount); err != nil {
			return nil, fmt.Errorf("failed to scan requirement: %w", err)
		}
		if r.Period, err = models.ParsePeriod(period); err != nil {
			return nil, fmt.Errorf("requirement %s: %w", r.ID, err)
		}
		if r.Team, err = models.ParseTeam(team); err != nil {
			return nil, fmt.Errorf("requirement %s: %w", r.ID, err)
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

func (s *Store) GetSlots(ctx context.Context, rosterID string) ([]models.Slot, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT s.id, s.roster_id, s.employee_id, e.team, s.date, s.period, s.status,
		       s.assigned_service, s.source, s.blocked_by_date, s.blocked_by_period,
		       s.blocked_by_service, s.constraint_reason, s.protected, s.requirement_id, s.run_id
		FROM slots s
		JOIN employees e ON e.id = s.employee_id
		WHERE s.roster_id = ?
		ORDER BY s.date, s.employee_id, s.id`), rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []models.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func scanSlot(rows *sql.Rows) (models.Slot, error) {
	var sl models.Slot
	var team, period, status, source, reason string
	var bDate, bPeriod, bService, reqRef sql.NullString
	err := rows.Scan(&sl.ID, &sl.RosterID, &sl.EmployeeID, &team, &sl.Date, &period, &status,
		&sl.AssignedService, &source, &bDate, &bPeriod, &bService, &reason, &sl.Protected, &reqRef, &sl.RunID)
	if err != nil {
		return models.Slot{}, fmt.Errorf("failed to scan slot: %w", err)
	}

	if sl.Team, err = models.ParseTeam(team); err != nil {
		return models.Slot{}, fmt.Errorf("slot %s: %w", sl.ID, err)
	}
	if sl.Period, err = models.ParsePeriod(period); err != nil {
		return models.Slot{}, fmt.Errorf("slot %s: %w", sl.ID, err)
	}
	if sl.Status, err = models.ParseSlotStatus(status); err != nil {
		return models.Slot{}, fmt.Errorf("slot %s: %w", sl.ID, err)
	}
	if sl.Source, err = models.ParseSource(source); err != nil {
		return models.Slot{}, fmt.Errorf("slot %s: %w", sl.ID, err)
	}
	if sl.ConstraintReason, err = models.DecodeReason(reason); err != nil {
		return models.Slot{}, fmt.Errorf("slot %s: %w", sl.ID, err)
	}
	if bDate.Valid && bPeriod.Valid {
		p, err := models.ParsePeriod(bPeriod.String)
		if err != nil {
			return models.Slot{}, fmt.Errorf("slot %s blocked_by: %w", sl.ID, err)
		}
		sl.BlockedBy = &models.BlockRef{Date: bDate.String, Period: p, ServiceCode: bService.String}
	}
	sl.RequirementRef = nullString(reqRef)
	sl.Protected = sl.Protected || sl.Source.IsProtected()
	return sl, nil
}

func (s *Store) GetCapacities(ctx context.Context, rosterID string) ([]models.Capacity, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT roster_id, employee_id, service_code, team, total_count, eligible
		FROM capacities WHERE roster_id = ?
		ORDER BY employee_id, service_code`), rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query capacities: %w", err)
	}
	defer rows.Close()

	var caps []models.Capacity
	for rows.Next() {
		var c models.Capacity
		var team string
		if err := rows.Scan(&c.RosterID, &c.EmployeeID, &c.ServiceCode, &team, &c.TotalCount, &c.Eligible); err != nil {
			return nil, fmt.Errorf("failed to scan capacity: %w", err)
		}
		if c.Team, err = models.ParseTeam(team); err != nil {
			return nil, fmt.Errorf("capacity %s/%s: %w", c.EmployeeID, c.ServiceCode, err)
		}
		c.AvailableCount = c.TotalCount
		caps = append(caps, c)
	}
	return caps, rows.Err()
}

func (s *Store) GetServices(ctx context.Context) ([]models.ServiceMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, is_system_chain, blocks_next_day, paired_service
		FROM services ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var services []models.ServiceMetadata
	for rows.Next() {
		var m models.ServiceMetadata
		if err := rows.Scan(&m.Code, &m.Name, &m.IsSystemChain, &m.BlocksNextDay, &m.PairedService); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, m)
	}
	return services, rows.Err()
}

func (s *Store) GetSlotReferences(ctx context.Context, rosterID string) ([]storage.SlotReference, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, requirement_id FROM slots
		WHERE roster_id = ? AND requirement_id IS NOT NULL
		ORDER BY id`), rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query slot references: %w", err)
	}
	defer rows.Close()

	var refs []storage.SlotReference
	for rows.Next() {
		var ref storage.SlotReference
		if err := rows.Scan(&ref.SlotID, &ref.RequirementID); err != nil {
			return nil, fmt.Errorf("failed to scan slot reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
