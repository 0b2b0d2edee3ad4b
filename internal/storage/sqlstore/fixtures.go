package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/rosterfill/internal/constants"
	"github.com/julianstephens/rosterfill/internal/models"
)

func (s *Store) UpsertRoster(ctx context.Context, r models.Roster) error {
	status := r.Status
	if status == "" {
		status = constants.RosterStatusDraft
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO rosters (id, name, period_start, period_end, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			status = excluded.status`),
		r.ID, r.Name, r.PeriodStart, r.PeriodEnd, status)
	if err != nil {
		return fmt.Errorf("failed to upsert roster %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) UpsertEmployees(ctx context.Context, employees []models.Employee) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO employees (id, name, team, active) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name, team = excluded.team, active = excluded.active`))
		if err != nil {
			return fmt.Errorf("failed to prepare employee upsert: %w", err)
		}
		defer stmt.Close()
		for _, e := range employees {
			if _, err := stmt.ExecContext(ctx, e.ID, e.Name, string(e.Team), e.Active); err != nil {
				return fmt.Errorf("failed to upsert employee %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertServices(ctx context.Context, services []models.ServiceMetadata) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO services (code, name, is_system_chain, blocks_next_day, paired_service)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (code) DO UPDATE SET
				name = excluded.name,
				is_system_chain = excluded.is_system_chain,
				blocks_next_day = excluded.blocks_next_day,
				paired_service = excluded.paired_service`))
		if err != nil {
			return fmt.Errorf("failed to prepare service upsert: %w", err)
		}
		defer stmt.Close()
		for _, m := range services {
			if _, err := stmt.ExecContext(ctx, m.Code, m.Name, m.IsSystemChain, m.BlocksNextDay, m.PairedService); err != nil {
				return fmt.Errorf("failed to upsert service %s: %w", m.Code, err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertRequirements(ctx context.Context, reqs []models.Requirement) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO staffing_requirements (id, roster_id, date, period, team, service_code, required_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				roster_id = excluded.roster_id,
				date = excluded.date,
				period = excluded.period,
				team = excluded.team,
				service_code = excluded.service_code,
				required_count = excluded.required_count`))
		if err != nil {
			return fmt.Errorf("failed to prepare requirement upsert: %w", err)
		}
		defer stmt.Close()
		for _, r := range reqs {
			if _, err := stmt.ExecContext(ctx, r.ID, r.RosterID, r.Date, string(r.Period), string(r.Team), r.ServiceCode, r.RequiredCount); err != nil {
				return fmt.Errorf("failed to upsert requirement %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertCapacities(ctx context.Context, caps []models.Capacity) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO capacities (roster_id, employee_id, service_code, team, total_count, eligible)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (roster_id, employee_id, service_code) DO UPDATE SET
				team = excluded.team,
				total_count = excluded.total_count,
				eligible = excluded.eligible`))
		if err != nil {
			return fmt.Errorf("failed to prepare capacity upsert: %w", err)
		}
		defer stmt.Close()
		for _, c := range caps {
			if _, err := stmt.ExecContext(ctx, c.RosterID, c.EmployeeID, c.ServiceCode, string(c.Team), c.TotalCount, c.Eligible); err != nil {
				return fmt.Errorf("failed to upsert capacity %s/%s: %w", c.EmployeeID, c.ServiceCode, err)
			}
		}
		return nil
	})
}

// UpsertSlots imports slot rows as-is, including protected pre-planning.
func (s *Store) UpsertSlots(ctx context.Context, slots []models.Slot) error {
	stamp := s.stamp()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO slots (
				id, roster_id, employee_id, date, period, status, assigned_service, source,
				blocked_by_date, blocked_by_period, blocked_by_service, constraint_reason,
				protected, requirement_id, run_id, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				status = excluded.status,
				assigned_service = excluded.assigned_service,
				source = excluded.source,
				blocked_by_date = excluded.blocked_by_date,
				blocked_by_period = excluded.blocked_by_period,
				blocked_by_service = excluded.blocked_by_service,
				constraint_reason = excluded.constraint_reason,
				protected = excluded.protected,
				requirement_id = excluded.requirement_id,
				run_id = excluded.run_id,
				updated_at = excluded.updated_at`))
		if err != nil {
			return fmt.Errorf("failed to prepare slot upsert: %w", err)
		}
		defer stmt.Close()

		for _, sl := range slots {
			reason, err := models.EncodeReason(sl.ConstraintReason)
			if err != nil {
				return fmt.Errorf("slot %s: %w", sl.ID, err)
			}
			bDate, bPeriod, bService := blockRefColumns(sl.BlockedBy)
			source := sl.Source
			if source == "" {
				source = models.SourceNone
			}
			status := sl.Status
			if status == "" {
				status = models.SlotOpen
			}
			if _, err := stmt.ExecContext(ctx,
				sl.ID, sl.RosterID, sl.EmployeeID, sl.Date, string(sl.Period), string(status),
				sl.AssignedService, string(source), bDate, bPeriod, bService, reason,
				sl.Protected || source.IsProtected(), toNull(sl.RequirementRef), sl.RunID, stamp,
			); err != nil {
				return fmt.Errorf("failed to upsert slot %s: %w", sl.ID, err)
			}
		}
		return nil
	})
}
