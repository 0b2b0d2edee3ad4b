package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/rosterfill/internal/constants"
	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/storage"
)

const updateSlotSQL = `
	UPDATE slots SET
		status = ?, assigned_service = ?, source = ?,
		blocked_by_date = ?, blocked_by_period = ?, blocked_by_service = ?,
		constraint_reason = ?, requirement_id = ?, run_id = ?, updated_at = ?
	WHERE id = ? AND NOT protected`

// UpdateSlots writes each update on a single dedicated connection. Updates
// are not wrapped in a transaction: a failing record is collected and the
// rest of the batch proceeds. Protected slots are never overwritten and
// surface as record failures.
func (s *Store) UpdateSlots(ctx context.Context, updates []models.SlotUpdate) (storage.BatchResult, error) {
	var res storage.BatchResult
	if len(updates) == 0 {
		return res, nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	stmt, err := conn.PrepareContext(ctx, s.rebind(updateSlotSQL))
	if err != nil {
		return res, fmt.Errorf("failed to prepare slot update: %w", err)
	}
	defer stmt.Close()

	stamp := s.stamp()
	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		reason, err := models.EncodeReason(u.ConstraintReason)
		if err != nil {
			res.Failures = append(res.Failures, storage.RecordFailure{SlotID: u.SlotID, Err: err})
			continue
		}
		bDate, bPeriod, bService := blockRefColumns(u.BlockedBy)

		result, err := stmt.ExecContext(ctx,
			string(u.Status), u.AssignedService, string(u.Source),
			bDate, bPeriod, bService,
			reason, toNull(u.RequirementRef), u.RunID, stamp,
			u.SlotID,
		)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failures = append(res.Failures, storage.RecordFailure{SlotID: u.SlotID, Err: err})
			continue
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			res.Failures = append(res.Failures, storage.RecordFailure{
				SlotID: u.SlotID,
				Err:    fmt.Errorf("slot %s missing or protected: %w", u.SlotID, storage.ErrNotFound),
			})
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (s *Store) MarkRosterProcessed(ctx context.Context, rosterID, runID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE rosters SET status = ?, processed_at = ?, last_run_id = ? WHERE id = ?`),
		constants.RosterStatusProcessed, at.UTC().Format(time.RFC3339), runID, rosterID)
	if err != nil {
		return fmt.Errorf("failed to mark roster %s processed: %w", rosterID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("roster %s: %w", rosterID, storage.ErrNotFound)
	}
	return nil
}
