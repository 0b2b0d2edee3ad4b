package sqlstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/rosterfill/internal/models"
)

func (s *Store) RecordRun(ctx context.Context, run models.RunRecord) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO autofill_runs (
			run_id, roster_id, started_at, finished_at, success, dry_run,
			assigned_count, open_count, updated_count, coverage_percent, validation_count, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.RunID, run.RosterID, run.StartedAt, run.FinishedAt, run.Success, run.DryRun,
		run.Assigned, run.Open, run.Updated, run.CoveragePercent, run.ValidationCount, run.Error)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs of a roster, newest first. A
// non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, rosterID string, limit int) ([]models.RunRecord, error) {
	query := `
		SELECT run_id, roster_id, started_at, finished_at, success, dry_run,
		       assigned_count, open_count, updated_count, coverage_percent, validation_count, error
		FROM autofill_runs WHERE roster_id = ?
		ORDER BY started_at DESC, run_id`
	args := []any{rosterID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		var r models.RunRecord
		if err := rows.Scan(&r.RunID, &r.RosterID, &r.StartedAt, &r.FinishedAt, &r.Success, &r.DryRun,
			&r.Assigned, &r.Open, &r.Updated, &r.CoveragePercent, &r.ValidationCount, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
