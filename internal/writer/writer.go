// Package writer persists the slots touched by a solve, batched and
// tolerant of partial failure, and resolves each assignment's backward
// reference to the staffing requirement it consumes.
package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/rosterfill/internal/constants"
	"github.com/julianstephens/rosterfill/internal/logger"
	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/storage"
)

type Options struct {
	BatchSize   int
	Concurrency int
	// NewID generates the run id stamped on every update.
	NewID func() string
}

func DefaultOptions() Options {
	return Options{
		BatchSize:   constants.DefaultBatchSize,
		Concurrency: constants.DefaultWriteConcurrency,
		NewID:       uuid.NewString,
	}
}

type ErrorKind string

const (
	KindBatchFailure        ErrorKind = "batch_failure"
	KindReferenceUnresolved ErrorKind = "reference_unresolved"
	KindRecordFailure       ErrorKind = "record_failure"
)

// WriteError describes one failed batch, record or reference lookup.
type WriteError struct {
	Kind    ErrorKind
	Batch   int // 1-based; 0 when not tied to a batch
	SlotIDs []string
	Err     error
}

func (e *WriteError) Error() string {
	if e.Batch > 0 {
		return fmt.Sprintf("%s (batch %d, %d slots): %v", e.Kind, e.Batch, len(e.SlotIDs), e.Err)
	}
	return fmt.Sprintf("%s (%d slots): %v", e.Kind, len(e.SlotIDs), e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Result reports what one Write call persisted.
type Result struct {
	RunID         string
	Attempted     int
	Updated       int
	Batches       int
	FailedBatches int
	// Cancelled is set when the context ended before every batch ran.
	Cancelled     bool
	Resolutions   []Resolution
	Errors        []*WriteError
}

// Unresolved counts assignments written without a requirement reference.
func (r Result) Unresolved() int {
	n := 0
	for _, res := range r.Resolutions {
		if !res.Resolved() {
			n++
		}
	}
	return n
}

// UnresolvedFraction is Unresolved over the number of assignments
// written, or 0 when there were none.
func (r Result) UnresolvedFraction() float64 {
	if len(r.Resolutions) == 0 {
		return 0
	}
	return float64(r.Unresolved()) / float64(len(r.Resolutions))
}

// Failed reports a wholesale failure: there was something to write and
// either every batch failed or the context was cancelled with batches
// still unwritten.
func (r Result) Failed() bool {
	if r.Batches == 0 || r.FailedBatches == 0 {
		return false
	}
	return r.FailedBatches == r.Batches || r.Cancelled
}

// ErrorsOfKind filters Errors.
func (r Result) ErrorsOfKind(kind ErrorKind) []*WriteError {
	var out []*WriteError
	for _, e := range r.Errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ErrWriteFailed is returned, wrapped, when Result.Failed is true.
var ErrWriteFailed = errors.New("write failed")

type Writer struct {
	store storage.SlotWriter
	opts  Options
}

func New(store storage.SlotWriter, opts Options) *Writer {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.NewID == nil {
		opts.NewID = def.NewID
	}
	return &Writer{store: store, opts: opts}
}

type batchOutcome struct {
	updated  int
	failures []storage.RecordFailure
	err      error
}

// Write persists the touched slots under a fresh run id. The returned error
// is non-nil only for a wholesale failure; partial failures are reported in
// Result.Errors and are safe to retry with the same input.
func (w *Writer) Write(ctx context.Context, rosterID string, touched []*models.Slot) (Result, error) {
	res := Result{RunID: w.opts.NewID(), Attempted: len(touched)}
	lg := logger.With("phase", "write", "roster", rosterID, "run_id", res.RunID)
	start := time.Now()

	refs := w.resolve(ctx, rosterID, touched, &res, lg)

	updates := make([]models.SlotUpdate, 0, len(touched))
	for _, s := range touched {
		updates = append(updates, models.UpdateFromSlot(s, refs[s.ID], res.RunID))
	}

	batches := chunk(updates, w.opts.BatchSize)
	res.Batches = len(batches)
	outcomes := make([]batchOutcome, len(batches))

	var g errgroup.Group
	g.SetLimit(w.opts.Concurrency)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = batchOutcome{err: err}
				return nil
			}
			br, err := w.store.UpdateSlots(ctx, batch)
			outcomes[i] = batchOutcome{updated: br.Updated, failures: br.Failures, err: err}
			return nil
		})
	}
	_ = g.Wait()
	res.Cancelled = ctx.Err() != nil

	for i, out := range outcomes {
		res.Updated += out.updated
		if out.err != nil {
			res.FailedBatches++
			res.Errors = append(res.Errors, &WriteError{
				Kind: KindBatchFailure, Batch: i + 1, SlotIDs: slotIDs(batches[i]), Err: out.err,
			})
			lg.Warn("batch failed", "batch", i+1, "size", len(batches[i]), "err", out.err)
		}
		for _, f := range out.failures {
			res.Errors = append(res.Errors, &WriteError{
				Kind: KindRecordFailure, Batch: i + 1, SlotIDs: []string{f.SlotID}, Err: f.Err,
			})
		}
	}

	lg.Info("write finished",
		"updated", res.Updated,
		"batches", res.Batches,
		"failed_batches", res.FailedBatches,
		"unresolved", res.Unresolved(),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if res.Failed() {
		cause := res.Errors[0].Err
		if err := ctx.Err(); err != nil {
			cause = err
		}
		return res, fmt.Errorf("%w: %d of %d batches failed: %w", ErrWriteFailed, res.FailedBatches, res.Batches, cause)
	}
	return res, nil
}

// resolve looks up requirement references for the assigned slots. A lookup
// failure leaves every reference null and is recorded, never fatal.
func (w *Writer) resolve(ctx context.Context, rosterID string, touched []*models.Slot, res *Result, lg *log.Logger) map[string]*string {
	var assigned []*models.Slot
	for _, s := range touched {
		if s.Status == models.SlotAssigned {
			assigned = append(assigned, s)
		}
	}
	refs := make(map[string]*string, len(assigned))
	if len(assigned) == 0 {
		return refs
	}

	ledger, err := w.ledger(ctx, rosterID, touched)
	if err != nil {
		lg.Warn("reference lookup failed, writing without references", "err", err)
		res.Errors = append(res.Errors, &WriteError{Kind: KindReferenceUnresolved, SlotIDs: ids(assigned), Err: err})
		for _, s := range assigned {
			res.Resolutions = append(res.Resolutions, Resolution{SlotID: s.ID, Tier: TierUnresolved})
		}
		return refs
	}

	var unresolved []string
	for _, s := range assigned {
		r := ledger.resolve(s)
		res.Resolutions = append(res.Resolutions, r)
		if !r.Resolved() {
			unresolved = append(unresolved, s.ID)
			continue
		}
		id := r.RequirementID
		refs[s.ID] = &id
	}
	if len(unresolved) > 0 {
		res.Errors = append(res.Errors, &WriteError{
			Kind:    KindReferenceUnresolved,
			SlotIDs: unresolved,
			Err:     fmt.Errorf("no requirement with remaining capacity for %d assignment(s)", len(unresolved)),
		})
		lg.Warn("unresolved requirement references", "count", len(unresolved), "fraction", res.UnresolvedFraction())
	}
	return refs
}

func (w *Writer) ledger(ctx context.Context, rosterID string, touched []*models.Slot) (*refLedger, error) {
	reqs, err := w.store.GetRequirements(ctx, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements: %w", err)
	}
	held, err := w.store.GetSlotReferences(ctx, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot references: %w", err)
	}
	return newRefLedger(reqs, held, ids(touched)), nil
}

func chunk(updates []models.SlotUpdate, size int) [][]models.SlotUpdate {
	var out [][]models.SlotUpdate
	for start := 0; start < len(updates); start += size {
		end := min(start+size, len(updates))
		out = append(out, updates[start:end])
	}
	return out
}

func slotIDs(batch []models.SlotUpdate) []string {
	out := make([]string, len(batch))
	for i, u := range batch {
		out[i] = u.SlotID
	}
	return out
}

func ids(slots []*models.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.ID
	}
	return out
}
