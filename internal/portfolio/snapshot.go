package portfolio

import (
	"context"
	"fmt"
	"time"

	"paper-trader/internal/models"
)

// PnLStore persists daily snapshots.
type PnLStore interface {
	UpsertPnL(ctx context.Context, rec models.PnLRecord) error
}

// SnapshotWriter writes one P&L row per calendar date, overwriting an earlier
// row for the same date.
type SnapshotWriter struct {
	store PnLStore
	now   func() time.Time
}

func NewSnapshotWriter(store PnLStore, now func() time.Time) *SnapshotWriter {
	if now == nil {
		now = time.Now
	}
	return &SnapshotWriter{store: store, now: now}
}

// Write persists summary under today's date.
func (w *SnapshotWriter) Write(ctx context.Context, summary Summary) (models.PnLRecord, error) {
	rec := models.PnLRecord{
		Date:          w.now().Format(models.DateLayout),
		Cash:          summary.Cash,
		UnrealizedPnL: summary.UnrealizedPnL,
		Total:         summary.Total,
	}
	if err := w.store.UpsertPnL(ctx, rec); err != nil {
		return rec, fmt.Errorf("failed to write snapshot for %s: %w", rec.Date, err)
	}
	return rec, nil
}
