// internal/domain/reminder/repository.go
package reminder

import (
	"context"
	"time"
)

// Repository defines operations for persisting per-day slot confirmation
// records. Day keys are built with MakeDayKey.
type Repository interface {
	// MarkSent inserts (or re-initializes) the record for the slot with
	// status pending and the given sent timestamp.
	MarkSent(ctx context.Context, dayKey, slot string, sentAt time.Time) error

	// MarkConfirmed moves a pending record to confirmed. It returns false
	// when no record exists for the slot or the record is already resolved;
	// that is a no-op, not an error.
	MarkConfirmed(ctx context.Context, dayKey, slot string, confirmedAt time.Time) (bool, error)

	// MarkSkipped is symmetric to MarkConfirmed for the skipped state.
	MarkSkipped(ctx context.Context, dayKey, slot string, skippedAt time.Time) (bool, error)

	// ListDay returns all records for the day ordered by slot label.
	ListDay(ctx context.Context, dayKey string) ([]SlotStatus, error)
}
