// internal/domain/reminder/status.go
package reminder

import "time"

// Status represents the state of a single reminder slot for one day.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusSkipped   Status = "skipped"
)

// SlotStatus is the confirmation record for one reminder slot of one day.
// A record is created as pending when the reminder is sent and moves to
// confirmed or skipped exactly once.
type SlotStatus struct {
	Slot        string
	Status      Status
	SentAt      time.Time
	ConfirmedAt time.Time // zero while the slot is unresolved
}

// Resolved reports whether the slot has reached a terminal state.
func (s SlotStatus) Resolved() bool {
	return s.Status == StatusConfirmed || s.Status == StatusSkipped
}
