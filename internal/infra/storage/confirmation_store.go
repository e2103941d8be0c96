package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"med_reminder_bot/internal/domain/reminder"
)

// slotRecord is the on-disk shape of one confirmation record.
type slotRecord struct {
	Status      string  `json:"status"`
	SentAt      string  `json:"sent_at"`
	ConfirmedAt *string `json:"confirmed_at"`
}

// dayMap maps "{chatID}:{date}" day keys to slot label -> record.
type dayMap map[string]map[string]slotRecord

// ConfirmationStore is a file-backed implementation of reminder.Repository.
// Every operation reads the whole file and every mutation rewrites it through
// an atomic rename, serialized by a single lock. Write volume is a handful of
// records per day, so correctness wins over throughput here.
type ConfirmationStore struct {
	filePath string
	mu       sync.Mutex
}

var _ reminder.Repository = (*ConfirmationStore)(nil)

// NewConfirmationStore creates the store and initializes an empty data file
// when none exists yet.
func NewConfirmationStore(filePath string) (*ConfirmationStore, error) {
	if err := ensureParentDir(filePath); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	s := &ConfirmationStore{filePath: filePath}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := writeJSONAtomic(filePath, dayMap{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ConfirmationStore) read() (dayMap, error) {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return dayMap{}, nil
		}
		return nil, fmt.Errorf("failed to read confirmation file: %w", err)
	}
	data := dayMap{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode confirmation file: %w", err)
	}
	return data, nil
}

// MarkSent inserts or re-initializes the slot record as pending.
func (s *ConfirmationStore) MarkSent(_ context.Context, dayKey, slot string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	day, ok := data[dayKey]
	if !ok {
		day = map[string]slotRecord{}
		data[dayKey] = day
	}
	day[slot] = slotRecord{
		Status:      string(reminder.StatusPending),
		SentAt:      sentAt.Format(time.RFC3339),
		ConfirmedAt: nil,
	}
	return writeJSONAtomic(s.filePath, data)
}

// MarkConfirmed resolves a pending record to confirmed. Missing or already
// resolved records are left untouched and reported as false.
func (s *ConfirmationStore) MarkConfirmed(ctx context.Context, dayKey, slot string, confirmedAt time.Time) (bool, error) {
	return s.resolve(ctx, dayKey, slot, reminder.StatusConfirmed, confirmedAt)
}

// MarkSkipped resolves a pending record to skipped.
func (s *ConfirmationStore) MarkSkipped(ctx context.Context, dayKey, slot string, skippedAt time.Time) (bool, error) {
	return s.resolve(ctx, dayKey, slot, reminder.StatusSkipped, skippedAt)
}

func (s *ConfirmationStore) resolve(_ context.Context, dayKey, slot string, status reminder.Status, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return false, err
	}
	day, ok := data[dayKey]
	if !ok {
		return false, nil
	}
	entry, ok := day[slot]
	if !ok {
		return false, nil
	}
	// pending -> terminal happens exactly once; a second resolution attempt
	// must not overwrite the first.
	if entry.Status != string(reminder.StatusPending) {
		return false, nil
	}
	ts := at.Format(time.RFC3339)
	entry.Status = string(status)
	entry.ConfirmedAt = &ts
	day[slot] = entry
	if err := writeJSONAtomic(s.filePath, data); err != nil {
		return false, err
	}
	return true, nil
}

// ListDay returns the day's records ordered by slot label.
func (s *ConfirmationStore) ListDay(_ context.Context, dayKey string) ([]reminder.SlotStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	day := data[dayKey]
	slots := make([]string, 0, len(day))
	for slot := range day {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	statuses := make([]reminder.SlotStatus, 0, len(slots))
	for _, slot := range slots {
		entry := day[slot]
		st := reminder.SlotStatus{
			Slot:   slot,
			Status: reminder.Status(entry.Status),
		}
		if st.Status == "" {
			st.Status = reminder.StatusPending
		}
		if entry.SentAt != "" {
			if t, err := time.Parse(time.RFC3339, entry.SentAt); err == nil {
				st.SentAt = t
			}
		}
		if entry.ConfirmedAt != nil {
			if t, err := time.Parse(time.RFC3339, *entry.ConfirmedAt); err == nil {
				st.ConfirmedAt = t
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
