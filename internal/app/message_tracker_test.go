package app

import (
	"testing"

	"med_reminder_bot/internal/domain/reminder"

	"github.com/stretchr/testify/assert"
)

func TestMessageTrackerDrain(t *testing.T) {
	tracker := NewMessageTracker()
	key := reminder.SlotKey{ChatID: 42, Date: "2024-01-01", Slot: "09:00"}

	tracker.AddMessage(key, 100)
	tracker.AddMessage(key, 101)
	tracker.SetPhoto(key, "photo-file-id")

	ids, photo := tracker.ClearMessages(key)
	assert.Equal(t, []int{100, 101}, ids)
	assert.Equal(t, "photo-file-id", photo)
}

func TestMessageTrackerClearIsSingleUse(t *testing.T) {
	tracker := NewMessageTracker()
	key := reminder.SlotKey{ChatID: 42, Date: "2024-01-01", Slot: "09:00"}
	tracker.AddMessage(key, 100)

	tracker.ClearMessages(key)
	ids, photo := tracker.ClearMessages(key)
	assert.Empty(t, ids)
	assert.Empty(t, photo)
}

func TestMessageTrackerKeysAreIndependent(t *testing.T) {
	tracker := NewMessageTracker()
	morning := reminder.SlotKey{ChatID: 42, Date: "2024-01-01", Slot: "09:00"}
	evening := reminder.SlotKey{ChatID: 42, Date: "2024-01-01", Slot: "21:00"}

	tracker.AddMessage(morning, 100)
	tracker.AddMessage(evening, 200)

	ids, _ := tracker.ClearMessages(morning)
	assert.Equal(t, []int{100}, ids)

	ids, _ = tracker.ClearMessages(evening)
	assert.Equal(t, []int{200}, ids)
}
