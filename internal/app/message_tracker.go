package app

import (
	"sync"

	"med_reminder_bot/internal/domain/reminder"
)

// MessageTracker keeps the message ids of outstanding reminder notifications
// per slot-instance, so they can be cleaned up in bulk when the slot
// resolves. The state is in-memory only; losing it on restart just leaves a
// few stale messages behind.
type MessageTracker struct {
	mu       sync.Mutex
	messages map[reminder.SlotKey][]int
	photos   map[reminder.SlotKey]string
}

func NewMessageTracker() *MessageTracker {
	return &MessageTracker{
		messages: map[reminder.SlotKey][]int{},
		photos:   map[reminder.SlotKey]string{},
	}
}

// AddMessage records a sent notification message for later cleanup.
func (t *MessageTracker) AddMessage(key reminder.SlotKey, messageID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages[key] = append(t.messages[key], messageID)
}

// SetPhoto associates a media file id with the slot's notifications.
func (t *MessageTracker) SetPhoto(key reminder.SlotKey, fileID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.photos[key] = fileID
}

// ClearMessages drains and returns everything tracked for the slot. It is a
// single-use drain: a second call returns an empty result.
func (t *MessageTracker) ClearMessages(key reminder.SlotKey) ([]int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := t.messages[key]
	photo := t.photos[key]
	delete(t.messages, key)
	delete(t.photos, key)
	return ids, photo
}
