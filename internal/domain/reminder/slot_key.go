// internal/domain/reminder/slot_key.go
package reminder

import "fmt"

// SlotKey identifies a single slot-instance: one reminder slot, for one
// subscriber chat, on one calendar day.
type SlotKey struct {
	ChatID int64
	Date   string // YYYY-MM-DD in the bot's configured timezone
	Slot   string
}

// DayKey returns the storage key scoping records to a subscriber and a day.
func (k SlotKey) DayKey() string {
	return MakeDayKey(k.ChatID, k.Date)
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%d:%s:%s", k.ChatID, k.Date, k.Slot)
}

// MakeDayKey builds the "{chatID}:{date}" key used by the confirmation store.
func MakeDayKey(chatID int64, date string) string {
	return fmt.Sprintf("%d:%s", chatID, date)
}
