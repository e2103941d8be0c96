package scheduler

import (
	"testing"
	"time"

	"med_reminder_bot/internal/domain/reminder"

	"github.com/stretchr/testify/assert"
)

func TestScheduleFires(t *testing.T) {
	timers := NewEscalationTimers()
	key := reminder.SlotKey{ChatID: 42, Date: "2024-01-01", Slot: "09:00"}

	fired := make(chan struct{})
	timers.Schedule(key, 1, 5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	// The handle is dropped once the timer has fired.
	assert.Eventually(t, func() bool { return timers.Outstanding(key) == 0 },
		time.Second, 5*time.Millisecond)
}

func TestCancelSlotStopsOutstandingTimers(t *testing.T) {
	timers := NewEscalationTimers()
	key := reminder.SlotKey{ChatID: 42, Date: "2024-01-01", Slot: "09:00"}

	fired := make(chan struct{}, 2)
	timers.Schedule(key, 1, 50*time.Millisecond, func() { fired <- struct{}{} })
	timers.Schedule(key, 2, 50*time.Millisecond, func() { fired <- struct{}{} })
	assert.Equal(t, 2, timers.Outstanding(key))

	timers.CancelSlot(key)
	assert.Equal(t, 0, timers.Outstanding(key))

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestCancelSlotLeavesOtherSlotsAlone(t *testing.T) {
	timers := NewEscalationTimers()
	morning := reminder.SlotKey{ChatID: 42, Date: "2024-01-01", Slot: "09:00"}
	evening := reminder.SlotKey{ChatID: 42, Date: "2024-01-01", Slot: "21:00"}

	fired := make(chan string, 2)
	timers.Schedule(morning, 1, 20*time.Millisecond, func() { fired <- "morning" })
	timers.Schedule(evening, 1, 20*time.Millisecond, func() { fired <- "evening" })

	timers.CancelSlot(morning)

	select {
	case slot := <-fired:
		assert.Equal(t, "evening", slot)
	case <-time.After(2 * time.Second):
		t.Fatal("surviving timer did not fire")
	}
}

func TestStopCancelsEverything(t *testing.T) {
	timers := NewEscalationTimers()
	fired := make(chan struct{}, 2)
	timers.Schedule(reminder.SlotKey{ChatID: 1, Date: "2024-01-01", Slot: "09:00"}, 1,
		50*time.Millisecond, func() { fired <- struct{}{} })
	timers.Schedule(reminder.SlotKey{ChatID: 2, Date: "2024-01-01", Slot: "09:00"}, 1,
		50*time.Millisecond, func() { fired <- struct{}{} })

	timers.Stop()

	select {
	case <-fired:
		t.Fatal("timer fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
}
