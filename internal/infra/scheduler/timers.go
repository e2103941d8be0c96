package scheduler

import (
	"sync"
	"time"

	"med_reminder_bot/internal/domain/reminder"
)

// EscalationTimers is a registry of in-flight escalation timers. Handles are
// stored at schedule time and cancelled by slot key, so no name scan is
// needed. Timers are process-lifetime state; loss on restart is accepted.
type EscalationTimers struct {
	mu     sync.Mutex
	timers map[reminder.SlotKey]map[int]*time.Timer
}

func NewEscalationTimers() *EscalationTimers {
	return &EscalationTimers{
		timers: map[reminder.SlotKey]map[int]*time.Timer{},
	}
}

// Schedule arms a one-shot timer for the given slot and escalation sequence
// number. The handle is dropped from the registry when the timer fires.
func (e *EscalationTimers) Schedule(key reminder.SlotKey, seq int, delay time.Duration, fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slotTimers, ok := e.timers[key]
	if !ok {
		slotTimers = map[int]*time.Timer{}
		e.timers[key] = slotTimers
	}
	slotTimers[seq] = time.AfterFunc(delay, func() {
		e.forget(key, seq)
		fn()
	})
}

func (e *EscalationTimers) forget(key reminder.SlotKey, seq int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slotTimers, ok := e.timers[key]; ok {
		delete(slotTimers, seq)
		if len(slotTimers) == 0 {
			delete(e.timers, key)
		}
	}
}

// CancelSlot stops every outstanding timer for the slot. A timer that already
// fired but has not run yet will no-op through the engine's status check, so
// cancellation does not have to win the race.
func (e *EscalationTimers) CancelSlot(key reminder.SlotKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.timers[key] {
		t.Stop()
	}
	delete(e.timers, key)
}

// Stop cancels every outstanding timer. Used on shutdown.
func (e *EscalationTimers) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, slotTimers := range e.timers {
		for _, t := range slotTimers {
			t.Stop()
		}
	}
	e.timers = map[reminder.SlotKey]map[int]*time.Timer{}
}

// Outstanding reports the number of armed timers for the slot.
func (e *EscalationTimers) Outstanding(key reminder.SlotKey) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers[key])
}
