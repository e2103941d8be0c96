package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"med_reminder_bot/internal/domain/reminder"
	"med_reminder_bot/internal/infra/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type sentMessage struct {
	ChatID    int64
	Text      string
	HasMarkup bool
}

type fakeTelegramClient struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	deleted map[int64][]int
	sendErr error
}

func newFakeTelegramClient() *fakeTelegramClient {
	return &fakeTelegramClient{deleted: map[int64][]int{}}
}

func (f *fakeTelegramClient) SendMessage(chatID int64, text string, options *telebot.SendOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{
		ChatID:    chatID,
		Text:      text,
		HasMarkup: options != nil && options.ReplyMarkup != nil,
	})
	return f.nextID, nil
}

func (f *fakeTelegramClient) DeleteMessage(chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[chatID] = append(f.deleted[chatID], messageID)
	return nil
}

type scheduledTimer struct {
	Key   reminder.SlotKey
	Seq   int
	Delay time.Duration
	Fn    func()
}

// fakeEscalationScheduler records timers instead of arming them; tests fire
// the callbacks by hand.
type fakeEscalationScheduler struct {
	scheduled []scheduledTimer
	cancelled []reminder.SlotKey
}

func (f *fakeEscalationScheduler) Schedule(key reminder.SlotKey, seq int, delay time.Duration, fn func()) {
	f.scheduled = append(f.scheduled, scheduledTimer{Key: key, Seq: seq, Delay: delay, Fn: fn})
}

func (f *fakeEscalationScheduler) CancelSlot(key reminder.SlotKey) {
	f.cancelled = append(f.cancelled, key)
}

type serviceFixture struct {
	service  *ReminderServiceImpl
	telegram *fakeTelegramClient
	timers   *fakeEscalationScheduler
	statuses *storage.ConfirmationStore
	subs     *storage.SubscriberStore
}

func newServiceFixture(t *testing.T, now time.Time) *serviceFixture {
	t.Helper()
	dir := t.TempDir()

	statuses, err := storage.NewConfirmationStore(filepath.Join(dir, "confirmations.json"))
	require.NoError(t, err)
	subs, err := storage.NewSubscriberStore(filepath.Join(dir, "subscribers.json"))
	require.NoError(t, err)

	tg := newFakeTelegramClient()
	timers := &fakeEscalationScheduler{}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	service := NewReminderServiceImpl(
		subs, statuses, tg,
		NewMessageTracker(), timers,
		logrus.NewEntry(logger),
		time.UTC, 10*time.Minute, 6, 3,
	)
	service.now = func() time.Time { return now }

	return &serviceFixture{service: service, telegram: tg, timers: timers, statuses: statuses, subs: subs}
}

func TestDispatchSlotWithoutSubscribers(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	require.NoError(t, f.service.DispatchSlot(ctx, "09:00"))

	assert.Empty(t, f.telegram.sent)
	assert.Empty(t, f.timers.scheduled)
	statuses, err := f.statuses.ListDay(ctx, reminder.MakeDayKey(42, "2024-01-01"))
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestDispatchAndConfirmLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	require.NoError(t, f.subs.Add(ctx, 42))

	require.NoError(t, f.service.DispatchSlot(ctx, "09:00"))

	dayKey := reminder.MakeDayKey(42, "2024-01-01")
	statuses, err := f.statuses.ListDay(ctx, dayKey)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "09:00", statuses[0].Slot)
	assert.Equal(t, reminder.StatusPending, statuses[0].Status)

	require.Len(t, f.telegram.sent, 1)
	assert.Equal(t, int64(42), f.telegram.sent[0].ChatID)
	assert.True(t, f.telegram.sent[0].HasMarkup)

	require.Len(t, f.timers.scheduled, 1)
	assert.Equal(t, 1, f.timers.scheduled[0].Seq)
	assert.Equal(t, 10*time.Minute, f.timers.scheduled[0].Delay)

	resolved, err := f.service.ProcessConfirmation(ctx, 42, "2024-01-01", "09:00", 1)
	require.NoError(t, err)
	assert.True(t, resolved)

	statuses, err = f.statuses.ListDay(ctx, dayKey)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, reminder.StatusConfirmed, statuses[0].Status)
	assert.True(t, statuses[0].ConfirmedAt.Equal(now))

	key := reminder.SlotKey{ChatID: 42, Date: "2024-01-01", Slot: "09:00"}
	assert.Contains(t, f.timers.cancelled, key)

	// A second resolution attempt must be rejected and change nothing.
	resolved, err = f.service.ProcessSkip(ctx, 42, "2024-01-01", "09:00", 1)
	require.NoError(t, err)
	assert.False(t, resolved)
	statuses, err = f.statuses.ListDay(ctx, dayKey)
	require.NoError(t, err)
	assert.Equal(t, reminder.StatusConfirmed, statuses[0].Status)
}

func TestEscalationChainStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	require.NoError(t, f.subs.Add(ctx, 42))

	require.NoError(t, f.service.DispatchSlot(ctx, "09:00"))

	// Fire every armed timer in order; each pending escalation below the
	// limit arms the next one.
	for i := 0; i < len(f.timers.scheduled); i++ {
		f.timers.scheduled[i].Fn()
	}

	require.Len(t, f.timers.scheduled, 6, "sequence numbers 1 through 6, never a 7th")
	for i, timer := range f.timers.scheduled {
		assert.Equal(t, i+1, timer.Seq)
	}
	// 1 initial reminder + 6 nags.
	assert.Len(t, f.telegram.sent, 7)
}

func TestEscalationAfterResolutionIsNoOp(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	require.NoError(t, f.subs.Add(ctx, 42))

	require.NoError(t, f.service.DispatchSlot(ctx, "09:00"))
	resolved, err := f.service.ProcessConfirmation(ctx, 42, "2024-01-01", "09:00", 1)
	require.NoError(t, err)
	require.True(t, resolved)

	sendsBefore := len(f.telegram.sent)
	timersBefore := len(f.timers.scheduled)

	// The timer that was armed before the confirmation fires late.
	f.timers.scheduled[0].Fn()

	assert.Len(t, f.telegram.sent, sendsBefore, "no extra message after resolution")
	assert.Len(t, f.timers.scheduled, timersBefore, "no extra timer after resolution")
}

func TestEscalationForUnknownSlotIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	err := f.service.ProcessEscalation(ctx, Escalation{ChatID: 42, Date: "2024-01-01", Slot: "09:00", Seq: 1})
	require.NoError(t, err)
	assert.Empty(t, f.telegram.sent)
	assert.Empty(t, f.timers.scheduled)
}

func TestResolutionCleansUpTrackedMessages(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	require.NoError(t, f.subs.Add(ctx, 42))

	require.NoError(t, f.service.DispatchSlot(ctx, "09:00"))
	// Two escalations pile up two more messages (ids 2 and 3).
	f.timers.scheduled[0].Fn()
	f.timers.scheduled[1].Fn()
	require.Len(t, f.telegram.sent, 3)

	// The user presses the button on the second message.
	resolved, err := f.service.ProcessSkip(ctx, 42, "2024-01-01", "09:00", 2)
	require.NoError(t, err)
	require.True(t, resolved)

	// All three reminder messages end up deleted, the pressed one last.
	assert.Equal(t, []int{1, 3, 2}, f.telegram.deleted[42])

	// The final resolution notice carries no buttons.
	lastSent := f.telegram.sent[len(f.telegram.sent)-1]
	assert.False(t, lastSent.HasMarkup)
	assert.Equal(t, skipText, lastSent.Text)
}

func TestResolveUnknownSlotReturnsFalse(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	resolved, err := f.service.ProcessConfirmation(ctx, 42, "2024-01-01", "09:00", 0)
	require.NoError(t, err)
	assert.False(t, resolved)
	assert.Empty(t, f.telegram.sent)
}

func TestDispatchTestRunsFullLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	require.NoError(t, f.service.DispatchTest(ctx, 42, "TEST-12:30"))

	statuses, err := f.statuses.ListDay(ctx, reminder.MakeDayKey(42, "2024-01-01"))
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "TEST-12:30", statuses[0].Slot)
	assert.Equal(t, reminder.StatusPending, statuses[0].Status)

	require.Len(t, f.timers.scheduled, 1)
	assert.Equal(t, 1, f.timers.scheduled[0].Seq)
}

func TestDispatchSlotFansOutToAllSubscribers(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	for _, id := range []int64{10, 20, 30} {
		require.NoError(t, f.subs.Add(ctx, id))
	}

	require.NoError(t, f.service.DispatchSlot(ctx, "15:00"))

	require.Len(t, f.telegram.sent, 3)
	require.Len(t, f.timers.scheduled, 3)
	for _, id := range []int64{10, 20, 30} {
		statuses, err := f.statuses.ListDay(ctx, reminder.MakeDayKey(id, "2024-01-01"))
		require.NoError(t, err)
		require.Len(t, statuses, 1, "subscriber %d", id)
		assert.Equal(t, reminder.StatusPending, statuses[0].Status)
	}
}

func TestDispatchSlotContinuesAfterSendFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	require.NoError(t, f.subs.Add(ctx, 42))
	f.telegram.sendErr = fmt.Errorf("telegram: network timeout")

	require.NoError(t, f.service.DispatchSlot(ctx, "09:00"))

	// The record was still written, but no escalation was armed for a
	// message that never went out.
	statuses, err := f.statuses.ListDay(ctx, reminder.MakeDayKey(42, "2024-01-01"))
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Empty(t, f.timers.scheduled)
}

func TestBuildCalendarCountsConfirmations(t *testing.T) {
	ctx := context.Background()
	// A Monday, so the whole week is "today or later".
	now := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	dayKey := reminder.MakeDayKey(42, "2024-01-01")
	require.NoError(t, f.statuses.MarkSent(ctx, dayKey, "09:00", now))
	require.NoError(t, f.statuses.MarkSent(ctx, dayKey, "15:00", now))
	for _, slot := range []string{"09:00", "15:00"} {
		ok, err := f.statuses.MarkConfirmed(ctx, dayKey, slot, now)
		require.NoError(t, err)
		require.True(t, ok)
	}

	text, markup, err := f.service.BuildCalendar(ctx, 42, 0)
	require.NoError(t, err)
	require.NotNil(t, markup)
	assert.Contains(t, text, "01.01 (Пн) — 2/3")
	assert.Contains(t, text, "🟡")
}
