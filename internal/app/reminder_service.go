// internal/app/reminder_service.go
package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"med_reminder_bot/internal/domain/reminder"
	"med_reminder_bot/internal/domain/subscriber"
	domainTelegram "med_reminder_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Callback button uniques shared between the keyboards built here and the
// handlers registered in the telegram layer.
const (
	CallbackConfirm      = "confirm"
	CallbackSkip         = "skip"
	CallbackCalendarWeek = "cal_week"
	CallbackCalendarNoop = "cal_noop"
)

// Escalation is the payload carried by an escalation timer: which
// slot-instance to re-notify and which attempt this is (1-based).
type Escalation struct {
	ChatID int64
	Date   string
	Slot   string
	Seq    int
}

// EscalationScheduler is the delayed one-shot timer substrate used for nag
// reminders. Implementations keep a handle per scheduled timer and cancel by
// slot key.
type EscalationScheduler interface {
	Schedule(key reminder.SlotKey, seq int, delay time.Duration, fn func())
	CancelSlot(key reminder.SlotKey)
}

// ReminderService defines the reminder lifecycle operations: scheduled
// dispatch, escalating re-notification and user-driven resolution.
type ReminderService interface {
	// DispatchSlot sends the reminder for the given slot to every
	// subscriber, creating pending records and arming the first escalation.
	DispatchSlot(ctx context.Context, slot string) error
	// DispatchTest runs the same lifecycle for a single chat with a test
	// slot label.
	DispatchTest(ctx context.Context, chatID int64, slot string) error
	// ProcessEscalation handles a fired escalation timer. A timer firing for
	// an already resolved (or never dispatched) slot is a silent no-op.
	ProcessEscalation(ctx context.Context, esc Escalation) error
	// ProcessConfirmation resolves a pending slot as confirmed. It returns
	// false when there is nothing pending to resolve.
	ProcessConfirmation(ctx context.Context, chatID int64, date, slot string, pressedMessageID int) (bool, error)
	// ProcessSkip resolves a pending slot as skipped.
	ProcessSkip(ctx context.Context, chatID int64, date, slot string, pressedMessageID int) (bool, error)
	// BuildCalendar renders the weekly statistics view with navigation
	// buttons. weekOffset counts weeks back from the current one.
	BuildCalendar(ctx context.Context, chatID int64, weekOffset int) (string, *telebot.ReplyMarkup, error)
}

// ReminderServiceImpl implements the ReminderService interface.
type ReminderServiceImpl struct {
	subscriberRepo subscriber.Repository
	statusRepo     reminder.Repository
	telegramClient domainTelegram.Client
	tracker        *MessageTracker
	timers         EscalationScheduler
	logger         *logrus.Entry
	location       *time.Location
	nagDelay       time.Duration
	nagLimit       int
	slotsPerDay    int
	now            func() time.Time
}

func NewReminderServiceImpl(
	sr subscriber.Repository,
	rr reminder.Repository,
	tc domainTelegram.Client,
	tracker *MessageTracker,
	timers EscalationScheduler,
	logger *logrus.Entry,
	location *time.Location,
	nagDelay time.Duration,
	nagLimit int,
	slotsPerDay int,
) *ReminderServiceImpl {
	s := &ReminderServiceImpl{
		subscriberRepo: sr,
		statusRepo:     rr,
		telegramClient: tc,
		tracker:        tracker,
		timers:         timers,
		logger:         logger,
		location:       location,
		nagDelay:       nagDelay,
		nagLimit:       nagLimit,
		slotsPerDay:    slotsPerDay,
	}
	s.now = func() time.Time { return time.Now().In(location) }
	return s
}

// DispatchSlot sends the slot's reminder to all subscribers.
func (s *ReminderServiceImpl) DispatchSlot(ctx context.Context, slot string) error {
	now := s.now()
	date := now.Format("2006-01-02")

	subscribers, err := s.subscriberRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		s.logger.WithField("slot", slot).Debug("No active subscribers, skipping reminder.")
		return nil
	}

	text := reminderText(slot)
	for _, chatID := range subscribers {
		key := reminder.SlotKey{ChatID: chatID, Date: date, Slot: slot}
		logCtx := s.logger.WithFields(logrus.Fields{"chat_id": chatID, "slot": slot, "date": date})

		if err := s.statusRepo.MarkSent(ctx, key.DayKey(), slot, now); err != nil {
			logCtx.WithError(err).Error("Failed to record sent reminder")
			continue
		}
		messageID, err := s.telegramClient.SendMessage(chatID, text, sendOptions(buildSlotKeyboard(key)))
		if err != nil {
			logCtx.WithError(err).Error("Failed to send reminder")
			continue
		}
		s.tracker.AddMessage(key, messageID)
		s.scheduleEscalation(key, 1)
		logCtx.Info("Reminder sent, first escalation scheduled")
	}
	return nil
}

// DispatchTest sends a one-off test reminder to a single chat, running the
// full lifecycle including escalation.
func (s *ReminderServiceImpl) DispatchTest(ctx context.Context, chatID int64, slot string) error {
	now := s.now()
	date := now.Format("2006-01-02")
	key := reminder.SlotKey{ChatID: chatID, Date: date, Slot: slot}

	if err := s.statusRepo.MarkSent(ctx, key.DayKey(), slot, now); err != nil {
		return fmt.Errorf("failed to record test reminder: %w", err)
	}
	messageID, err := s.telegramClient.SendMessage(chatID, testReminderText(slot), sendOptions(buildSlotKeyboard(key)))
	if err != nil {
		return fmt.Errorf("failed to send test reminder: %w", err)
	}
	s.tracker.AddMessage(key, messageID)
	s.scheduleEscalation(key, 1)
	return nil
}

// scheduleEscalation arms the timer for the given attempt number.
func (s *ReminderServiceImpl) scheduleEscalation(key reminder.SlotKey, seq int) {
	esc := Escalation{ChatID: key.ChatID, Date: key.Date, Slot: key.Slot, Seq: seq}
	s.timers.Schedule(key, seq, s.nagDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := s.ProcessEscalation(ctx, esc); err != nil {
			s.logger.WithError(err).WithField("slot_key", key.String()).Error("Error processing escalation")
		}
	})
}

// ProcessEscalation re-notifies an unresolved slot and arms the next timer
// while the attempt limit is not reached.
func (s *ReminderServiceImpl) ProcessEscalation(ctx context.Context, esc Escalation) error {
	key := reminder.SlotKey{ChatID: esc.ChatID, Date: esc.Date, Slot: esc.Slot}
	logCtx := s.logger.WithFields(logrus.Fields{"slot_key": key.String(), "seq": esc.Seq})

	statuses, err := s.statusRepo.ListDay(ctx, key.DayKey())
	if err != nil {
		return fmt.Errorf("failed to load day statuses: %w", err)
	}
	var current *reminder.SlotStatus
	for i := range statuses {
		if statuses[i].Slot == esc.Slot {
			current = &statuses[i]
			break
		}
	}
	// The slot may have been resolved (or never dispatched) between the
	// timer being armed and firing. That is the safety net making timer
	// cancellation race-safe, not an error.
	if current == nil || current.Status != reminder.StatusPending {
		logCtx.Debug("Escalation fired for resolved or unknown slot, ignoring.")
		return nil
	}

	messageID, err := s.telegramClient.SendMessage(esc.ChatID, nagText(esc.Slot), sendOptions(buildSlotKeyboard(key)))
	if err != nil {
		logCtx.WithError(err).Warn("Failed to send escalation reminder")
		return nil
	}
	s.tracker.AddMessage(key, messageID)

	if esc.Seq < s.nagLimit {
		s.scheduleEscalation(key, esc.Seq+1)
	} else {
		logCtx.Info("Escalation limit reached, no further reminders for this slot.")
	}
	return nil
}

// ProcessConfirmation resolves the slot as confirmed.
func (s *ReminderServiceImpl) ProcessConfirmation(ctx context.Context, chatID int64, date, slot string, pressedMessageID int) (bool, error) {
	return s.resolveSlot(ctx, chatID, date, slot, pressedMessageID, reminder.StatusConfirmed)
}

// ProcessSkip resolves the slot as skipped.
func (s *ReminderServiceImpl) ProcessSkip(ctx context.Context, chatID int64, date, slot string, pressedMessageID int) (bool, error) {
	return s.resolveSlot(ctx, chatID, date, slot, pressedMessageID, reminder.StatusSkipped)
}

func (s *ReminderServiceImpl) resolveSlot(ctx context.Context, chatID int64, date, slot string, pressedMessageID int, status reminder.Status) (bool, error) {
	key := reminder.SlotKey{ChatID: chatID, Date: date, Slot: slot}
	logCtx := s.logger.WithFields(logrus.Fields{"slot_key": key.String(), "resolution": string(status)})
	now := s.now()

	var (
		resolved bool
		err      error
	)
	if status == reminder.StatusConfirmed {
		resolved, err = s.statusRepo.MarkConfirmed(ctx, key.DayKey(), slot, now)
	} else {
		resolved, err = s.statusRepo.MarkSkipped(ctx, key.DayKey(), slot, now)
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve slot: %w", err)
	}
	if !resolved {
		logCtx.Debug("Resolution attempted on missing or already resolved slot.")
		return false, nil
	}

	s.cleanupMessages(key, pressedMessageID)

	finalText := skipText
	if status == reminder.StatusConfirmed {
		finalText = pickText(confirmTexts)
	}
	if _, err := s.telegramClient.SendMessage(chatID, finalText, nil); err != nil {
		logCtx.WithError(err).Error("Failed to send resolution notice")
	}
	if pressedMessageID != 0 {
		if err := s.telegramClient.DeleteMessage(chatID, pressedMessageID); err != nil {
			logCtx.WithError(err).WithField("message_id", pressedMessageID).Debug("Failed to delete pressed reminder message")
		}
	}

	s.timers.CancelSlot(key)
	logCtx.Info("Slot resolved")
	return true, nil
}

// cleanupMessages drains the tracker and deletes every reminder message for
// the slot except the one the user pressed. Deletion is best-effort: a
// message may already be gone or too old to delete.
func (s *ReminderServiceImpl) cleanupMessages(key reminder.SlotKey, exceptMessageID int) {
	messageIDs, photo := s.tracker.ClearMessages(key)
	if photo != "" {
		s.logger.WithField("slot_key", key.String()).Debugf("Dropping tracked media reference %s", photo)
	}
	for _, messageID := range messageIDs {
		if messageID == exceptMessageID {
			continue
		}
		if err := s.telegramClient.DeleteMessage(key.ChatID, messageID); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"chat_id":    key.ChatID,
				"message_id": messageID,
			}).Debug("Failed to delete reminder message")
		}
	}
}

func sendOptions(markup *telebot.ReplyMarkup) *telebot.SendOptions {
	return &telebot.SendOptions{ReplyMarkup: markup}
}

// buildSlotKeyboard builds the confirm/skip inline keyboard. The callback
// payload embeds the chat id so a forwarded or stale button can be rejected.
func buildSlotKeyboard(key reminder.SlotKey) *telebot.ReplyMarkup {
	rm := &telebot.ReplyMarkup{}
	chatID := strconv.FormatInt(key.ChatID, 10)
	btnConfirm := rm.Data("✅ Принято", CallbackConfirm, chatID, key.Date, key.Slot)
	btnSkip := rm.Data("⚠️ Пропустить", CallbackSkip, chatID, key.Date, key.Slot)
	rm.Inline(rm.Row(btnConfirm, btnSkip))
	return rm
}
