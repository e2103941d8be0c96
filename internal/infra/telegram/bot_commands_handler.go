// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"med_reminder_bot/internal/app"
	"med_reminder_bot/internal/domain/reminder"
	"med_reminder_bot/internal/domain/subscriber"
	"med_reminder_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const notSubscribedText = "Вы ещё не подписаны на напоминания. 😊\n" +
	"Отправьте /start, чтобы включить их."

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	cfg *config.AppConfig,
	subscriberRepo subscriber.Repository,
	statusRepo reminder.Repository,
	reminderService app.ReminderService,
	baseLogger *logrus.Entry,
) {
	commandsLogger := baseLogger.WithField("handler_group", "bot_commands")
	timesText := strings.Join(cfg.SlotLabels(), ", ")

	b.Handle("/start", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := commandsLogger.WithField("command", "/start").WithField("chat_id", chatID)
		logCtx.Info("Processing /start command")

		isNew, err := subscriberRepo.Contains(ctx, chatID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check subscription")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		isNew = !isNew
		if err := subscriberRepo.Add(ctx, chatID); err != nil {
			logCtx.WithError(err).Error("Failed to add subscriber")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}

		header := "💊 Привет!"
		if !isNew {
			header = "✨ Настройки обновлены!"
		}
		return c.Send(fmt.Sprintf(
			"%s\n\n"+
				"Я буду напоминать о приёме таблеток каждый день в %s.\n"+
				"Если не ответить на напоминание, я повторю его каждые %d минут в течение часа.\n\n"+
				"Команды:\n"+
				"/status — как идут дела сегодня\n"+
				"/calendar — календарь со статистикой\n"+
				"/test — проверить, как работают напоминания\n"+
				"/stop — отключить напоминания",
			header, timesText, int(cfg.NagDelay.Minutes())))
	})

	b.Handle("/stop", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := commandsLogger.WithField("command", "/stop").WithField("chat_id", chatID)
		logCtx.Info("Processing /stop command")

		subscribed, err := subscriberRepo.Contains(ctx, chatID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check subscription")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		if !subscribed {
			return c.Send(notSubscribedText)
		}
		if err := subscriberRepo.Remove(ctx, chatID); err != nil {
			logCtx.WithError(err).Error("Failed to remove subscriber")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		return c.Send("😢 Хорошо, напоминания отключены.\n" +
			"Если передумаете, просто отправьте /start.")
	})

	b.Handle("/status", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := commandsLogger.WithField("command", "/status").WithField("chat_id", chatID)
		logCtx.Info("Processing /status command")

		subscribed, err := subscriberRepo.Contains(ctx, chatID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check subscription")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		if !subscribed {
			return c.Send(notSubscribedText)
		}

		todayKey := reminder.MakeDayKey(chatID, time.Now().In(cfg.Location).Format("2006-01-02"))
		statuses, err := statusRepo.ListDay(ctx, todayKey)
		if err != nil {
			logCtx.WithError(err).Error("Failed to list today's statuses")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		if len(statuses) == 0 {
			return c.Send("Сегодня напоминаний ещё не было. ☀️")
		}
		return c.Send(renderDayStatus(statuses))
	})

	b.Handle("/calendar", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := commandsLogger.WithField("command", "/calendar").WithField("chat_id", chatID)
		logCtx.Info("Processing /calendar command")

		subscribed, err := subscriberRepo.Contains(ctx, chatID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check subscription")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		if !subscribed {
			return c.Send(notSubscribedText)
		}

		text, markup, err := reminderService.BuildCalendar(ctx, chatID, 0)
		if err != nil {
			logCtx.WithError(err).Error("Failed to build calendar")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		return c.Send(text, markup)
	})

	b.Handle("/test", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := commandsLogger.WithField("command", "/test").WithField("chat_id", chatID)
		logCtx.Info("Processing /test command")

		subscribed, err := subscriberRepo.Contains(ctx, chatID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check subscription")
			return c.Send("Произошла ошибка. Пожалуйста, попробуйте позже.")
		}
		if !subscribed {
			return c.Send(notSubscribedText)
		}

		slot := "TEST-" + time.Now().In(cfg.Location).Format("15:04")
		if err := reminderService.DispatchTest(ctx, chatID, slot); err != nil {
			logCtx.WithError(err).Error("Failed to dispatch test reminder")
			return c.Send("Не удалось отправить тестовое напоминание.")
		}
		return nil
	})
}

func renderDayStatus(statuses []reminder.SlotStatus) string {
	var b strings.Builder
	b.WriteString("💊 Как дела с таблетками сегодня:\n\n")
	for _, item := range statuses {
		var emoji, statusText string
		switch item.Status {
		case reminder.StatusPending:
			emoji, statusText = "⏳", "жду ответа"
		case reminder.StatusConfirmed:
			emoji, statusText = "✅", "принято"
		case reminder.StatusSkipped:
			emoji, statusText = "⚠️", "пропущено"
		default:
			emoji, statusText = "❔", string(item.Status)
		}
		b.WriteString(fmt.Sprintf("%s %s — %s\n", emoji, item.Slot, statusText))
	}
	return b.String()
}
