package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"med_reminder_bot/internal/app"
	"med_reminder_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const adminDeniedText = "Ошибка: У вас нет прав для выполнения этой команды."

// RegisterAdminHandlers registers handlers for admin commands.
func RegisterAdminHandlers(
	ctx context.Context,
	b *telebot.Bot,
	adminService *app.AdminService,
	reminderService app.ReminderService,
	cfg *config.AppConfig,
	baseLogger *logrus.Entry,
) {
	adminLogger := baseLogger.WithField("handler_group", "admin")

	b.Handle("/admin", func(c telebot.Context) error {
		if !adminService.IsAdmin(c.Sender().ID) {
			adminLogger.WithField("sender_id", c.Sender().ID).Warn("Unauthorized /admin attempt")
			return c.Send(adminDeniedText)
		}
		return c.Send("🔧 Админские команды:\n\n" +
			"/admin — это меню\n" +
			"/atest — тестовое напоминание\n" +
			"/atest_nag — тестовое повторное напоминание\n" +
			"/astatus — статус бота и подписчиков\n" +
			"/asubs — список подписчиков\n" +
			"/abroadcast <текст> — сообщение всем подписчикам")
	})

	b.Handle("/atest", func(c telebot.Context) error {
		handlerLogger := adminLogger.WithFields(logrus.Fields{"handler": "/atest", "sender_id": c.Sender().ID})
		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(adminDeniedText)
		}
		handlerLogger.Info("Command received")

		slot := "TEST-" + time.Now().In(cfg.Location).Format("15:04:05")
		if err := reminderService.DispatchTest(ctx, c.Chat().ID, slot); err != nil {
			handlerLogger.WithError(err).Error("Failed to dispatch admin test reminder")
			return c.Send("Не удалось отправить тестовое напоминание.")
		}
		return c.Send("✅ Тестовое напоминание отправлено!")
	})

	b.Handle("/atest_nag", func(c telebot.Context) error {
		handlerLogger := adminLogger.WithFields(logrus.Fields{"handler": "/atest_nag", "sender_id": c.Sender().ID})
		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(adminDeniedText)
		}
		handlerLogger.Info("Command received")

		now := time.Now().In(cfg.Location)
		slot := "NAG-" + now.Format("15:04:05")
		chatID := c.Chat().ID
		if err := reminderService.DispatchTest(ctx, chatID, slot); err != nil {
			handlerLogger.WithError(err).Error("Failed to dispatch test reminder for nag")
			return c.Send("Не удалось отправить тестовое напоминание.")
		}
		// Fire one escalation immediately at the final sequence number, so no
		// further timers get armed for it.
		esc := app.Escalation{ChatID: chatID, Date: now.Format("2006-01-02"), Slot: slot, Seq: cfg.NagLimit}
		if err := reminderService.ProcessEscalation(ctx, esc); err != nil {
			handlerLogger.WithError(err).Error("Failed to send test nag")
			return c.Send("Не удалось отправить повторное напоминание.")
		}
		return c.Send("✅ Отправлено повторное напоминание")
	})

	b.Handle("/astatus", func(c telebot.Context) error {
		handlerLogger := adminLogger.WithFields(logrus.Fields{"handler": "/astatus", "sender_id": c.Sender().ID})
		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(adminDeniedText)
		}

		subscribers, err := adminService.ListSubscribers(ctx, c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list subscribers")
			return c.Send("Произошла ошибка.")
		}
		now := time.Now().In(cfg.Location)
		return c.Send(fmt.Sprintf(
			"📊 Статус бота:\n\n"+
				"👥 Подписчиков: %d\n"+
				"⏰ Времена напоминаний: %s\n"+
				"🌍 Часовой пояс: %s\n"+
				"📅 Сейчас: %s",
			len(subscribers),
			strings.Join(cfg.SlotLabels(), ", "),
			cfg.TimezoneName,
			now.Format("2006-01-02 15:04:05")))
	})

	b.Handle("/asubs", func(c telebot.Context) error {
		handlerLogger := adminLogger.WithFields(logrus.Fields{"handler": "/asubs", "sender_id": c.Sender().ID})
		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(adminDeniedText)
		}

		subscribers, err := adminService.ListSubscribers(ctx, c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list subscribers")
			return c.Send("Произошла ошибка.")
		}
		if len(subscribers) == 0 {
			return c.Send("📭 Подписчиков пока нет.")
		}
		var b strings.Builder
		b.WriteString("👥 Подписчики:\n\n")
		for _, chatID := range subscribers {
			b.WriteString(fmt.Sprintf("• %d\n", chatID))
		}
		return c.Send(b.String())
	})

	b.Handle("/abroadcast", func(c telebot.Context) error {
		handlerLogger := adminLogger.WithFields(logrus.Fields{"handler": "/abroadcast", "sender_id": c.Sender().ID})
		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(adminDeniedText)
		}

		text := strings.TrimSpace(strings.Join(c.Args(), " "))
		if text == "" {
			return c.Send("Укажите текст: /abroadcast Привет всем!")
		}
		sent, total, err := adminService.Broadcast(ctx, c.Sender().ID, text)
		if err != nil {
			handlerLogger.WithError(err).Error("Broadcast failed")
			return c.Send("Произошла ошибка.")
		}
		handlerLogger.WithFields(logrus.Fields{"sent": sent, "total": total}).Info("Broadcast completed")
		return c.Send(fmt.Sprintf("✅ Отправлено %d/%d подписчикам", sent, total))
	})
}
