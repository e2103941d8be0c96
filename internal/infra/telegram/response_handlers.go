// internal/infra/telegram/response_handlers.go
package telegram

import (
	"context"
	"strconv"

	"med_reminder_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const staleButtonText = "Кнопка больше неактуальна."

// RegisterResponseHandlers wires the inline-button callbacks: confirm/skip
// resolution and calendar week navigation.
func RegisterResponseHandlers(
	ctx context.Context,
	b *telebot.Bot,
	reminderService app.ReminderService,
	baseLogger *logrus.Entry,
) {
	callbackLogger := baseLogger.WithField("handler_group", "callbacks")

	btnConfirm := telebot.Btn{Unique: app.CallbackConfirm}
	b.Handle(&btnConfirm, resolutionHandler(ctx, reminderService, callbackLogger, true))

	btnSkip := telebot.Btn{Unique: app.CallbackSkip}
	b.Handle(&btnSkip, resolutionHandler(ctx, reminderService, callbackLogger, false))

	btnCalWeek := telebot.Btn{Unique: app.CallbackCalendarWeek}
	b.Handle(&btnCalWeek, func(c telebot.Context) error {
		args := c.Args()
		if len(args) != 1 {
			return c.Respond(&telebot.CallbackResponse{Text: "Ошибка навигации."})
		}
		weekOffset, err := strconv.Atoi(args[0])
		if err != nil {
			return c.Respond(&telebot.CallbackResponse{Text: "Ошибка навигации."})
		}
		chat := c.Chat()
		if chat == nil {
			return c.Respond(&telebot.CallbackResponse{Text: "Ошибка навигации."})
		}

		text, markup, err := reminderService.BuildCalendar(ctx, chat.ID, weekOffset)
		if err != nil {
			callbackLogger.WithError(err).WithField("chat_id", chat.ID).Error("Failed to build calendar page")
			return c.Respond(&telebot.CallbackResponse{Text: "Произошла ошибка."})
		}
		if err := c.Edit(text, markup); err != nil {
			callbackLogger.WithError(err).WithField("chat_id", chat.ID).Debug("Failed to edit calendar message")
		}
		return c.Respond()
	})

	btnCalNoop := telebot.Btn{Unique: app.CallbackCalendarNoop}
	b.Handle(&btnCalNoop, func(c telebot.Context) error {
		return c.Respond()
	})
}

// resolutionHandler processes a confirm or skip button press. The payload is
// "{chatID}|{date}|{slot}"; the pressing chat must match the embedded chat
// id, otherwise the button is treated as stale.
func resolutionHandler(
	ctx context.Context,
	reminderService app.ReminderService,
	logger *logrus.Entry,
	confirm bool,
) telebot.HandlerFunc {
	action := "skip"
	if confirm {
		action = "confirm"
	}
	return func(c telebot.Context) error {
		logCtx := logger.WithField("action", action)

		args := c.Args()
		if len(args) != 3 {
			logCtx.WithField("args_count", len(args)).Warn("Malformed callback payload")
			return c.Respond(&telebot.CallbackResponse{Text: "Некорректные данные кнопки."})
		}
		chatID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			logCtx.WithField("raw_chat_id", args[0]).Warn("Malformed chat id in callback payload")
			return c.Respond(&telebot.CallbackResponse{Text: "Некорректные данные кнопки."})
		}
		date, slot := args[1], args[2]
		logCtx = logCtx.WithFields(logrus.Fields{"chat_id": chatID, "date": date, "slot": slot})

		if c.Chat() == nil || c.Chat().ID != chatID {
			logCtx.Warn("Callback pressed in a different chat, rejecting as stale")
			return c.Respond(&telebot.CallbackResponse{Text: staleButtonText, ShowAlert: true})
		}

		pressedMessageID := 0
		if c.Callback() != nil && c.Callback().Message != nil {
			pressedMessageID = c.Callback().Message.ID
		}

		var resolved bool
		if confirm {
			resolved, err = reminderService.ProcessConfirmation(ctx, chatID, date, slot, pressedMessageID)
		} else {
			resolved, err = reminderService.ProcessSkip(ctx, chatID, date, slot, pressedMessageID)
		}
		if err != nil {
			logCtx.WithError(err).Error("Failed to process resolution")
			return c.Respond(&telebot.CallbackResponse{Text: "Произошла ошибка."})
		}
		if !resolved {
			return c.Respond(&telebot.CallbackResponse{Text: staleButtonText, ShowAlert: true})
		}
		if confirm {
			return c.Respond(&telebot.CallbackResponse{Text: "Принято!"})
		}
		return c.Respond(&telebot.CallbackResponse{Text: "Отмечено как пропущенное."})
	}
}
