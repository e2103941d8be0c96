// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"strconv"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the domain telegram.Client interface using the
// gopkg.in/telebot.v3 library. Outgoing sends are throttled below Telegram's
// global bot limit (~30 messages per second) so broadcasts and reminder
// fan-out do not trip rate-limit errors.
type TelebotAdapter struct {
	bot     *telebot.Bot
	limiter *rate.Limiter
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(25), 5),
	}
}

// SendMessage sends a text message and returns the sent message ID.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) (int, error) {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	if err := tba.limiter.Wait(context.Background()); err != nil {
		return 0, err
	}

	recipient := &telebot.User{ID: recipientChatID}
	msg, err := tba.bot.Send(recipient, text, options)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// DeleteMessage removes a previously sent message.
func (tba *TelebotAdapter) DeleteMessage(recipientChatID int64, messageID int) error {
	return tba.bot.Delete(&telebot.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    recipientChatID,
	})
}
