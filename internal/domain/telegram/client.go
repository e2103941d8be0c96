package telegram

import "gopkg.in/telebot.v3"

// Client defines an interface for sending and deleting messages via a
// Telegram bot. This helps in decoupling the application logic from the
// specific bot library.
type Client interface {
	// SendMessage sends a text message and returns the sent message ID,
	// which the caller may track for later cleanup.
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) (int, error)

	// DeleteMessage removes a previously sent message. Failures are
	// expected to be treated as best-effort by callers.
	DeleteMessage(recipientChatID int64, messageID int) error
}
