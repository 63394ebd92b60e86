package telegram

import "gopkg.in/telebot.v3"

// Client defines an interface for delivering alerts via a Telegram bot.
// Delivery is best-effort; the implementation owns its own bounded retry
// policy, callers do not re-wrap sends in retries.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
