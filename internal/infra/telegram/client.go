// internal/infra/telegram/client.go
package telegram

import (
	"fmt"
	"time"

	"gopkg.in/telebot.v3"
)

const (
	sendAttempts  = 3
	sendRetryWait = 3 * time.Second
)

// TelebotAdapter implements the domain telegram.Client interface using the
// gopkg.in/telebot.v3 library. Retry lives here, not in callers: the
// notifier contract is best-effort with a bounded internal retry.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient, retrying up
// to three times with a fixed backoff before giving up.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.User{ID: recipientChatID}
	var lastErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		_, lastErr = tba.bot.Send(recipient, text, options)
		if lastErr == nil {
			return nil
		}
		if attempt < sendAttempts {
			time.Sleep(sendRetryWait)
		}
	}
	return fmt.Errorf("telegram send failed after %d attempts: %w", sendAttempts, lastErr)
}
