// internal/infra/telegram/handlers.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"ggsel_notification_bot/internal/app"
)

// RegisterHandlers registers the bot's command handlers. All commands are
// admin-only: this bot talks to exactly one operator.
func RegisterHandlers(
	ctx context.Context,
	b *telebot.Bot,
	deliveryService *app.DeliveryService,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	b.Handle("/start", func(c telebot.Context) error {
		if c.Sender().ID != adminTelegramID {
			return c.Send("Ошибка: У вас нет прав для использования этого бота.")
		}
		return c.Send(fmt.Sprintf("Привет, %s! Я слежу за продажами и пришлю уведомление о каждом оплаченном заказе. /help для списка команд.", c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		if c.Sender().ID != adminTelegramID {
			return c.Send("Ошибка: У вас нет прав для использования этого бота.")
		}
		var helpText strings.Builder
		helpText.WriteString("Доступные команды:\n\n")
		helpText.WriteString("`/send_code <игра> <email> <invoice_id>`\n - Запросить автоматическую отправку кода входа на почту покупателя. Игры: scroll, laser, magic.\n\n")
		helpText.WriteString("`/help`\n - Показать это справочное сообщение.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/send_code", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/send_code",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		if deliveryService == nil {
			handlerLogger.Warn("Delivery flow is not configured")
			return c.Send("Ошибка: Автовыдача кодов не настроена (нет CAPTCHA_TOKEN).")
		}

		args := c.Args()
		// Expected format: /send_code <game> <email> <invoice_id>
		if len(args) != 3 {
			handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("Неверный формат команды. Используйте: /send_code <игра> <email> <invoice_id>")
		}

		game := strings.ToLower(args[0])
		if !app.SupportedGame(game) {
			return c.Send("Ошибка: Неизвестная игра. Доступны: scroll, laser, magic.")
		}

		email := args[1]
		if !strings.Contains(email, "@") {
			return c.Send("Ошибка: Некорректный email.")
		}

		invoiceID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			handlerLogger.WithField("arg", args[2]).Warn("Invalid invoice ID format")
			return c.Send("Ошибка: invoice_id должен быть числом.")
		}

		// The flow takes tens of seconds (captcha solving); run it off the
		// handler goroutine so the poller is not blocked.
		go func() {
			if err := deliveryService.SendVerificationCode(ctx, game, email, invoiceID); err != nil {
				handlerLogger.WithError(err).WithField("invoice_id", invoiceID).
					Error("Verification code flow failed")
			}
		}()

		return c.Send(fmt.Sprintf("Запрос кода для инвойса №%d принят, результат пришлю отдельным сообщением.", invoiceID))
	})
}
