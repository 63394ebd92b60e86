// internal/app/delivery_service.go
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"ggsel_notification_bot/internal/domain/marketplace"
	domainTelegram "ggsel_notification_bot/internal/domain/telegram"
)

// ErrUnknownGame is returned for a game identifier outside the supported set.
var ErrUnknownGame = errors.New("unknown game identifier")

// ErrPinAuthRejected is returned by the pin-auth collaborator when the
// request went through but the identity service declined to send a code.
var ErrPinAuthRejected = errors.New("pin authentication request rejected")

// CaptchaSolver produces a reCAPTCHA solution token for a game's mobile app.
type CaptchaSolver interface {
	Solve(ctx context.Context, game string) (string, error)
}

// PinAuthClient starts an email pin authentication for a game account.
// Returns ErrPinAuthRejected when the upstream answers with ok=false.
type PinAuthClient interface {
	StartPinAuth(ctx context.Context, game, email, captchaToken string) error
}

const buyerRequestFailedText = "Здравствуйте! К сожалению, нам не удалось сформировать запрос на отправку кода :(\n" +
	"Подождите ответа продавца"

// DeliveryService drives the automated email-code flow for game-account
// orders: solve a captcha, ask the identity service to mail a login code,
// then report the outcome to the buyer's chat and to the admin.
type DeliveryService struct {
	captcha         CaptchaSolver
	pinAuth         PinAuthClient
	market          marketplace.Client
	telegramClient  domainTelegram.Client
	logger          *logrus.Entry
	adminTelegramID int64
}

func NewDeliveryService(
	cs CaptchaSolver,
	pa PinAuthClient,
	mc marketplace.Client,
	tc domainTelegram.Client,
	logger *logrus.Entry,
	adminID int64,
) *DeliveryService {
	return &DeliveryService{
		captcha:         cs,
		pinAuth:         pa,
		market:          mc,
		telegramClient:  tc,
		logger:          logger,
		adminTelegramID: adminID,
	}
}

// SupportedGame reports whether the delivery flow knows the game identifier.
func SupportedGame(game string) bool {
	switch game {
	case "scroll", "laser", "magic":
		return true
	}
	return false
}

// SendVerificationCode runs the full flow for one order. The returned error
// reflects the final outcome; buyer and admin are informed along the way
// regardless, so callers only need to log it.
func (s *DeliveryService) SendVerificationCode(ctx context.Context, game, email string, invoiceID int64) error {
	flowLogger := s.logger.WithFields(logrus.Fields{
		"game":       game,
		"invoice_id": invoiceID,
	})

	if !SupportedGame(game) {
		return fmt.Errorf("%w: %s", ErrUnknownGame, game)
	}

	solution, err := s.captcha.Solve(ctx, game)
	if err != nil {
		flowLogger.WithError(err).Error("Captcha solving failed")
		s.notifyBuyer(ctx, invoiceID, buyerRequestFailedText)
		s.notifyAdmin("Капча не создана")
		return fmt.Errorf("captcha solving failed: %w", err)
	}

	err = s.pinAuth.StartPinAuth(ctx, game, email, solution)
	if err != nil {
		if errors.Is(err, ErrPinAuthRejected) {
			flowLogger.Warn("Identity service declined the pin auth request")
			s.notifyBuyer(ctx, invoiceID, buyerRequestFailedText)
			s.notifyAdmin("Суперы забраковали")
			return err
		}
		flowLogger.WithError(err).Error("Pin auth request failed")
		s.notifyBuyer(ctx, invoiceID, buyerRequestFailedText)
		s.notifyAdmin("Не удалось отправить запрос на код")
		return fmt.Errorf("pin auth request failed: %w", err)
	}

	successText := fmt.Sprintf("Здравствуйте! На указанную вами почту «%s» автоматически был отправлен код для входа в игру.\n"+
		"Отправьте его в чат, в ближайшее время оператор зайдет в аккаунт и доставит товар.\n"+
		"Если код не пришел, напишите в чате, отправим вручную повторно", email)
	s.notifyBuyer(ctx, invoiceID, successText)
	s.notifyAdmin("Код успешно отправлен")
	flowLogger.Info("Verification code requested successfully")
	return nil
}

func (s *DeliveryService) notifyBuyer(ctx context.Context, invoiceID int64, text string) {
	if err := s.market.SendChatMessage(ctx, invoiceID, text); err != nil {
		s.logger.WithError(err).WithField("invoice_id", invoiceID).
			Error("Failed to send message to buyer chat")
	}
}

func (s *DeliveryService) notifyAdmin(text string) {
	if err := s.telegramClient.SendMessage(s.adminTelegramID, text, nil); err != nil {
		s.logger.WithError(err).Error("Failed to notify admin")
	}
}
