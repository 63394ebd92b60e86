// internal/infra/web/server.go
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ggsel_notification_bot/internal/domain/marketplace"
	domainTelegram "ggsel_notification_bot/internal/domain/telegram"
)

// productsPageSize is how many products one lookup page holds. The seller
// catalogue is small; a couple of pages cover it.
const productsPageSize = 100
const maxProductPages = 10

// PurchaseNotification is the payload the marketplace pushes on a purchase.
type PurchaseNotification struct {
	InvoiceID   int64  `json:"ID_I" binding:"required"`
	ProductID   int64  `json:"ID_D" binding:"required"`
	Amount      int64  `json:"Amount" binding:"required"`
	Currency    string `json:"Currency" binding:"required"`
	Email       string `json:"email"`
	Date        string `json:"Date"`
	SHA256      string `json:"SHA256"`
	IsMyProduct bool   `json:"ISMYPRODUCT"`
}

// Server hosts the purchase webhook endpoint.
type Server struct {
	httpServer      *http.Server
	market          marketplace.Client
	telegramClient  domainTelegram.Client
	logger          *logrus.Entry
	adminTelegramID int64
}

func NewServer(
	listenAddr string,
	mc marketplace.Client,
	tc domainTelegram.Client,
	logger *logrus.Entry,
	adminID int64,
	environment string,
) *Server {
	if environment == "production" || environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		market:          mc,
		telegramClient:  tc,
		logger:          logger,
		adminTelegramID: adminID,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/", s.handleIndex)
	router.POST("/notification", s.handleNotification)

	s.httpServer = &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}
	return s
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Webhook server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.String(http.StatusOK, "welcome")
}

// handleNotification accepts a marketplace purchase push. The payload is
// only trusted once the referenced product is found in the seller's own
// catalogue; anything else gets a 403.
func (s *Server) handleNotification(c *gin.Context) {
	var notif PurchaseNotification
	if err := c.ShouldBindJSON(&notif); err != nil {
		s.logger.WithError(err).Warn("Malformed purchase notification")
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	reqLogger := s.logger.WithFields(logrus.Fields{
		"invoice_id": notif.InvoiceID,
		"product_id": notif.ProductID,
	})

	product, err := s.findOwnProduct(c.Request.Context(), notif.ProductID)
	if err != nil {
		reqLogger.WithError(err).Error("Failed to verify product ownership")
		c.String(http.StatusBadGateway, "try again later")
		return
	}
	if product == nil {
		reqLogger.Warn("Notification for a product the seller does not own")
		c.String(http.StatusForbidden, "who are you?")
		return
	}

	text := fmt.Sprintf("Афигеть! Какой-то кельпастник купил %s!\n"+
		"Выдай ему товар\n"+
		"Дополнительная информация: инвойс №%d, %d %s, почта %s",
		product.Name, notif.InvoiceID, notif.Amount, notif.Currency, notif.Email)
	if err := s.telegramClient.SendMessage(s.adminTelegramID, text, nil); err != nil {
		reqLogger.WithError(err).Error("Failed to forward purchase notification to admin")
		c.String(http.StatusBadGateway, "try again later")
		return
	}

	reqLogger.Info("Purchase notification forwarded to admin")
	c.String(http.StatusOK, "ok")
}

// findOwnProduct pages through the seller's product list looking for the
// given product ID. Returns nil without error when the product is not ours.
func (s *Server) findOwnProduct(ctx context.Context, productID int64) (*marketplace.ProductListing, error) {
	for page := 1; page <= maxProductPages; page++ {
		listings, err := s.market.ListProducts(ctx, page, productsPageSize)
		if err != nil {
			return nil, err
		}
		for i := range listings {
			if listings[i].ID == productID {
				return &listings[i], nil
			}
		}
		if len(listings) < productsPageSize {
			return nil, nil // Last page reached
		}
	}
	return nil, nil
}

// ShutdownTimeout is the grace period main gives the server on exit.
const ShutdownTimeout = 5 * time.Second
