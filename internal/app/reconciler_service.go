// internal/app/reconciler_service.go
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"ggsel_notification_bot/internal/domain/invoice"
	"ggsel_notification_bot/internal/domain/marketplace"
	domainTelegram "ggsel_notification_bot/internal/domain/telegram"
	idb "ggsel_notification_bot/internal/infra/database" // For repository sentinel errors
)

// ReconcilerService defines the order-reconciliation operations: a one-shot
// startup backfill and the repeatable steady-state cycle the scheduler runs.
type ReconcilerService interface {
	// Backfill records every invoice currently visible in the recent-sales
	// feed as already notified, so history predating this process instance
	// never produces alerts. Runs once, before the first cycle.
	Backfill(ctx context.Context) error
	// RunCycle performs one reconciliation pass over the recent-sales feed.
	RunCycle(ctx context.Context) error
}

// ReconcilerServiceImpl implements ReconcilerService over the marketplace
// client, the invoice ledger and the Telegram notifier.
type ReconcilerServiceImpl struct {
	market          marketplace.Client
	invoiceRepo     invoice.Repository
	telegramClient  domainTelegram.Client
	logger          *logrus.Entry
	adminTelegramID int64
	backfillCount   int
	pollCount       int
}

func NewReconcilerService(
	mc marketplace.Client,
	ir invoice.Repository,
	tc domainTelegram.Client,
	logger *logrus.Entry,
	adminID int64,
	backfillCount int,
	pollCount int,
) *ReconcilerServiceImpl {
	return &ReconcilerServiceImpl{
		market:          mc,
		invoiceRepo:     ir,
		telegramClient:  tc,
		logger:          logger,
		adminTelegramID: adminID,
		backfillCount:   backfillCount,
		pollCount:       pollCount,
	}
}

// Backfill seeds the ledger from the recent-sales window without alerting.
// The feed has no cursor semantics, so anything unseen at boot is treated
// as history rather than a new purchase to announce.
func (s *ReconcilerServiceImpl) Backfill(ctx context.Context) error {
	s.logger.WithField("count", s.backfillCount).Info("Starting backfill pass")

	sales, err := s.market.ListRecentSales(ctx, s.backfillCount)
	if err != nil {
		return fmt.Errorf("backfill: failed to list recent sales: %w", err)
	}

	var created, skipped int
	for _, sale := range sales {
		saleLogger := s.logger.WithField("invoice_id", sale.InvoiceID)

		_, err := s.invoiceRepo.FindByInvoiceID(ctx, sale.InvoiceID)
		if err == nil {
			skipped++
			continue // Already recorded, leave untouched
		}
		if err != idb.ErrInvoiceNotFound {
			// Ledger failures at startup are fatal: the steady-state cycle
			// must not run against an unseeded ledger.
			return fmt.Errorf("backfill: ledger lookup failed for invoice %d: %w", sale.InvoiceID, err)
		}

		detail, err := s.market.GetOrderDetail(ctx, sale.InvoiceID)
		if err != nil {
			saleLogger.WithError(err).Warn("Backfill: could not fetch order detail, skipping invoice")
			continue
		}

		rec := &invoice.Invoice{
			InvoiceID: sale.InvoiceID,
			Status:    detail.Status,
			ItemID:    detail.ItemID,
			Notified:  true, // Suppress alerts for pre-existing history
		}
		if err := s.invoiceRepo.Create(ctx, rec); err != nil {
			if err == idb.ErrDuplicateInvoice {
				skipped++
				continue
			}
			return fmt.Errorf("backfill: failed to create record for invoice %d: %w", sale.InvoiceID, err)
		}
		created++
	}

	s.logger.WithFields(logrus.Fields{
		"created": created,
		"skipped": skipped,
	}).Info("Backfill pass complete")
	return nil
}

// RunCycle reconciles one batch of recent sales against the ledger.
// Invoices are processed in feed order; a failure on one invoice never
// aborts the rest of the batch, the invoice is simply retried next cycle.
func (s *ReconcilerServiceImpl) RunCycle(ctx context.Context) error {
	sales, err := s.market.ListRecentSales(ctx, s.pollCount)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list recent sales, skipping cycle")
		return fmt.Errorf("failed to list recent sales: %w", err)
	}

	for _, sale := range sales {
		if err := s.processSale(ctx, sale); err != nil {
			s.logger.WithError(err).WithField("invoice_id", sale.InvoiceID).
				Warn("Invoice processing failed, will retry next cycle")
		}
	}
	return nil
}

// processSale advances a single invoice's state machine:
// unseen -> recorded (notified=false) -> notified.
func (s *ReconcilerServiceImpl) processSale(ctx context.Context, sale marketplace.Sale) error {
	rec, err := s.invoiceRepo.FindByInvoiceID(ctx, sale.InvoiceID)
	if err == idb.ErrInvoiceNotFound {
		return s.recordNewInvoice(ctx, sale)
	}
	if err != nil {
		return fmt.Errorf("ledger lookup failed: %w", err)
	}

	if rec.Notified {
		return nil // Already handled
	}

	detail, err := s.market.GetOrderDetail(ctx, sale.InvoiceID)
	if err != nil {
		// Not-found and transient errors alike: leave the record unchanged
		// and re-evaluate from durable state next cycle.
		return fmt.Errorf("failed to fetch order detail: %w", err)
	}

	if !detail.Status.AlertWorthy() {
		s.logger.WithFields(logrus.Fields{
			"invoice_id": sale.InvoiceID,
			"status":     detail.Status.String(),
		}).Debug("Invoice not alert-worthy yet, skipping this cycle")
		return nil
	}

	product, err := s.market.GetProductDetail(ctx, rec.ItemID)
	if err != nil {
		return fmt.Errorf("failed to fetch product detail for item %d: %w", rec.ItemID, err)
	}

	text := composeSaleAlert(sale.InvoiceID, detail, product)
	if err := s.telegramClient.SendMessage(s.adminTelegramID, text, &telebot.SendOptions{}); err != nil {
		// Flag stays false; the whole sequence is re-attempted next cycle.
		return fmt.Errorf("failed to send sale alert: %w", err)
	}

	// The only un-closed window is "sent but not yet flagged": a crash here
	// re-sends next cycle. Accepted as a rare duplicate (at-least-once).
	if err := s.invoiceRepo.MarkNotified(ctx, sale.InvoiceID); err != nil {
		return fmt.Errorf("failed to mark invoice notified: %w", err)
	}

	s.logger.WithField("invoice_id", sale.InvoiceID).Info("Sale alert sent, invoice marked notified")
	return nil
}

// recordNewInvoice creates the ledger entry for an invoice seen for the
// first time. No alert is sent here; the record is evaluated for alerting
// from the next cycle's durable state.
func (s *ReconcilerServiceImpl) recordNewInvoice(ctx context.Context, sale marketplace.Sale) error {
	detail, err := s.market.GetOrderDetail(ctx, sale.InvoiceID)
	if err != nil {
		return fmt.Errorf("failed to fetch order detail for new invoice: %w", err)
	}

	rec := &invoice.Invoice{
		InvoiceID: sale.InvoiceID,
		Status:    detail.Status,
		ItemID:    detail.ItemID,
		Notified:  false,
	}
	if err := s.invoiceRepo.Create(ctx, rec); err != nil {
		if err == idb.ErrDuplicateInvoice {
			// Another code path recorded it first; nothing to do.
			return nil
		}
		return fmt.Errorf("failed to create invoice record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": sale.InvoiceID,
		"item_id":    detail.ItemID,
		"status":     detail.Status.String(),
	}).Info("New invoice recorded")
	return nil
}

func composeSaleAlert(invoiceID int64, detail *marketplace.OrderDetail, product *marketplace.ProductDetail) string {
	return fmt.Sprintf(
		"💰 Новая продажа!\n"+
			"Товар: %s\n"+
			"Сумма: %s %s\n"+
			"Прибыль: %s\n"+
			"Покупатель: %s\n"+
			"Инвойс: №%d",
		product.Name,
		detail.Amount.String(), detail.Currency,
		detail.Profit.String(),
		detail.Buyer.Account,
		invoiceID,
	)
}
