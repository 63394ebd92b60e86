// internal/domain/marketplace/client.go
package marketplace

import (
	"context"
	"errors"
)

// ErrOrderNotFound is returned when the marketplace does not know the
// invoice. The reconciliation loop treats it as transient: the feed and
// the detail API are eventually consistent with each other.
var ErrOrderNotFound = errors.New("marketplace: order not found")

// Client is the narrow contract the application consumes from the
// marketplace API. Credential lifecycle (login, token renewal) is entirely
// the implementation's concern and invisible to callers.
type Client interface {
	// ListRecentSales returns up to limit entries of the recent-sales feed,
	// in feed order.
	ListRecentSales(ctx context.Context, limit int) ([]Sale, error)
	// GetOrderDetail fetches authoritative order state for an invoice.
	// Returns ErrOrderNotFound when the invoice is unknown upstream.
	GetOrderDetail(ctx context.Context, invoiceID int64) (*OrderDetail, error)
	// GetProductDetail fetches a single product's details.
	GetProductDetail(ctx context.Context, itemID int64) (*ProductDetail, error)
	// ListProducts returns one page of the seller's product list.
	ListProducts(ctx context.Context, page, count int) ([]ProductListing, error)
	// SendChatMessage posts a message into the order's buyer chat.
	SendChatMessage(ctx context.Context, invoiceID int64, text string) error
}
