// internal/domain/marketplace/models.go
package marketplace

import (
	"time"

	"github.com/shopspring/decimal"

	"ggsel_notification_bot/internal/domain/invoice"
)

// SaleProduct is the product snapshot embedded in a recent-sales entry.
type SaleProduct struct {
	ID       int64
	Name     string
	PriceRUB decimal.Decimal
	PriceUSD decimal.Decimal
	PriceEUR decimal.Decimal
}

// Sale is one entry of the recent-sales feed.
type Sale struct {
	InvoiceID int64
	Date      time.Time
	Product   SaleProduct
}

// Buyer carries the purchaser details attached to an order.
type Buyer struct {
	Account       string
	Email         string
	PaymentMethod string
}

// OrderDetail is the authoritative per-invoice state returned by the
// order info API.
type OrderDetail struct {
	ItemID   int64
	Name     string
	Amount   decimal.Decimal
	Currency string
	Status   invoice.OrderStatus
	Profit   decimal.Decimal
	Date     time.Time
	DatePay  *time.Time
	Buyer    Buyer
}

// ProductDetail describes a single product the seller offers.
type ProductDetail struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Currency string
	URL      string
}

// ProductListing is a row of the seller's product list.
type ProductListing struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Currency string
	InStock  int
}
