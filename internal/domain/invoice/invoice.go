// internal/domain/invoice/invoice.go
package invoice

import "time"

// Invoice is the persisted reconciliation state for a single marketplace order.
// Corresponds to the 'invoices' table.
type Invoice struct {
	ID        int64       // SERIAL in DB
	InvoiceID int64       // Marketplace-assigned identifier, unique
	Status    OrderStatus // Last status observed via the order detail API
	ItemID    int64       // Product the order was created for
	Notified  bool        // True once an alert has been dispatched for this invoice
	CreatedAt time.Time   // First local observation
}
