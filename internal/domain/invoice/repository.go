// internal/domain/invoice/repository.go
package invoice

import "context"

// Repository defines the operations for persisting and retrieving Invoice
// records. The ledger is append-mostly: records are created once, their
// notified flag is set exactly once, and nothing is ever deleted here.
type Repository interface {
	// FindByInvoiceID returns the record for a marketplace invoice ID.
	// Returns the repository's not-found error when no record exists.
	FindByInvoiceID(ctx context.Context, invoiceID int64) (*Invoice, error)
	// Create inserts a new record. Fails with the repository's duplicate
	// error when a record for the same invoice ID already exists.
	Create(ctx context.Context, inv *Invoice) error
	// MarkNotified sets the notified flag for an invoice. The flag is never
	// reset.
	MarkNotified(ctx context.Context, invoiceID int64) error
}
