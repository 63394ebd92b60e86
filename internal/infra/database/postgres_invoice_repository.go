// internal/infra/database/postgres_invoice_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq" // For pq.Error unique-violation detection

	"ggsel_notification_bot/internal/domain/invoice"
)

// Custom errors specific to the invoice repository
var ErrInvoiceNotFound = fmt.Errorf("invoice record not found")
var ErrDuplicateInvoice = fmt.Errorf("duplicate invoice record (invoice_id)")

const pqUniqueViolation = "23505"

type PostgresInvoiceRepository struct {
	db *sql.DB
}

func NewPostgresInvoiceRepository(db *sql.DB) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{db: db}
}

func (r *PostgresInvoiceRepository) FindByInvoiceID(ctx context.Context, invoiceID int64) (*invoice.Invoice, error) {
	query := `SELECT id, invoice_id, status, item_id, notified, created_at
               FROM invoices WHERE invoice_id = $1`
	inv := invoice.Invoice{}
	err := r.db.QueryRowContext(ctx, query, invoiceID).Scan(
		&inv.ID, &inv.InvoiceID, &inv.Status, &inv.ItemID, &inv.Notified, &inv.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("error getting invoice record by invoice ID: %w", err)
	}
	return &inv, nil
}

func (r *PostgresInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `INSERT INTO invoices (invoice_id, status, item_id, notified)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, inv.InvoiceID, inv.Status, inv.ItemID, inv.Notified).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateInvoice
		}
		return fmt.Errorf("error creating invoice record: %w", err)
	}
	return nil
}

func (r *PostgresInvoiceRepository) MarkNotified(ctx context.Context, invoiceID int64) error {
	query := `UPDATE invoices SET notified = TRUE WHERE invoice_id = $1`
	res, err := r.db.ExecContext(ctx, query, invoiceID)
	if err != nil {
		return fmt.Errorf("error marking invoice %d notified: %w", invoiceID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected for invoice %d: %w", invoiceID, err)
	}
	if affected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}
