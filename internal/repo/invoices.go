package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-bazaar/internal/invoice"
)

const invoiceColumns = `id, invoice_number, user_id, order_id, currency, subtotal,
	tax_amount, discount_amount, total_amount, notes, issued_at`

func scanInvoice(row interface{ Scan(...any) error }) (invoice.Invoice, error) {
	var inv invoice.Invoice
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.UserID, &inv.OrderID, &inv.Currency, &inv.Subtotal,
		&inv.TaxAmount, &inv.DiscountAmount, &inv.TotalAmount, &inv.Notes, &inv.IssuedAt,
	)
	return inv, err
}

// InsertInvoice persists an issued invoice.
func (q *Queries) InsertInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO invoices (
			id, invoice_number, user_id, order_id, currency, subtotal,
			tax_amount, discount_amount, total_amount, notes, issued_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+invoiceColumns,
		inv.ID, inv.InvoiceNumber, inv.UserID, inv.OrderID, inv.Currency, inv.Subtotal,
		inv.TaxAmount, inv.DiscountAmount, inv.TotalAmount, inv.Notes, inv.IssuedAt,
	)
	created, err := scanInvoice(row)
	return created, translateError(err)
}

const invoiceLineColumns = `id, invoice_id, service_id, name, quantity, unit_price, line_total`

func scanInvoiceLine(row interface{ Scan(...any) error }) (invoice.Line, error) {
	var l invoice.Line
	err := row.Scan(&l.ID, &l.InvoiceID, &l.ServiceID, &l.Name, &l.Quantity, &l.UnitPrice, &l.LineTotal)
	return l, err
}

// InsertInvoiceLine persists one billed line.
func (q *Queries) InsertInvoiceLine(ctx context.Context, l invoice.Line) (invoice.Line, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO invoice_lines (id, invoice_id, service_id, name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+invoiceLineColumns,
		l.ID, l.InvoiceID, l.ServiceID, l.Name, l.Quantity, l.UnitPrice, l.LineTotal,
	)
	created, err := scanInvoiceLine(row)
	return created, translateError(err)
}

// GetInvoice loads one invoice by id.
func (q *Queries) GetInvoice(ctx context.Context, id uuid.UUID) (invoice.Invoice, error) {
	row := q.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

// ListInvoiceLines returns the lines of one invoice.
func (q *Queries) ListInvoiceLines(ctx context.Context, invoiceID uuid.UUID) ([]invoice.Line, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+invoiceLineColumns+` FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY name`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []invoice.Line
	for rows.Next() {
		l, err := scanInvoiceLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListInvoicesByUser pages a user's invoices, newest first.
func (q *Queries) ListInvoicesByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]invoice.Invoice, int64, error) {
	var total int64
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.db.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE user_id = $1
		ORDER BY issued_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []invoice.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}
