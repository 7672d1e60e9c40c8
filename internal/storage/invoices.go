package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const invoiceColumns = `id, user_id, amount_cents, pay_currency, status, address, provider_id, invoice_url, expires_at, created_at`

// CreateInvoice persists a new invoice. The caller assigns ID and status.
func (s *Storage) CreateInvoice(ctx context.Context, inv *Invoice) error {
	now := toMillis(inv.CreatedAt)
	_, err := s.exec(ctx, s.db,
		`INSERT INTO invoices (id, user_id, amount_cents, pay_currency, status, address, provider_id, invoice_url, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.UserID, toCents(inv.AmountUSD), inv.PayCurrency, string(inv.Status), inv.Address,
		nullString(inv.ProviderID), nullString(inv.InvoiceURL), toMillis(inv.ExpiresAt), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetInvoice returns an invoice by ID
func (s *Storage) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`), id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

// ListPendingInvoices returns every invoice still awaiting payment.
func (s *Storage) ListPendingInvoices(ctx context.Context) ([]Invoice, error) {
	return s.listInvoices(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE status = ? ORDER BY created_at`,
		string(InvoicePending),
	)
}

// ListUserPendingInvoices returns the invoices userID has not paid yet.
func (s *Storage) ListUserPendingInvoices(ctx context.Context, userID string) ([]Invoice, error) {
	return s.listInvoices(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = ? AND status = ? ORDER BY created_at`,
		userID, string(InvoicePending),
	)
}

func (s *Storage) listInvoices(ctx context.Context, query string, args ...any) ([]Invoice, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}

	return invoices, rows.Err()
}

// TransitionInvoice moves an invoice from one status to another only if the
// stored status still equals from. It reports whether the update applied.
func (s *Storage) TransitionInvoice(ctx context.Context, id string, from, to InvoiceStatus) (bool, error) {
	if !CanTransition(from, to) {
		return false, ErrInvalidTransition
	}

	rows, err := s.exec(ctx, s.db,
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), toMillis(s.now()), id, string(from),
	)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ConfirmInvoice flips pending -> confirmed and credits the owner's balance by
// the invoice amount in the same transaction. The credit happens only when the
// status update applied, so concurrent confirmations credit exactly once.
func (s *Storage) ConfirmInvoice(ctx context.Context, id string) (bool, error) {
	applied := false

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := s.exec(ctx, tx,
			`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(InvoiceConfirmed), toMillis(s.now()), id, string(InvoicePending),
		)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		var (
			userID string
			amount int64
		)
		err = tx.QueryRowContext(ctx,
			s.rebind(`SELECT user_id, amount_cents FROM invoices WHERE id = ?`), id,
		).Scan(&userID, &amount)
		if err != nil {
			return err
		}

		rows, err = s.exec(ctx, tx,
			`UPDATE users SET balance_cents = balance_cents + ? WHERE id = ?`,
			amount, userID,
		)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("credit invoice %s owner %s: %w", id, userID, ErrNotFound)
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(r rowScanner) (*Invoice, error) {
	var (
		inv        Invoice
		amount     int64
		status     string
		providerID sql.NullString
		invoiceURL sql.NullString
		expiresAt  int64
		createdAt  int64
	)

	err := r.Scan(&inv.ID, &inv.UserID, &amount, &inv.PayCurrency, &status, &inv.Address,
		&providerID, &invoiceURL, &expiresAt, &createdAt)
	if err != nil {
		return nil, err
	}

	inv.AmountUSD = fromCents(amount)
	inv.Status = InvoiceStatus(status)
	inv.ProviderID = providerID.String
	inv.InvoiceURL = invoiceURL.String
	inv.ExpiresAt = fromMillis(expiresAt)
	inv.CreatedAt = fromMillis(createdAt)

	return &inv, nil
}
