package storage

import "context"

// Stats collects the read-only admin report.
func (s *Storage) Stats(ctx context.Context) (*Stats, error) {
	now := toMillis(s.now())
	var st Stats

	counts := []struct {
		dst   *int
		query string
		args  []any
	}{
		{&st.Users, `SELECT COUNT(*) FROM users`, nil},
		{&st.ActiveSubscriptions, `SELECT COUNT(*) FROM users WHERE sub_expires_at > ?`, []any{now}},
		{&st.HistoryActive, `SELECT COUNT(*) FROM subscriptions WHERE expires_at >= ?`, []any{now}},
		{&st.HistoryExpired, `SELECT COUNT(*) FROM subscriptions WHERE expires_at < ?`, []any{now}},
		{&st.PendingInvoices, `SELECT COUNT(*) FROM invoices WHERE status = ?`, []any{string(InvoicePending)}},
		{&st.ConfirmedInvoices, `SELECT COUNT(*) FROM invoices WHERE status = ?`, []any{string(InvoiceConfirmed)}},
	}

	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, s.rebind(c.query), c.args...).Scan(c.dst); err != nil {
			return nil, err
		}
	}

	return &st, nil
}
