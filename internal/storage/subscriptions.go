package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseSubscription debits price from the user's balance, extends the
// subscription by period and appends a history record, all in one transaction.
// The period starts at the later of now and the current expiry.
func (s *Storage) PurchaseSubscription(ctx context.Context, userID, plan string, price decimal.Decimal, period time.Duration, now time.Time) (*SubscriptionRecord, error) {
	priceCents := toCents(price)
	var rec *SubscriptionRecord

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			balance    int64
			subExpires sql.NullInt64
		)
		err := tx.QueryRowContext(ctx,
			s.rebind(`SELECT balance_cents, sub_expires_at FROM users WHERE id = ?`+s.forUpdate()), userID,
		).Scan(&balance, &subExpires)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if balance < priceCents {
			return ErrInsufficientBalance
		}

		start := now
		if subExpires.Valid {
			if current := fromMillis(subExpires.Int64); current.After(now) {
				start = current
			}
		}
		expires := start.Add(period)

		rows, err := s.exec(ctx, tx,
			`UPDATE users SET balance_cents = balance_cents - ?, sub_expires_at = ?
			 WHERE id = ? AND balance_cents >= ?`,
			priceCents, toMillis(expires), userID, priceCents,
		)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInsufficientBalance
		}

		rec = &SubscriptionRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			Plan:      plan,
			Price:     fromCents(priceCents),
			StartedAt: start,
			ExpiresAt: expires,
		}
		_, err = s.exec(ctx, tx,
			`INSERT INTO subscriptions (id, user_id, plan, price_cents, started_at, expires_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.UserID, rec.Plan, priceCents, toMillis(rec.StartedAt), toMillis(rec.ExpiresAt),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListSubscriptions returns a user's purchase history, newest first.
func (s *Storage) ListSubscriptions(ctx context.Context, userID string) ([]SubscriptionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, user_id, plan, price_cents, started_at, expires_at
		 FROM subscriptions WHERE user_id = ? ORDER BY started_at DESC`),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SubscriptionRecord
	for rows.Next() {
		var (
			r         SubscriptionRecord
			price     int64
			startedAt int64
			expiresAt int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Plan, &price, &startedAt, &expiresAt); err != nil {
			return nil, err
		}
		r.Price = fromCents(price)
		r.StartedAt = fromMillis(startedAt)
		r.ExpiresAt = fromMillis(expiresAt)
		records = append(records, r)
	}

	return records, rows.Err()
}
