package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReassignOwner re-points every record of a collection from one user to
// another. Re-running it after success changes nothing.
func (s *Storage) ReassignOwner(ctx context.Context, c Collection, fromUserID, toUserID string) (int64, error) {
	switch c {
	case CollectionInvoices, CollectionSubscriptions, CollectionChecks:
	default:
		return 0, fmt.Errorf("reassign owner: unknown collection %q", c)
	}

	return s.exec(ctx, s.db,
		`UPDATE `+string(c)+` SET user_id = ? WHERE user_id = ?`,
		toUserID, fromUserID,
	)
}

// MergeFunc computes the surviving user from fresh copies of both rows.
type MergeFunc func(target, source User) User

// CommitMerge deletes the source user and writes the merged aggregate onto the
// target in one transaction. Both rows are reloaded inside the transaction and
// passed to merge. If the source no longer exists nothing is written and
// applied is false, which makes a retried merge a no-op.
func (s *Storage) CommitMerge(ctx context.Context, targetID, sourceID string, merge MergeFunc) (*User, bool, error) {
	var (
		merged  User
		applied bool
	)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		source, err := s.getUser(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = ?`+s.forUpdate(), sourceID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := s.getUser(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = ?`+s.forUpdate(), targetID)
		if err != nil {
			return err
		}

		merged = merge(*target, *source)
		merged.ID = target.ID
		merged.ExternalID = target.ExternalID

		// source goes first so the unique secret hash can move onto the target
		if _, err := s.exec(ctx, tx, `DELETE FROM users WHERE id = ?`, sourceID); err != nil {
			return err
		}

		rows, err := s.exec(ctx, tx,
			`UPDATE users SET language = ?, balance_cents = ?, sub_expires_at = ?, secret_hash = ?, secret_issued_at = ?
			 WHERE id = ?`,
			merged.Language, toCents(merged.Balance), nullMillis(merged.Subscription.ExpiresAt),
			merged.SecretKeyHash, toMillis(merged.SecretKeyIssuedAt), merged.ID,
		)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !applied {
		return nil, false, nil
	}

	return &merged, true, nil
}
