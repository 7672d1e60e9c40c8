package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CreateCheck persists a classification batch summary.
func (s *Storage) CreateCheck(ctx context.Context, rec *CheckRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	results, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	_, err = s.exec(ctx, s.db,
		`INSERT INTO checks (id, user_id, source, total, clean, locked, blocked, errors, results, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Source, rec.Total, rec.Clean, rec.Locked, rec.Blocked, rec.Errors,
		string(results), toMillis(rec.CreatedAt),
	)
	return err
}

// ListChecks returns a user's check history, newest first.
func (s *Storage) ListChecks(ctx context.Context, userID string) ([]CheckRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, user_id, source, total, clean, locked, blocked, errors, results, created_at
		 FROM checks WHERE user_id = ? ORDER BY created_at DESC`),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CheckRecord
	for rows.Next() {
		var (
			r         CheckRecord
			results   string
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Source, &r.Total, &r.Clean, &r.Locked, &r.Blocked,
			&r.Errors, &results, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(results), &r.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		r.CreatedAt = fromMillis(createdAt)
		records = append(records, r)
	}

	return records, rows.Err()
}
