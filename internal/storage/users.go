package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const userColumns = `id, external_id, language, balance_cents, sub_expires_at, secret_hash, secret_issued_at, created_at`

// CreateUser inserts a new user with zero balance and no subscription.
func (s *Storage) CreateUser(ctx context.Context, externalID int64, language, secretHash string, issuedAt time.Time) (*User, error) {
	u := &User{
		ID:                uuid.NewString(),
		ExternalID:        externalID,
		Language:          language,
		Balance:           decimal.Zero,
		SecretKeyHash:     secretHash,
		SecretKeyIssuedAt: issuedAt,
		CreatedAt:         issuedAt,
	}

	_, err := s.exec(ctx, s.db,
		`INSERT INTO users (id, external_id, language, balance_cents, secret_hash, secret_issued_at, created_at)
		 VALUES (?, ?, ?, 0, ?, ?, ?)`,
		u.ID, u.ExternalID, u.Language, u.SecretKeyHash, toMillis(issuedAt), toMillis(issuedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	return u, nil
}

// GetUser returns a user by ID
func (s *Storage) GetUser(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, s.db, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByExternalID returns a user by telegram id
func (s *Storage) GetUserByExternalID(ctx context.Context, externalID int64) (*User, error) {
	return s.getUser(ctx, s.db, `SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
}

// GetUserBySecretHash returns the user owning a secret-key hash
func (s *Storage) GetUserBySecretHash(ctx context.Context, hash string) (*User, error) {
	return s.getUser(ctx, s.db, `SELECT `+userColumns+` FROM users WHERE secret_hash = ?`, hash)
}

// SetLanguage updates the user's interface language
func (s *Storage) SetLanguage(ctx context.Context, userID, language string) error {
	rows, err := s.exec(ctx, s.db, `UPDATE users SET language = ? WHERE id = ?`, language, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user; deleting a missing user is not an error.
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.exec(ctx, s.db, `DELETE FROM users WHERE id = ?`, userID)
	return err
}

func (s *Storage) getUser(ctx context.Context, q querier, query string, args ...any) (*User, error) {
	var (
		u          User
		balance    int64
		subExpires sql.NullInt64
		issuedAt   int64
		createdAt  int64
	)

	err := q.QueryRowContext(ctx, s.rebind(query), args...).Scan(
		&u.ID, &u.ExternalID, &u.Language, &balance, &subExpires, &u.SecretKeyHash, &issuedAt, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.Balance = fromCents(balance)
	u.SecretKeyIssuedAt = fromMillis(issuedAt)
	u.CreatedAt = fromMillis(createdAt)
	if subExpires.Valid {
		t := fromMillis(subExpires.Int64)
		u.Subscription.ExpiresAt = &t
	}

	return &u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
