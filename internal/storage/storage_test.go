package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s *Storage, externalID int64) *User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), externalID, "en", uuid.NewString(), time.Now())
	require.NoError(t, err)
	return u
}

func createInvoice(t *testing.T, s *Storage, userID string, amount string) *Invoice {
	t.Helper()
	now := time.Now()
	inv := &Invoice{
		ID:          uuid.NewString(),
		UserID:      userID,
		AmountUSD:   decimal.RequireFromString(amount),
		PayCurrency: "TON",
		Status:      InvoicePending,
		Address:     "demo-address",
		ExpiresAt:   now.Add(30 * time.Minute),
		CreatedAt:   now,
	}
	require.NoError(t, s.CreateInvoice(context.Background(), inv))
	return inv
}

func TestUsers(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, 1001, "ru", "hash-1", time.Now())
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, 1001, "en", "hash-2", time.Now())
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = s.CreateUser(ctx, 1002, "en", "hash-1", time.Now())
	assert.ErrorIs(t, err, ErrAlreadyExists)

	byExt, err := s.GetUserByExternalID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byExt.ID)
	assert.Equal(t, "ru", byExt.Language)
	assert.True(t, byExt.Balance.IsZero())
	assert.False(t, byExt.Subscription.Active(time.Now()))

	byHash, err := s.GetUserBySecretHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byHash.ID)

	require.NoError(t, s.SetLanguage(ctx, u.ID, "zh"))
	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "zh", got.Language)

	_, err = s.GetUserBySecretHash(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.SetLanguage(ctx, "missing", "en"), ErrNotFound)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionInvoice(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	u := createUser(t, s, 1)
	inv := createInvoice(t, s, u.ID, "20")

	applied, err := s.TransitionInvoice(ctx, inv.ID, InvoicePending, InvoiceCancelled)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.TransitionInvoice(ctx, inv.ID, InvoicePending, InvoiceExpired)
	require.NoError(t, err)
	assert.False(t, applied, "terminal status must not be left")

	_, err = s.TransitionInvoice(ctx, inv.ID, InvoiceCancelled, InvoicePending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceCancelled, got.Status)
}

func TestConfirmInvoiceCreditsOnce(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	u := createUser(t, s, 1)
	inv := createInvoice(t, s, u.ID, "50")

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ConfirmInvoice(ctx, inv.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(50)), "balance %s", got.Balance)
}

func TestConfirmCancelledInvoiceDoesNotCredit(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	u := createUser(t, s, 1)
	inv := createInvoice(t, s, u.ID, "20")

	_, err := s.TransitionInvoice(ctx, inv.ID, InvoicePending, InvoiceCancelled)
	require.NoError(t, err)

	applied, err := s.ConfirmInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}

func TestListPendingInvoices(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	u := createUser(t, s, 1)
	a := createInvoice(t, s, u.ID, "10")
	b := createInvoice(t, s, u.ID, "12.34")
	_, err := s.TransitionInvoice(ctx, a.ID, InvoicePending, InvoiceExpired)
	require.NoError(t, err)

	pending, err := s.ListPendingInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)
	assert.True(t, pending[0].AmountUSD.Equal(decimal.RequireFromString("12.34")))
}

func TestListUserPendingInvoices(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	alice := createUser(t, s, 1)
	bob := createUser(t, s, 2)
	a := createInvoice(t, s, alice.ID, "10")
	b := createInvoice(t, s, alice.ID, "20")
	createInvoice(t, s, bob.ID, "30")
	_, err := s.TransitionInvoice(ctx, a.ID, InvoicePending, InvoiceCancelled)
	require.NoError(t, err)

	pending, err := s.ListUserPendingInvoices(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	pending, err = s.ListUserPendingInvoices(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPurchaseSubscription(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	u := createUser(t, s, 1)
	inv := createInvoice(t, s, u.ID, "60")
	_, err := s.ConfirmInvoice(ctx, inv.ID)
	require.NoError(t, err)

	now := time.Now()
	rec, err := s.PurchaseSubscription(ctx, u.ID, "weekly", decimal.NewFromInt(50), 7*24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, "weekly", rec.Plan)
	assert.WithinDuration(t, now.Add(7*24*time.Hour), rec.ExpiresAt, time.Millisecond)

	_, err = s.PurchaseSubscription(ctx, u.ID, "weekly", decimal.NewFromInt(50), 7*24*time.Hour, now)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	rec2, err := s.PurchaseSubscription(ctx, u.ID, "daily", decimal.NewFromInt(10), 24*time.Hour, now)
	require.NoError(t, err)
	assert.WithinDuration(t, rec.ExpiresAt, rec2.StartedAt, time.Millisecond, "extends the running subscription")

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
	assert.True(t, got.Subscription.Active(now))

	history, err := s.ListSubscriptions(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestReassignOwnerAndCommitMerge(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	target := createUser(t, s, 1)
	source := createUser(t, s, 2)

	inv := createInvoice(t, s, source.ID, "15")
	_, err := s.ConfirmInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.NoError(t, s.CreateCheck(ctx, &CheckRecord{
		UserID: source.ID, Source: "text", Total: 1, Clean: 1,
		Results: []CheckResult{{Number: "+123451", Status: "clean"}}, CreatedAt: time.Now(),
	}))

	for _, c := range OwnedCollections {
		_, err := s.ReassignOwner(ctx, c, source.ID, target.ID)
		require.NoError(t, err)
	}
	moved, err := s.ReassignOwner(ctx, CollectionInvoices, source.ID, target.ID)
	require.NoError(t, err)
	assert.Zero(t, moved)

	_, err = s.ReassignOwner(ctx, Collection("users"), source.ID, target.ID)
	assert.Error(t, err)

	sum := func(dst, src User) User {
		dst.Balance = dst.Balance.Add(src.Balance)
		dst.SecretKeyHash = src.SecretKeyHash
		return dst
	}

	merged, applied, err := s.CommitMerge(ctx, target.ID, source.ID, sum)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, merged.Balance.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, source.SecretKeyHash, merged.SecretKeyHash)

	_, applied, err = s.CommitMerge(ctx, target.ID, source.ID, sum)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := s.GetUser(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(15)))

	checks, err := s.ListChecks(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, "+123451", checks[0].Results[0].Number)

	movedInv, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, movedInv.UserID)
}

func TestStats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	u := createUser(t, s, 1)
	createUser(t, s, 2)
	a := createInvoice(t, s, u.ID, "100")
	createInvoice(t, s, u.ID, "10")
	_, err := s.ConfirmInvoice(ctx, a.ID)
	require.NoError(t, err)
	_, err = s.PurchaseSubscription(ctx, u.ID, "monthly", decimal.NewFromInt(100), 30*24*time.Hour, time.Now())
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Users:               2,
		ActiveSubscriptions: 1,
		HistoryActive:       1,
		HistoryExpired:      0,
		PendingInvoices:     1,
		ConfirmedInvoices:   1,
	}, *st)
}

func TestRebind(t *testing.T) {
	pg := &Storage{driver: DriverPostgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE b = $2", pg.rebind("UPDATE t SET a = ? WHERE b = ?"))

	lite := &Storage{driver: DriverSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(1235), toCents(decimal.RequireFromString("12.345")))
	assert.True(t, fromCents(1999).Equal(decimal.RequireFromString("19.99")))
}
