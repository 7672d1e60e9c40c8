package account

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/numcheck-bot/internal/storage"
)

type countingRecorder struct{ merges int }

func (r *countingRecorder) AccountMerged() { r.merges++ }

func newTestService(t *testing.T) (*Service, *storage.Storage, *countingRecorder) {
	t.Helper()
	store, err := storage.New(storage.DriverSQLite, filepath.Join(t.TempDir(), "account.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := &countingRecorder{}
	plans := DefaultPlans(decimal.NewFromInt(10), decimal.NewFromInt(50), decimal.NewFromInt(150))
	return NewService(store, plans, rec, slog.New(slog.NewTextHandler(io.Discard, nil))), store, rec
}

// fund credits a user through a confirmed deposit invoice.
func fund(t *testing.T, store *storage.Storage, userID string, amount int64) {
	t.Helper()
	ctx := context.Background()
	inv := &storage.Invoice{
		ID:          uuid.NewString(),
		UserID:      userID,
		AmountUSD:   decimal.NewFromInt(amount),
		PayCurrency: "TON",
		Status:      storage.InvoicePending,
		Address:     "addr",
		ExpiresAt:   time.Now().Add(time.Hour),
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.CreateInvoice(ctx, inv))
	applied, err := store.ConfirmInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.True(t, applied)
}

func TestSecretKey(t *testing.T) {
	a, err := GenerateSecretKey()
	require.NoError(t, err)
	b, err := GenerateSecretKey()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, HashSecretKey(a), HashSecretKey(" "+a+"\n"))
	assert.Len(t, HashSecretKey(a), 64)
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		HashSecretKey("hello"),
	)
}

func TestEnsureUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	u, secret, err := svc.EnsureUser(ctx, 777)
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	assert.Equal(t, "en", u.Language)
	assert.Equal(t, HashSecretKey(secret), u.SecretKeyHash)

	again, secret2, err := svc.EnsureUser(ctx, 777)
	require.NoError(t, err)
	assert.Empty(t, secret2, "key is shown only once")
	assert.Equal(t, u.ID, again.ID)
}

func TestRestoreUnknownSecret(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	u, _, err := svc.EnsureUser(ctx, 1)
	require.NoError(t, err)

	_, err = svc.Restore(ctx, u.ID, "not-a-key")
	assert.ErrorIs(t, err, ErrUnknownSecret)
}

func TestRestoreOwnKeyIsNoop(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	u, secret, err := svc.EnsureUser(ctx, 1)
	require.NoError(t, err)

	got, err := svc.Restore(ctx, u.ID, secret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Zero(t, rec.merges)
}

func TestRestoreMergesAccounts(t *testing.T) {
	svc, store, rec := newTestService(t)
	ctx := context.Background()

	old, oldSecret, err := svc.EnsureUser(ctx, 100)
	require.NoError(t, err)
	require.NoError(t, svc.SetLanguage(ctx, old.ID, "ru"))
	fund(t, store, old.ID, 60)
	_, err = svc.Purchase(ctx, old.ID, PlanWeekly)
	require.NoError(t, err)
	require.NoError(t, store.CreateCheck(ctx, &storage.CheckRecord{UserID: old.ID, Source: "text", CreatedAt: time.Now()}))

	svc.now = func() time.Time { return time.Now().Add(time.Second) }
	current, _, err := svc.EnsureUser(ctx, 200)
	require.NoError(t, err)
	fund(t, store, current.ID, 25)

	merged, err := svc.Restore(ctx, current.ID, oldSecret)
	require.NoError(t, err)

	assert.Equal(t, current.ID, merged.ID)
	assert.Equal(t, int64(200), merged.ExternalID)
	assert.True(t, merged.Balance.Equal(decimal.NewFromInt(35)), "balance %s", merged.Balance)
	assert.True(t, merged.Subscription.Active(time.Now()))
	assert.Equal(t, "ru", merged.Language)
	assert.Equal(t, current.SecretKeyHash, merged.SecretKeyHash, "current key was issued later")
	assert.Equal(t, 1, rec.merges)

	_, err = store.GetUser(ctx, old.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	subs, err := store.ListSubscriptions(ctx, current.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	checks, err := store.ListChecks(ctx, current.ID)
	require.NoError(t, err)
	assert.Len(t, checks, 1)

	_, err = svc.Restore(ctx, current.ID, oldSecret)
	assert.ErrorIs(t, err, ErrUnknownSecret, "old key no longer resolves")
}

func TestMergeIsIdempotent(t *testing.T) {
	svc, store, rec := newTestService(t)
	ctx := context.Background()

	target, _, err := svc.EnsureUser(ctx, 1)
	require.NoError(t, err)
	source, _, err := svc.EnsureUser(ctx, 2)
	require.NoError(t, err)
	fund(t, store, target.ID, 10)
	fund(t, store, source.ID, 15)

	first, err := svc.Merge(ctx, target.ID, source.ID)
	require.NoError(t, err)
	second, err := svc.Merge(ctx, target.ID, source.ID)
	require.NoError(t, err)

	assert.True(t, first.Balance.Equal(decimal.NewFromInt(25)))
	assert.True(t, second.Balance.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, first.SecretKeyHash, second.SecretKeyHash)
	assert.Equal(t, 1, rec.merges)

	same, err := svc.Merge(ctx, target.ID, target.ID)
	require.NoError(t, err)
	assert.True(t, same.Balance.Equal(decimal.NewFromInt(25)))
}

func TestMergeSubscription(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}
	day := 24 * time.Hour

	tests := []struct {
		name    string
		target  storage.Subscription
		source  storage.Subscription
		want    *time.Time
		wantAct bool
	}{
		{"inactive target, source 3 days left", storage.Subscription{}, storage.Subscription{ExpiresAt: at(3 * day)}, at(3 * day), true},
		{"both expired", storage.Subscription{ExpiresAt: at(-day)}, storage.Subscription{ExpiresAt: at(-2 * day)}, nil, false},
		{"later wins", storage.Subscription{ExpiresAt: at(5 * day)}, storage.Subscription{ExpiresAt: at(2 * day)}, at(5 * day), true},
		{"expired later than nothing", storage.Subscription{ExpiresAt: at(-time.Hour)}, storage.Subscription{}, nil, false},
		{"expiring exactly now", storage.Subscription{ExpiresAt: at(0)}, storage.Subscription{}, nil, false},
		{"equal", storage.Subscription{ExpiresAt: at(day)}, storage.Subscription{ExpiresAt: at(day)}, at(day), true},
		{"neither", storage.Subscription{}, storage.Subscription{}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeSubscription(tt.target, tt.source, now)
			assert.Equal(t, tt.wantAct, got.Active(now))
			if tt.want == nil {
				assert.Nil(t, got.ExpiresAt)
				return
			}
			require.NotNil(t, got.ExpiresAt)
			assert.True(t, got.ExpiresAt.Equal(*tt.want))
		})
	}
}

func TestMergeUsers(t *testing.T) {
	now := time.Now()
	target := storage.User{
		ID: "t", ExternalID: 1, Language: "en",
		Balance:       decimal.RequireFromString("1.50"),
		SecretKeyHash: "target-hash", SecretKeyIssuedAt: now.Add(-time.Hour),
	}
	source := storage.User{
		ID: "s", ExternalID: 2, Language: "zh",
		Balance:       decimal.RequireFromString("2.25"),
		SecretKeyHash: "source-hash", SecretKeyIssuedAt: now,
	}

	merged := mergeUsers(now)(target, source)
	assert.Equal(t, "t", merged.ID)
	assert.True(t, merged.Balance.Equal(decimal.RequireFromString("3.75")))
	assert.Equal(t, "zh", merged.Language)
	assert.Equal(t, "source-hash", merged.SecretKeyHash)

	source.SecretKeyIssuedAt = target.SecretKeyIssuedAt
	merged = mergeUsers(now)(target, source)
	assert.Equal(t, "target-hash", merged.SecretKeyHash, "tie keeps the target key")
}

func TestPurchase(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	u, _, err := svc.EnsureUser(ctx, 1)
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, u.ID, PlanDaily)
	assert.ErrorIs(t, err, storage.ErrInsufficientBalance)

	_, err = svc.Purchase(ctx, u.ID, "yearly")
	assert.ErrorIs(t, err, ErrUnknownPlan)

	fund(t, store, u.ID, 10)
	rec, err := svc.Purchase(ctx, u.ID, PlanDaily)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), rec.ExpiresAt, 5*time.Second)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
	assert.True(t, got.Subscription.Active(time.Now()))
}
