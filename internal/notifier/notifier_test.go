package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/numcheck-bot/internal/i18n"
	"github.com/suspectuso/numcheck-bot/internal/session"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []session.Reply
	edited  map[int][]session.Reply
	deleted []int
	sendErr error
}

func (m *fakeMessenger) Send(ctx context.Context, chatID int64, r session.Reply) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, r)
	return m.nextID, nil
}

func (m *fakeMessenger) Edit(ctx context.Context, chatID int64, messageID int, r session.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edited == nil {
		m.edited = make(map[int][]session.Reply)
	}
	m.edited[messageID] = append(m.edited[messageID], r)
	return nil
}

func (m *fakeMessenger) Delete(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func newNotifier(m Messenger) *Notifier {
	return New(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func invoiceReply(id string, kind session.ReplyKind) session.Reply {
	return session.Reply{Kind: kind, Lang: i18n.EN, Text: i18n.InvoiceDetails, Invoice: &storage.Invoice{ID: id}}
}

func TestCountdownEditsInvoiceMessage(t *testing.T) {
	m := &fakeMessenger{}
	n := newNotifier(m)
	ctx := context.Background()

	n.Deliver(ctx, 1, invoiceReply("inv-1", session.KindInvoice))
	require.Len(t, m.sent, 1)

	n.Notify(ctx, 1, invoiceReply("inv-1", session.KindCountdown))
	n.Notify(ctx, 1, invoiceReply("inv-other", session.KindCountdown))
	n.Notify(ctx, 2, invoiceReply("inv-1", session.KindCountdown))

	assert.Len(t, m.sent, 1, "countdowns never send new messages")
	assert.Len(t, m.edited[1], 1)
}

func TestSettledInvoiceMessageIsDeleted(t *testing.T) {
	m := &fakeMessenger{}
	n := newNotifier(m)
	ctx := context.Background()

	n.Deliver(ctx, 1, invoiceReply("inv-1", session.KindInvoice))
	n.Notify(ctx, 1,
		session.Reply{Kind: session.KindNotice, Text: i18n.DepositConfirmed},
		session.Reply{Kind: session.KindHome, Text: i18n.Home},
	)

	assert.Equal(t, []int{1}, m.deleted)
	assert.Len(t, m.sent, 3)

	n.Notify(ctx, 1, invoiceReply("inv-1", session.KindCountdown))
	assert.Empty(t, m.edited)
}

func TestNewInvoiceReplacesShownOne(t *testing.T) {
	m := &fakeMessenger{}
	n := newNotifier(m)
	ctx := context.Background()

	n.Deliver(ctx, 1, invoiceReply("inv-1", session.KindInvoice))
	n.Deliver(ctx, 1, invoiceReply("inv-2", session.KindInvoice))
	assert.Equal(t, []int{1}, m.deleted)

	n.Notify(ctx, 1, invoiceReply("inv-2", session.KindCountdown))
	assert.Len(t, m.edited[2], 1)
}

func TestSweepDeletesExpiredMessages(t *testing.T) {
	m := &fakeMessenger{}
	n := newNotifier(m)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return base }

	n.Deliver(ctx, 1,
		session.Reply{Kind: session.KindCheckResult, TTL: session.ResultTTL},
		session.Reply{Kind: session.KindSecretKey, TTL: session.SecretTTL},
		session.Reply{Kind: session.KindPrompt, TTL: session.PromptTTL},
		session.Reply{Kind: session.KindHome},
	)
	assert.Equal(t, 3, n.Pending())

	assert.Zero(t, n.Sweep(ctx))

	n.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.Equal(t, 1, n.Sweep(ctx))
	assert.Equal(t, []int{2}, m.deleted)

	n.now = func() time.Time { return base.Add(25 * time.Hour) }
	assert.Equal(t, 2, n.Sweep(ctx))
	assert.Equal(t, []int{2, 3, 1}, m.deleted)
	assert.Zero(t, n.Pending())
}

func TestSendFailureSkipsTracking(t *testing.T) {
	m := &fakeMessenger{sendErr: errors.New("bot was blocked by the user")}
	n := newNotifier(m)
	ctx := context.Background()

	n.Deliver(ctx, 1, invoiceReply("inv-1", session.KindInvoice), session.Reply{Kind: session.KindPrompt, TTL: time.Minute})
	assert.Zero(t, n.Pending())

	m.sendErr = nil
	n.Notify(ctx, 1, invoiceReply("inv-1", session.KindCountdown))
	assert.Empty(t, m.edited)
}

func TestStartStopsWithContext(t *testing.T) {
	n := newNotifier(&fakeMessenger{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		n.Start(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
