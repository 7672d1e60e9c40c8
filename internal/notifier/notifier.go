// Package notifier delivers session replies to chats. It remembers which
// message shows a chat's open invoice so countdowns edit it in place, and it
// deletes transient messages once their time is up.
package notifier

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/suspectuso/numcheck-bot/internal/i18n"
	"github.com/suspectuso/numcheck-bot/internal/lib/sl"
	"github.com/suspectuso/numcheck-bot/internal/session"
)

// Messenger sends, edits and deletes chat messages.
type Messenger interface {
	Send(ctx context.Context, chatID int64, r session.Reply) (messageID int, err error)
	Edit(ctx context.Context, chatID int64, messageID int, r session.Reply) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

type message struct {
	chatID    int64
	messageID int
}

type invoiceMessage struct {
	invoiceID string
	messageID int
}

type expiry struct {
	message
	at time.Time
}

// Notifier delivers replies through a Messenger.
type Notifier struct {
	messenger Messenger
	log       *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	invoices map[int64]invoiceMessage
	expiring []expiry
}

// New creates a new Notifier
func New(messenger Messenger, log *slog.Logger) *Notifier {
	return &Notifier{
		messenger: messenger,
		log:       log.With("component", "notifier"),
		now:       time.Now,
		invoices:  make(map[int64]invoiceMessage),
	}
}

// Notify delivers replies that did not come from a user action.
func (n *Notifier) Notify(ctx context.Context, chatID int64, replies ...session.Reply) {
	n.Deliver(ctx, chatID, replies...)
}

// Deliver sends replies in order. Countdown replies edit the message showing
// their invoice and are dropped when that message is gone.
func (n *Notifier) Deliver(ctx context.Context, chatID int64, replies ...session.Reply) {
	for _, r := range replies {
		if r.Kind == session.KindCountdown {
			n.refresh(ctx, chatID, r)
			continue
		}

		if closesInvoice(r) {
			n.closeInvoice(ctx, chatID)
		}

		id, err := n.messenger.Send(ctx, chatID, r)
		if err != nil {
			n.log.Error("send reply", "chat_id", chatID, "text", r.Text, sl.Err(err))
			continue
		}

		if r.Kind == session.KindInvoice && r.Invoice != nil {
			n.trackInvoice(ctx, chatID, r.Invoice.ID, id)
		}
		if r.TTL > 0 {
			n.expireAfter(chatID, id, r.TTL)
		}
	}
}

// Forget stops tracking the invoice message of chatID, for example after the
// user acted on it directly.
func (n *Notifier) Forget(chatID int64, messageID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if cur, ok := n.invoices[chatID]; ok && cur.messageID == messageID {
		delete(n.invoices, chatID)
	}
}

// Start deletes expired transient messages every interval until ctx is done.
func (n *Notifier) Start(ctx context.Context, interval time.Duration) {
	n.log.Info("message sweeper started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.Sweep(ctx)
		}
	}
}

// Sweep deletes every transient message whose time is up and returns how
// many it removed.
func (n *Notifier) Sweep(ctx context.Context) int {
	now := n.now()

	n.mu.Lock()
	i := sort.Search(len(n.expiring), func(i int) bool { return n.expiring[i].at.After(now) })
	due := append([]expiry(nil), n.expiring[:i]...)
	n.expiring = n.expiring[i:]
	n.mu.Unlock()

	for _, e := range due {
		if err := n.messenger.Delete(ctx, e.chatID, e.messageID); err != nil {
			// already deleted by the user or too old to delete
			n.log.Debug("delete expired message", "chat_id", e.chatID, "message_id", e.messageID, sl.Err(err))
		}
		n.Forget(e.chatID, e.messageID)
	}
	return len(due)
}

// Pending returns how many transient messages wait for deletion.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.expiring)
}

func (n *Notifier) refresh(ctx context.Context, chatID int64, r session.Reply) {
	if r.Invoice == nil {
		return
	}

	n.mu.Lock()
	cur, ok := n.invoices[chatID]
	n.mu.Unlock()
	if !ok || cur.invoiceID != r.Invoice.ID {
		return
	}

	if err := n.messenger.Edit(ctx, chatID, cur.messageID, r); err != nil {
		n.log.Warn("refresh invoice message", "chat_id", chatID, "invoice_id", cur.invoiceID, sl.Err(err))
	}
}

func (n *Notifier) trackInvoice(ctx context.Context, chatID int64, invoiceID string, messageID int) {
	n.mu.Lock()
	prev, had := n.invoices[chatID]
	n.invoices[chatID] = invoiceMessage{invoiceID: invoiceID, messageID: messageID}
	n.mu.Unlock()

	if had && prev.messageID != messageID {
		n.delete(ctx, chatID, prev.messageID)
	}
}

func (n *Notifier) closeInvoice(ctx context.Context, chatID int64) {
	n.mu.Lock()
	cur, ok := n.invoices[chatID]
	delete(n.invoices, chatID)
	n.mu.Unlock()

	if ok {
		n.delete(ctx, chatID, cur.messageID)
	}
}

func (n *Notifier) delete(ctx context.Context, chatID int64, messageID int) {
	if err := n.messenger.Delete(ctx, chatID, messageID); err != nil {
		n.log.Debug("delete message", "chat_id", chatID, "message_id", messageID, sl.Err(err))
	}
}

func (n *Notifier) expireAfter(chatID int64, messageID int, ttl time.Duration) {
	e := expiry{message: message{chatID: chatID, messageID: messageID}, at: n.now().Add(ttl)}

	n.mu.Lock()
	defer n.mu.Unlock()
	i := sort.Search(len(n.expiring), func(i int) bool { return n.expiring[i].at.After(e.at) })
	n.expiring = append(n.expiring, expiry{})
	copy(n.expiring[i+1:], n.expiring[i:])
	n.expiring[i] = e
}

// closesInvoice reports whether r replaces the invoice the chat was shown.
func closesInvoice(r session.Reply) bool {
	switch r.Kind {
	case session.KindCurrencyMenu, session.KindDepositPrompt:
		return true
	case session.KindNotice:
		switch r.Text {
		case i18n.DepositConfirmed, i18n.InvoiceExpired, i18n.DepositCancelled:
			return true
		}
	}
	return false
}
