package session

import (
	"context"

	"github.com/suspectuso/numcheck-bot/internal/i18n"
	"github.com/suspectuso/numcheck-bot/internal/invoice"
	"github.com/suspectuso/numcheck-bot/internal/lib/sl"
)

// InvoiceEvent receives poller and provider callback events. A terminal
// event for the conversation's open invoice returns it home; countdowns only
// refresh the invoice message while that invoice is still open.
func (m *Machine) InvoiceEvent(ctx context.Context, ev invoice.Event) {
	if ev.ExternalID == 0 {
		return
	}
	s := m.sessions.Get(ev.ExternalID)
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := m.accounts.GetUser(ctx, ev.Invoice.UserID)
	if err != nil {
		m.log.Error("load invoice owner", "invoice_id", ev.Invoice.ID, sl.Err(err))
		return
	}

	switch ev.Kind {
	case invoice.EventCountdown:
		if s.Deposit.InvoiceID != ev.Invoice.ID {
			return
		}
		m.notifier.Notify(ctx, ev.ExternalID, m.invoiceReply(user.Language, &ev.Invoice, ev.Remaining, KindCountdown))

	case invoice.EventConfirmed, invoice.EventExpired, invoice.EventCancelled:
		t := &turn{s: s, chatID: ev.ExternalID, user: user}
		replies, err := m.settle(ctx, t, ev)
		if err != nil {
			m.log.Error("settle invoice event", "invoice_id", ev.Invoice.ID, sl.Err(err))
			replies = []Reply{{Kind: KindNotice, Lang: user.Language, Text: i18n.GenericError}}
		}
		m.notifier.Notify(ctx, ev.ExternalID, replies...)
	}
}
