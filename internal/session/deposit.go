package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suspectuso/numcheck-bot/internal/i18n"
	"github.com/suspectuso/numcheck-bot/internal/invoice"
	"github.com/suspectuso/numcheck-bot/internal/nowpayments"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

// requestDeposit closes every invoice the user still has pending, including
// ones left by an earlier run, and asks for the amount.
func (m *Machine) requestDeposit(ctx context.Context, t *turn) ([]Reply, error) {
	if err := m.closeInvoice(ctx, t.s); err != nil {
		return nil, err
	}
	n, err := m.invoices.CancelPending(ctx, t.user.ID)
	if err != nil {
		return nil, fmt.Errorf("cancel pending invoices: %w", err)
	}
	if n > 0 {
		m.log.Info("stale invoices cancelled", "user_id", t.user.ID, "count", n)
	}

	t.s.Deposit = Deposit{}
	t.s.Awaiting = AwaitingDepositAmount{}
	return []Reply{{
		Kind: KindDepositPrompt,
		Lang: t.lang(),
		Text: i18n.DepositPromptAmount,
		Args: m.rangeArgs(),
		TTL:  PromptTTL,
	}}, nil
}

func (m *Machine) submitAmount(t *turn, text string) ([]Reply, error) {
	if _, ok := t.s.Awaiting.(AwaitingDepositAmount); !ok {
		return nil, ErrUnexpectedInput
	}

	amount, err := parseAmount(text)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if amount.LessThan(m.cfg.MinDeposit) || amount.GreaterThan(m.cfg.MaxDeposit) {
		return nil, localize(ErrAmountRange, t.lang(), m.rangeArgs())
	}

	t.s.Deposit.Amount = amount
	t.s.Awaiting = AwaitingCurrencyChoice{}
	return []Reply{m.currencyReply(t)}, nil
}

func (m *Machine) chooseCurrency(ctx context.Context, t *turn, currency string) ([]Reply, error) {
	if _, ok := t.s.Awaiting.(AwaitingCurrencyChoice); !ok {
		return nil, ErrUnexpectedInput
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !nowpayments.SupportedCurrency(currency) {
		return nil, ErrUnexpectedInput
	}

	inv, err := m.invoices.Create(ctx, t.user.ID, t.s.Deposit.Amount, currency)
	if errors.Is(err, invoice.ErrAmountOutOfRange) {
		return nil, localize(ErrAmountRange, t.lang(), m.rangeArgs())
	}
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	t.s.Deposit.Currency = currency
	t.s.Deposit.InvoiceID = inv.ID
	t.s.Awaiting = InvoiceActive{}
	return []Reply{m.invoiceReply(t.lang(), inv, inv.ExpiresAt.Sub(m.now()), KindInvoice)}, nil
}

// submitPaymentCheck runs an immediate status check for the open invoice.
func (m *Machine) submitPaymentCheck(ctx context.Context, t *turn) ([]Reply, error) {
	id := t.s.Deposit.InvoiceID
	if id == "" {
		return []Reply{{Kind: KindNotice, Lang: t.lang(), Text: i18n.NoActiveInvoice}}, nil
	}

	ev, err := m.invoices.CheckNow(ctx, id)
	if errors.Is(err, nowpayments.ErrProviderUnavailable) {
		return []Reply{{Kind: KindNotice, Lang: t.lang(), Text: i18n.PaymentUnknown}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check invoice: %w", err)
	}

	switch ev.Kind {
	case invoice.EventCountdown:
		return []Reply{{Kind: KindNotice, Lang: t.lang(), Text: i18n.PaymentPending}}, nil
	case invoice.EventConfirmed, invoice.EventExpired, invoice.EventCancelled:
		return m.settle(ctx, t, ev)
	}
	t.s.Deposit = Deposit{}
	t.s.Awaiting = Idle{}
	return []Reply{{Kind: KindNotice, Lang: t.lang(), Text: i18n.NoActiveInvoice}, m.homeReply(t.user)}, nil
}

// changeCurrency cancels the open invoice and asks for a currency again for
// the same amount.
func (m *Machine) changeCurrency(ctx context.Context, t *turn) ([]Reply, error) {
	switch t.s.Awaiting.(type) {
	case InvoiceActive, AwaitingCurrencyChoice:
	default:
		return nil, ErrUnexpectedInput
	}
	if t.s.Deposit.Amount.IsZero() {
		return nil, ErrUnexpectedInput
	}

	if err := m.closeInvoice(ctx, t.s); err != nil {
		return nil, err
	}
	t.s.Deposit.Currency = ""
	t.s.Awaiting = AwaitingCurrencyChoice{}
	return []Reply{m.currencyReply(t)}, nil
}

func (m *Machine) cancelDeposit(ctx context.Context, t *turn) ([]Reply, error) {
	if err := m.closeInvoice(ctx, t.s); err != nil {
		return nil, err
	}

	t.s.Deposit = Deposit{}
	t.s.Awaiting = Idle{}
	return []Reply{
		{Kind: KindNotice, Lang: t.lang(), Text: i18n.DepositCancelled},
		m.homeReply(t.user),
	}, nil
}

// closeInvoice cancels the conversation's open invoice, if any. An invoice
// that already settled is left as it is.
func (m *Machine) closeInvoice(ctx context.Context, s *Session) error {
	id := s.Deposit.InvoiceID
	if id == "" {
		return nil
	}
	if _, err := m.invoices.Cancel(ctx, id); err != nil {
		return fmt.Errorf("cancel invoice: %w", err)
	}
	s.Deposit.InvoiceID = ""
	return nil
}

// settle returns the conversation home after a terminal invoice event.
func (m *Machine) settle(ctx context.Context, t *turn, ev invoice.Event) ([]Reply, error) {
	if t.s.Deposit.InvoiceID == ev.Invoice.ID {
		t.s.Deposit = Deposit{}
		t.s.Awaiting = Idle{}
	}

	user, err := m.accounts.GetUser(ctx, t.user.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	t.user = user

	var replies []Reply
	if key, ok := settledText(ev.Kind); ok {
		replies = append(replies, Reply{
			Kind:    KindNotice,
			Lang:    user.Language,
			Text:    key,
			Args:    i18n.Args{"amount": ev.Invoice.AmountUSD.StringFixed(2)},
			Invoice: &ev.Invoice,
		})
	}
	return append(replies, m.homeReply(user)), nil
}

func settledText(kind invoice.EventKind) (i18n.Key, bool) {
	switch kind {
	case invoice.EventConfirmed:
		return i18n.DepositConfirmed, true
	case invoice.EventExpired:
		return i18n.InvoiceExpired, true
	case invoice.EventCancelled:
		return i18n.DepositCancelled, true
	}
	return "", false
}

func (m *Machine) currencyReply(t *turn) Reply {
	return Reply{
		Kind: KindCurrencyMenu,
		Lang: t.lang(),
		Text: i18n.ChooseCurrency,
		Args: i18n.Args{"amount": t.s.Deposit.Amount.StringFixed(2)},
	}
}

func (m *Machine) invoiceReply(lang string, inv *storage.Invoice, remaining time.Duration, kind ReplyKind) Reply {
	return Reply{
		Kind: kind,
		Lang: lang,
		Text: i18n.InvoiceDetails,
		Args: i18n.Args{
			"amount":   inv.AmountUSD.StringFixed(2),
			"currency": inv.PayCurrency,
			"address":  inv.Address,
			"minutes":  minutesLeft(remaining),
		},
		Invoice: inv,
	}
}

func (m *Machine) rangeArgs() i18n.Args {
	return i18n.Args{"min": m.cfg.MinDeposit.String(), "max": m.cfg.MaxDeposit.String()}
}

// parseAmount accepts a positive decimal with '.' or ',' as separator.
func parseAmount(text string) (decimal.Decimal, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount must be positive: %s", text)
	}
	return amount.Round(2), nil
}

// minutesLeft rounds up so a running invoice never shows zero minutes.
func minutesLeft(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}
