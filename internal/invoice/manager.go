// Package invoice runs the deposit invoice lifecycle: creation through the
// payment gateway, one poller per pending invoice, and the guarded terminal
// transitions that credit a balance at most once.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suspectuso/numcheck-bot/internal/lib/sl"
	"github.com/suspectuso/numcheck-bot/internal/nowpayments"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

var (
	ErrAmountOutOfRange    = errors.New("amount out of range")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Store is the persistence the manager needs.
type Store interface {
	CreateInvoice(ctx context.Context, inv *storage.Invoice) error
	GetInvoice(ctx context.Context, id string) (*storage.Invoice, error)
	ListPendingInvoices(ctx context.Context) ([]storage.Invoice, error)
	ListUserPendingInvoices(ctx context.Context, userID string) ([]storage.Invoice, error)
	TransitionInvoice(ctx context.Context, id string, from, to storage.InvoiceStatus) (bool, error)
	ConfirmInvoice(ctx context.Context, id string) (bool, error)
	GetUser(ctx context.Context, id string) (*storage.User, error)
}

// Recorder receives lifecycle metrics.
type Recorder interface {
	InvoiceCreated(currency string)
	InvoiceTransition(status string)
	DepositCredited(amount decimal.Decimal)
	SetPollers(n int)
}

// TTL is how long an invoice stays payable after creation.
const TTL = 30 * time.Minute

type Config struct {
	// TTL overrides the invoice lifetime; zero means TTL.
	TTL          time.Duration
	PollInterval time.Duration
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
}

// Manager owns invoice creation and the poller registry.
type Manager struct {
	store    Store
	gateway  nowpayments.Gateway
	sched    *Scheduler
	metrics  Recorder
	listener Listener
	cfg      Config
	log      *slog.Logger

	// base context for pollers, cancelled by Shutdown
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

func NewManager(store Store, gateway nowpayments.Gateway, cfg Config, metrics Recorder, log *slog.Logger) *Manager {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = TTL
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		store:    store,
		gateway:  gateway,
		sched:    NewScheduler(cfg.PollInterval, metrics.SetPollers),
		metrics:  metrics,
		listener: nopListener{},
		cfg:      cfg,
		log:      log.With("component", "invoice"),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}
}

// SetListener sets the receiver of poller events. Call before Resume or Create.
func (m *Manager) SetListener(l Listener) {
	m.listener = l
}

// Create opens an invoice at the gateway, stores it as pending with a fixed
// expiry and starts its poller.
func (m *Manager) Create(ctx context.Context, userID string, amount decimal.Decimal, currency string) (*storage.Invoice, error) {
	if amount.LessThan(m.cfg.MinAmount) || amount.GreaterThan(m.cfg.MaxAmount) {
		return nil, ErrAmountOutOfRange
	}
	currency = strings.ToUpper(currency)
	if !nowpayments.SupportedCurrency(currency) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}

	id := uuid.NewString()
	remote, err := m.gateway.CreateInvoice(ctx, nowpayments.CreateRequest{
		OrderID:     id,
		AmountUSD:   amount,
		Currency:    currency,
		Description: "Telegram bot deposit",
	})
	if err != nil {
		return nil, fmt.Errorf("create remote invoice: %w", err)
	}

	now := m.now()
	inv := &storage.Invoice{
		ID:          id,
		UserID:      userID,
		AmountUSD:   amount,
		PayCurrency: currency,
		Status:      storage.InvoicePending,
		Address:     remote.Address,
		ProviderID:  remote.ProviderID,
		InvoiceURL:  remote.InvoiceURL,
		ExpiresAt:   now.Add(m.cfg.TTL),
		CreatedAt:   now,
	}
	if err := m.store.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("store invoice: %w", err)
	}

	m.watch(inv.ID)
	m.metrics.InvoiceCreated(currency)

	m.log.Info("invoice created",
		"invoice_id", inv.ID,
		"user_id", userID,
		"amount_usd", amount.String(),
		"currency", currency,
		"provider_id", inv.ProviderID,
	)

	return inv, nil
}

// CheckNow evaluates the invoice immediately, as when the user reports having
// paid. The outcome is returned to the caller and not sent to the listener.
func (m *Manager) CheckNow(ctx context.Context, id string) (Event, error) {
	ev, done, err := m.evaluate(ctx, id, m.sched.Guard(id))
	if done {
		m.sched.Deregister(id)
	}
	return ev, err
}

// Cancel stops the poller and then moves the invoice pending -> cancelled.
// An invoice that is already terminal is left alone; applied reports whether
// this call cancelled it.
func (m *Manager) Cancel(ctx context.Context, id string) (bool, error) {
	m.sched.Deregister(id)

	applied, err := m.store.TransitionInvoice(ctx, id, storage.InvoicePending, storage.InvoiceCancelled)
	if err != nil {
		return false, fmt.Errorf("cancel invoice %s: %w", id, err)
	}
	if applied {
		m.metrics.InvoiceTransition(string(storage.InvoiceCancelled))
		m.log.Info("invoice cancelled", "invoice_id", id)
	}
	return applied, nil
}

// CancelPending cancels every invoice the store still holds as pending for
// userID and reports how many it cancelled.
func (m *Manager) CancelPending(ctx context.Context, userID string) (int, error) {
	pending, err := m.store.ListUserPendingInvoices(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list pending invoices: %w", err)
	}

	cancelled := 0
	for _, inv := range pending {
		applied, err := m.Cancel(ctx, inv.ID)
		if err != nil {
			return cancelled, err
		}
		if applied {
			cancelled++
		}
	}
	return cancelled, nil
}

// ApplyProviderStatus applies a status pushed by the provider. Waiting is
// ignored and terminal invoices are left unchanged.
func (m *Manager) ApplyProviderStatus(ctx context.Context, id string, status nowpayments.Status) error {
	if status == nowpayments.StatusWaiting {
		return nil
	}

	inv, err := m.store.GetInvoice(ctx, id)
	if err != nil {
		return fmt.Errorf("load invoice %s: %w", id, err)
	}
	if inv.Status != storage.InvoicePending {
		return nil
	}

	ev, done, err := m.apply(ctx, inv, status, m.sched.Guard(id))
	if err != nil {
		return err
	}
	if done {
		m.sched.Deregister(id)
	}
	if ev.Applied {
		m.emit(ev)
	}
	return nil
}

// Resume registers pollers for every invoice still pending, e.g. after a
// restart. It returns how many were registered.
func (m *Manager) Resume(ctx context.Context) (int, error) {
	pending, err := m.store.ListPendingInvoices(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending invoices: %w", err)
	}

	for _, inv := range pending {
		m.watch(inv.ID)
	}

	m.log.Info("invoice pollers resumed", "count", len(pending))
	return len(pending), nil
}

// Active reports whether a poller is registered for id.
func (m *Manager) Active(id string) bool {
	return m.sched.Registered(id)
}

// Pollers returns the number of registered pollers.
func (m *Manager) Pollers() int {
	return m.sched.Len()
}

// Shutdown stops every poller and waits for them to exit.
func (m *Manager) Shutdown() {
	m.cancel()
	m.sched.Stop()
}

func (m *Manager) watch(id string) {
	m.sched.Register(m.ctx, id, func(ctx context.Context, guard GuardFunc) bool {
		ev, done, err := m.evaluate(ctx, id, guard)
		if err != nil {
			if errors.Is(err, nowpayments.ErrProviderUnavailable) {
				m.log.Warn("provider unavailable, status unknown", "invoice_id", id, sl.Err(err))
			} else if ctx.Err() == nil {
				m.log.Error("invoice tick", "invoice_id", id, sl.Err(err))
			}
		}
		switch {
		case ev.Applied:
			m.emit(ev)
		case ctx.Err() != nil:
			// deregistered while fetching; the snapshot is stale
			return true
		case ev.Kind == EventCountdown:
			m.emit(ev)
		}
		return done
	})
}

// evaluate runs one poll of the invoice. done reports that the invoice no
// longer needs a poller. Errors never make done true.
func (m *Manager) evaluate(ctx context.Context, id string, guard GuardFunc) (Event, bool, error) {
	inv, err := m.store.GetInvoice(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Event{}, true, nil
	}
	if err != nil {
		return Event{}, false, fmt.Errorf("load invoice: %w", err)
	}
	if inv.Status != storage.InvoicePending {
		return settledEvent(inv), true, nil
	}

	if !m.now().Before(inv.ExpiresAt) {
		return m.apply(ctx, inv, nowpayments.StatusExpired, guard)
	}

	status, err := m.gateway.FetchStatus(ctx, nowpayments.InvoiceRef{
		ID:          inv.ID,
		ProviderID:  inv.ProviderID,
		LocalStatus: string(inv.Status),
	})
	if err != nil {
		return m.countdown(inv), false, fmt.Errorf("fetch status: %w", err)
	}

	return m.apply(ctx, inv, status, guard)
}

// apply performs the transition implied by status on a pending invoice.
func (m *Manager) apply(ctx context.Context, inv *storage.Invoice, status nowpayments.Status, guard GuardFunc) (Event, bool, error) {
	var (
		to      storage.InvoiceStatus
		applied bool
		err     error
	)

	switch status {
	case nowpayments.StatusFinished:
		to = storage.InvoiceConfirmed
		if !guard(func() { applied, err = m.store.ConfirmInvoice(ctx, inv.ID) }) {
			return m.current(ctx, inv.ID), true, nil
		}
	case nowpayments.StatusExpired, nowpayments.StatusFailed:
		to = storage.InvoiceExpired
		if !guard(func() {
			applied, err = m.store.TransitionInvoice(ctx, inv.ID, storage.InvoicePending, storage.InvoiceExpired)
		}) {
			return m.current(ctx, inv.ID), true, nil
		}
	default:
		return m.countdown(inv), false, nil
	}

	if err != nil {
		return Event{}, false, fmt.Errorf("transition to %s: %w", to, err)
	}
	if !applied {
		// lost the race; whoever won owns the notification
		return m.current(ctx, inv.ID), true, nil
	}

	m.metrics.InvoiceTransition(string(to))
	if to == storage.InvoiceConfirmed {
		m.metrics.DepositCredited(inv.AmountUSD)
	}

	m.log.Info("invoice settled",
		"invoice_id", inv.ID,
		"user_id", inv.UserID,
		"status", to,
		"provider_status", status,
		"amount_usd", inv.AmountUSD.String(),
	)

	inv.Status = to
	ev := settledEvent(inv)
	ev.Applied = true
	return ev, true, nil
}

func (m *Manager) countdown(inv *storage.Invoice) Event {
	remaining := inv.ExpiresAt.Sub(m.now())
	if remaining < 0 {
		remaining = 0
	}
	return Event{Kind: EventCountdown, Invoice: *inv, Remaining: remaining}
}

// emit resolves the owner at send time; a merge may have re-pointed it.
func (m *Manager) emit(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owner, err := m.store.GetUser(ctx, ev.Invoice.UserID)
	if err != nil {
		m.log.Error("resolve invoice owner", "invoice_id", ev.Invoice.ID, sl.Err(err))
		return
	}
	ev.ExternalID = owner.ExternalID

	m.listener.InvoiceEvent(ctx, ev)
}

// current reports the stored terminal state of an invoice without acting on it.
func (m *Manager) current(ctx context.Context, id string) Event {
	inv, err := m.store.GetInvoice(ctx, id)
	if err != nil {
		return Event{}
	}
	return settledEvent(inv)
}

func settledEvent(inv *storage.Invoice) Event {
	switch inv.Status {
	case storage.InvoiceConfirmed:
		return Event{Kind: EventConfirmed, Invoice: *inv}
	case storage.InvoiceExpired:
		return Event{Kind: EventExpired, Invoice: *inv}
	case storage.InvoiceCancelled:
		return Event{Kind: EventCancelled, Invoice: *inv}
	}
	return Event{}
}

type nopRecorder struct{}

func (nopRecorder) InvoiceCreated(string)           {}
func (nopRecorder) InvoiceTransition(string)        {}
func (nopRecorder) DepositCredited(decimal.Decimal) {}
func (nopRecorder) SetPollers(int)                  {}
