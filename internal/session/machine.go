// Package session is the per-conversation state machine. It turns user
// intents into calls on the account and invoice services and answers with
// typed replies for the conversational layer to render.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/suspectuso/numcheck-bot/internal/account"
	"github.com/suspectuso/numcheck-bot/internal/checker"
	"github.com/suspectuso/numcheck-bot/internal/i18n"
	"github.com/suspectuso/numcheck-bot/internal/invoice"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

// Accounts is the account service the machine drives.
type Accounts interface {
	EnsureUser(ctx context.Context, externalID int64) (*storage.User, string, error)
	GetUser(ctx context.Context, id string) (*storage.User, error)
	SetLanguage(ctx context.Context, userID, language string) error
	Restore(ctx context.Context, currentUserID, secret string) (*storage.User, error)
	Plans() []account.Plan
	Purchase(ctx context.Context, userID, planName string) (*storage.SubscriptionRecord, error)
}

// Invoices is the invoice lifecycle the machine drives.
type Invoices interface {
	Create(ctx context.Context, userID string, amount decimal.Decimal, currency string) (*storage.Invoice, error)
	CheckNow(ctx context.Context, id string) (invoice.Event, error)
	Cancel(ctx context.Context, id string) (bool, error)
	CancelPending(ctx context.Context, userID string) (int, error)
}

// CheckStore persists check batches.
type CheckStore interface {
	CreateCheck(ctx context.Context, rec *storage.CheckRecord) error
}

// Notifier delivers replies that are not answers to a user action, such as
// poller events.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, replies ...Reply)
}

// Recorder receives check metrics.
type Recorder interface {
	CheckCompleted(source string)
}

type Config struct {
	MinDeposit      decimal.Decimal
	MaxDeposit      decimal.Decimal
	CheckCooldown   time.Duration
	CheckMaxNumbers int
}

type Machine struct {
	accounts   Accounts
	invoices   Invoices
	checks     CheckStore
	recognizer checker.Recognizer
	notifier   Notifier
	metrics    Recorder
	cfg        Config
	sessions   *Store
	log        *slog.Logger
	now        func() time.Time
}

func NewMachine(accounts Accounts, invoices Invoices, checks CheckStore, cfg Config, metrics Recorder, log *slog.Logger) *Machine {
	cooldown := rate.Every(cfg.CheckCooldown)
	if cfg.CheckCooldown <= 0 {
		cooldown = rate.Inf
	}

	return &Machine{
		accounts:   accounts,
		invoices:   invoices,
		checks:     checks,
		recognizer: checker.NoRecognizer{},
		notifier:   nopNotifier{},
		metrics:    metrics,
		cfg:        cfg,
		sessions:   NewStore(func() *rate.Limiter { return rate.NewLimiter(cooldown, 1) }),
		log:        log.With("component", "session"),
		now:        time.Now,
	}
}

// SetNotifier sets the receiver of asynchronous replies.
func (m *Machine) SetNotifier(n Notifier) {
	m.notifier = n
}

// SetRecognizer sets the screenshot text recognizer.
func (m *Machine) SetRecognizer(r checker.Recognizer) {
	m.recognizer = r
}

// Snapshot returns a copy of the conversation's state.
func (m *Machine) Snapshot(chatID int64) Snapshot {
	s := m.sessions.Get(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// turn is the context of one handled intent.
type turn struct {
	s      *Session
	chatID int64
	user   *storage.User
	secret string
}

func (t *turn) lang() string {
	return t.user.Language
}

// HandleIntent applies intent to the conversation chatID. Intents for one
// conversation are serialized. A *UserError leaves the state unchanged.
func (m *Machine) HandleIntent(ctx context.Context, chatID int64, in Intent) ([]Reply, error) {
	return m.handle(ctx, chatID, func(Awaiting) Intent { return in })
}

// HandleText routes free text by what the conversation is waiting for.
func (m *Machine) HandleText(ctx context.Context, chatID int64, text string) ([]Reply, error) {
	return m.handle(ctx, chatID, func(a Awaiting) Intent { return textIntent(a, text) })
}

func textIntent(awaiting Awaiting, text string) Intent {
	switch awaiting.(type) {
	case Idle, InvoiceActive:
		return unexpected{}
	case AwaitingSecretKeyRestore:
		return SubmitSecretKey{Key: text}
	case AwaitingDepositAmount:
		return SubmitAmount{Text: text}
	case AwaitingCurrencyChoice:
		return ChooseCurrency{Currency: text}
	case AwaitingCheckText:
		return SubmitCheckInput{Source: checker.SourceText, Text: text}
	case AwaitingCheckFile:
		return SubmitCheckInput{Source: checker.SourceFile, Text: text}
	case AwaitingCheckScreenshot:
		return SubmitCheckInput{Source: checker.SourceScreenshot, Text: text}
	}
	panic(fmt.Sprintf("session: unhandled state %T", awaiting))
}

// unexpected is free text nothing is waiting for.
type unexpected struct{}

func (unexpected) intent() {}

func (m *Machine) handle(ctx context.Context, chatID int64, resolve func(Awaiting) Intent) ([]Reply, error) {
	s := m.sessions.Get(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()

	user, secret, err := m.accounts.EnsureUser(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	t := &turn{s: s, chatID: chatID, user: user, secret: secret}

	before := s.Awaiting
	in := resolve(before)
	replies, err := m.dispatch(ctx, t, in)

	var uerr *UserError
	if errors.As(err, &uerr) {
		err = localize(uerr, t.lang(), uerr.Args)
	}

	if secret != "" {
		if _, isStart := in.(Start); !isStart {
			replies = append([]Reply{m.secretReply(t)}, replies...)
		}
	}

	if err == nil && before != s.Awaiting {
		m.log.Debug("session transition",
			"chat_id", chatID,
			"intent", fmt.Sprintf("%T", in),
			"from", before.String(),
			"to", s.Awaiting.String(),
		)
	}

	return replies, err
}

func (m *Machine) dispatch(ctx context.Context, t *turn, in Intent) ([]Reply, error) {
	switch in := in.(type) {
	case Start:
		return m.start(ctx, t)
	case ChooseLanguage:
		return m.chooseLanguage(ctx, t, in.Language)
	case ConfirmSecretSaved:
		return []Reply{{Kind: KindNotice, Lang: t.lang(), Text: i18n.SecretKeySaved, TTL: PromptTTL}}, nil
	case RequestSecretRestore:
		t.s.Awaiting = AwaitingSecretKeyRestore{}
		return []Reply{{Kind: KindPrompt, Lang: t.lang(), Text: i18n.SecretKeyPrompt, TTL: PromptTTL}}, nil
	case SubmitSecretKey:
		return m.submitSecretKey(ctx, t, in.Key)
	case RequestDeposit:
		return m.requestDeposit(ctx, t)
	case SubmitAmount:
		return m.submitAmount(t, in.Text)
	case ChooseCurrency:
		return m.chooseCurrency(ctx, t, in.Currency)
	case SubmitPaymentCheck:
		return m.submitPaymentCheck(ctx, t)
	case ChangeCurrency:
		return m.changeCurrency(ctx, t)
	case CancelDeposit:
		return m.cancelDeposit(ctx, t)
	case RequestCheck:
		return m.requestCheck(t)
	case ChooseCheckMode:
		return m.chooseCheckMode(t, in.Source)
	case SubmitCheckInput:
		return m.submitCheckInput(ctx, t, in)
	case ExportCheck:
		return m.exportCheck(t)
	case RequestSubscription:
		return []Reply{m.plansReply(t)}, nil
	case ChoosePlan:
		return m.choosePlan(ctx, t, in.Plan)
	case GoHome:
		t.s.Awaiting = Idle{}
		return []Reply{m.homeReply(t.user)}, nil
	case unexpected:
		return nil, ErrUnexpectedInput
	default:
		return nil, fmt.Errorf("unhandled intent %T", in)
	}
}

func (m *Machine) start(ctx context.Context, t *turn) ([]Reply, error) {
	t.s.Awaiting = Idle{}

	if t.secret == "" {
		return []Reply{m.homeReply(t.user)}, nil
	}
	return []Reply{
		m.secretReply(t),
		{Kind: KindLanguageMenu, Lang: t.lang(), Text: i18n.ChooseLanguage},
	}, nil
}

func (m *Machine) chooseLanguage(ctx context.Context, t *turn, lang string) ([]Reply, error) {
	if !i18n.Supported(lang) {
		return nil, ErrUnsupportedLanguage
	}
	if err := m.accounts.SetLanguage(ctx, t.user.ID, lang); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	t.user.Language = lang
	t.s.Awaiting = Idle{}

	return []Reply{
		{Kind: KindNotice, Lang: lang, Text: i18n.Welcome},
		m.homeReply(t.user),
	}, nil
}

func (m *Machine) submitSecretKey(ctx context.Context, t *turn, key string) ([]Reply, error) {
	if _, ok := t.s.Awaiting.(AwaitingSecretKeyRestore); !ok {
		return nil, ErrUnexpectedInput
	}

	merged, err := m.accounts.Restore(ctx, t.user.ID, key)
	if errors.Is(err, account.ErrUnknownSecret) {
		return nil, ErrUnknownSecret
	}
	if err != nil {
		return nil, fmt.Errorf("restore account: %w", err)
	}

	t.user = merged
	t.s.Awaiting = Idle{}
	return []Reply{
		{Kind: KindNotice, Lang: t.lang(), Text: i18n.RestoreSuccess},
		m.homeReply(merged),
	}, nil
}

func (m *Machine) choosePlan(ctx context.Context, t *turn, name string) ([]Reply, error) {
	rec, err := m.accounts.Purchase(ctx, t.user.ID, name)
	switch {
	case errors.Is(err, storage.ErrInsufficientBalance):
		return nil, ErrInsufficientBalance
	case errors.Is(err, account.ErrUnknownPlan):
		return nil, ErrUnexpectedInput
	case err != nil:
		return nil, fmt.Errorf("purchase: %w", err)
	}

	user, err := m.accounts.GetUser(ctx, t.user.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	t.user = user
	t.s.Awaiting = Idle{}

	return []Reply{
		{Kind: KindNotice, Lang: t.lang(), Text: i18n.SubscriptionActivated, Args: i18n.Args{"date": formatDate(rec.ExpiresAt)}},
		m.homeReply(user),
	}, nil
}

func (m *Machine) secretReply(t *turn) Reply {
	return Reply{
		Kind: KindSecretKey,
		Lang: t.lang(),
		Text: i18n.SecretKeyTitle,
		Args: i18n.Args{"key": t.secret},
		TTL:  SecretTTL,
	}
}

func (m *Machine) homeReply(u *storage.User) Reply {
	sub := "—"
	if u.Subscription.Active(m.now()) {
		sub = formatDate(*u.Subscription.ExpiresAt)
	}
	return Reply{
		Kind: KindHome,
		Lang: u.Language,
		Text: i18n.Home,
		Args: i18n.Args{"balance": u.Balance.StringFixed(2), "subscription": sub},
	}
}

func (m *Machine) plansReply(t *turn) Reply {
	return Reply{
		Kind:  KindPlans,
		Lang:  t.lang(),
		Text:  i18n.SubscriptionPrompt,
		Plans: m.accounts.Plans(),
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, int64, ...Reply) {}
