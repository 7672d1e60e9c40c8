package session

import (
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/suspectuso/numcheck-bot/internal/storage"
)

// Awaiting is the kind of input a conversation is waiting for. The set is
// closed: only the types below implement it.
type Awaiting interface {
	awaiting()
	String() string
}

type (
	Idle                     struct{}
	AwaitingSecretKeyRestore struct{}
	AwaitingDepositAmount    struct{}
	AwaitingCurrencyChoice   struct{}
	InvoiceActive            struct{}
	AwaitingCheckText        struct{}
	AwaitingCheckFile        struct{}
	AwaitingCheckScreenshot  struct{}
)

func (Idle) awaiting()                     {}
func (AwaitingSecretKeyRestore) awaiting() {}
func (AwaitingDepositAmount) awaiting()    {}
func (AwaitingCurrencyChoice) awaiting()   {}
func (InvoiceActive) awaiting()            {}
func (AwaitingCheckText) awaiting()        {}
func (AwaitingCheckFile) awaiting()        {}
func (AwaitingCheckScreenshot) awaiting()  {}

func (Idle) String() string                     { return "idle" }
func (AwaitingSecretKeyRestore) String() string { return "awaiting_secret_key_restore" }
func (AwaitingDepositAmount) String() string    { return "awaiting_deposit_amount" }
func (AwaitingCurrencyChoice) String() string   { return "awaiting_currency_choice" }
func (InvoiceActive) String() string            { return "invoice_active" }
func (AwaitingCheckText) String() string        { return "awaiting_check_text" }
func (AwaitingCheckFile) String() string        { return "awaiting_check_file" }
func (AwaitingCheckScreenshot) String() string  { return "awaiting_check_screenshot" }

// Deposit is the in-progress deposit of a conversation. InvoiceID outlives
// the awaiting state so a new deposit can close the previous invoice.
type Deposit struct {
	Amount    decimal.Decimal
	Currency  string
	InvoiceID string
}

// CheckState keeps the latest check batch for export.
type CheckState struct {
	Last []storage.CheckResult
}

// Session is the ephemeral state of one conversation. It is not persisted.
type Session struct {
	mu sync.Mutex

	Awaiting Awaiting
	Deposit  Deposit
	Check    CheckState

	cooldown *rate.Limiter
}

// Snapshot is a copy of a session safe to read without its lock.
type Snapshot struct {
	Awaiting Awaiting
	Deposit  Deposit
	Check    CheckState
}

// Store keeps sessions keyed by conversation id.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	newLimit func() *rate.Limiter
}

func NewStore(newLimit func() *rate.Limiter) *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		newLimit: newLimit,
	}
}

// Get returns the session for chatID, creating an idle one on first use.
func (st *Store) Get(chatID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[chatID]
	if !ok {
		s = &Session{Awaiting: Idle{}, cooldown: st.newLimit()}
		st.sessions[chatID] = s
	}
	return s
}

// Lookup returns the session for chatID without creating it.
func (st *Store) Lookup(chatID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[chatID]
	return s, ok
}

// Len returns the number of known sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (s *Session) snapshot() Snapshot {
	last := make([]storage.CheckResult, len(s.Check.Last))
	copy(last, s.Check.Last)
	return Snapshot{Awaiting: s.Awaiting, Deposit: s.Deposit, Check: CheckState{Last: last}}
}
