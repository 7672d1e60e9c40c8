package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the persisted lifecycle state of a deposit invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoiceConfirmed InvoiceStatus = "confirmed"
	InvoiceExpired   InvoiceStatus = "expired"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Terminal reports whether no transition may leave the status.
func (s InvoiceStatus) Terminal() bool {
	switch s {
	case InvoiceConfirmed, InvoiceExpired, InvoiceCancelled:
		return true
	}
	return false
}

// CanTransition allows only pending -> terminal.
func CanTransition(from, to InvoiceStatus) bool {
	return from == InvoicePending && to.Terminal()
}

// User is the aggregate root for invoices, subscription history and checks.
type User struct {
	ID                string
	ExternalID        int64 // telegram user id
	Language          string
	Balance           decimal.Decimal
	Subscription      Subscription
	SecretKeyHash     string
	SecretKeyIssuedAt time.Time
	CreatedAt         time.Time
}

// Subscription is the user's current access window.
type Subscription struct {
	ExpiresAt *time.Time
}

// Active reports whether the subscription expires strictly after now.
func (s Subscription) Active(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.After(now)
}

// Invoice represents a deposit request
type Invoice struct {
	ID          string
	UserID      string
	AmountUSD   decimal.Decimal
	PayCurrency string
	Status      InvoiceStatus
	Address     string
	ProviderID  string // empty in stub mode
	InvoiceURL  string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// SubscriptionRecord is a write-once purchase history entry.
type SubscriptionRecord struct {
	ID        string
	UserID    string
	Plan      string
	Price     decimal.Decimal
	StartedAt time.Time
	ExpiresAt time.Time
}

// CheckResult is the classification of one number.
type CheckResult struct {
	Number string `json:"number"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// CheckRecord summarizes one classification batch.
type CheckRecord struct {
	ID        string
	UserID    string
	Source    string
	Total     int
	Clean     int
	Locked    int
	Blocked   int
	Errors    int
	Results   []CheckResult
	CreatedAt time.Time
}

// Stats is the admin report.
type Stats struct {
	Users               int
	ActiveSubscriptions int
	HistoryActive       int
	HistoryExpired      int
	PendingInvoices     int
	ConfirmedInvoices   int
}

// Collection names a record kind owned by a user.
type Collection string

const (
	CollectionInvoices      Collection = "invoices"
	CollectionSubscriptions Collection = "subscriptions"
	CollectionChecks        Collection = "checks"
)

// OwnedCollections lists every collection re-pointed during an account merge.
var OwnedCollections = []Collection{CollectionInvoices, CollectionSubscriptions, CollectionChecks}
