// Package nowpayments talks to the NOWPayments invoice API. A Gateway is
// chosen once at startup: the live Client when an API key is configured,
// otherwise the local Stub.
package nowpayments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrProviderUnavailable means the provider could not be reached within the
// retry budget. Callers treat the status as unknown and try again later.
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// Status is the provider's payment state reduced to what the bot acts on.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusFinished Status = "finished"
	StatusExpired  Status = "expired"
	StatusFailed   Status = "failed"
)

// Currencies the bot offers for deposits.
var Currencies = []string{"USDTTRC20", "TON", "TRX", "BTC"}

// SupportedCurrency reports whether c is one of Currencies.
func SupportedCurrency(c string) bool {
	for _, cur := range Currencies {
		if strings.EqualFold(cur, c) {
			return true
		}
	}
	return false
}

// CreateRequest describes a deposit to open at the provider.
type CreateRequest struct {
	OrderID     string // local invoice id
	AmountUSD   decimal.Decimal
	Currency    string
	Description string
}

// RemoteInvoice is what the provider returns for a new invoice.
type RemoteInvoice struct {
	Address    string
	ProviderID string
	InvoiceURL string
}

// InvoiceRef identifies an invoice for a status lookup.
type InvoiceRef struct {
	ID          string
	ProviderID  string
	LocalStatus string
}

// Gateway is the payment provider capability used by the invoice manager.
type Gateway interface {
	CreateInvoice(ctx context.Context, req CreateRequest) (*RemoteInvoice, error)
	FetchStatus(ctx context.Context, ref InvoiceRef) (Status, error)
}

// Observer receives one call per provider request attempt outcome.
type Observer interface {
	ProviderRequest(op, outcome string)
}

// Options configures New.
type Options struct {
	BaseURL     string
	APIKey      string
	CallbackURL string // IPN endpoint, optional
	RPS         float64
	MaxRetries  int
	Timeout     time.Duration
	Observer    Observer
}

// New returns the live client when an API key is set and the stub otherwise.
func New(opts Options, log *slog.Logger) Gateway {
	if opts.APIKey == "" {
		log.Warn("NOWPAYMENTS_API_KEY not set, using stub payment gateway")
		return NewStub()
	}
	log.Info("using NOWPayments gateway", "url", opts.BaseURL)
	return NewClient(opts)
}

// MapStatus reduces the provider vocabulary to Status. Anything ambiguous is
// waiting so that it never causes a credit.
func MapStatus(providerStatus string) Status {
	switch strings.ToLower(providerStatus) {
	case "finished":
		return StatusFinished
	case "failed", "refunded":
		return StatusFailed
	case "expired":
		return StatusExpired
	default:
		// waiting, confirming, confirmed, sending, partially_paid, unknown
		return StatusWaiting
	}
}

// localStatus derives a provider status from the stored invoice status.
func localStatus(status string) Status {
	switch status {
	case "confirmed":
		return StatusFinished
	case "expired":
		return StatusExpired
	default:
		return StatusWaiting
	}
}
