package invoice

import (
	"context"
	"time"

	"github.com/suspectuso/numcheck-bot/internal/storage"
)

type EventKind int

const (
	EventNone EventKind = iota
	EventCountdown
	EventConfirmed
	EventExpired
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventCountdown:
		return "countdown"
	case EventConfirmed:
		return "confirmed"
	case EventExpired:
		return "expired"
	case EventCancelled:
		return "cancelled"
	}
	return "none"
}

// Event describes what a poll found out about an invoice.
type Event struct {
	Kind    EventKind
	Invoice storage.Invoice

	// Applied is set when this evaluation performed the terminal transition.
	Applied bool
	// Remaining is the time left before expiry, for countdown events.
	Remaining time.Duration
	// ExternalID is the owner's messenger id, filled in when the event is sent.
	ExternalID int64
}

// Listener receives events produced by pollers and provider callbacks.
type Listener interface {
	InvoiceEvent(ctx context.Context, ev Event)
}

type nopListener struct{}

func (nopListener) InvoiceEvent(context.Context, Event) {}
