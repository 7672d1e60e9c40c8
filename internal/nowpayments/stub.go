package nowpayments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/tonkeeper/tongo/ton"
)

// Stub is the local gateway used when no API key is configured. Addresses are
// derived from the order id and statuses come from the stored invoice.
type Stub struct{}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) CreateInvoice(ctx context.Context, req CreateRequest) (*RemoteInvoice, error) {
	return &RemoteInvoice{Address: StubAddress(req.OrderID, req.Currency)}, nil
}

func (s *Stub) FetchStatus(ctx context.Context, ref InvoiceRef) (Status, error) {
	return localStatus(ref.LocalStatus), nil
}

// StubAddress returns a deterministic placeholder address. TON gets a valid
// user-friendly account address so it renders like a real one.
func StubAddress(orderID, currency string) string {
	sum := sha256.Sum256([]byte(orderID))

	if strings.EqualFold(currency, "TON") {
		acc := ton.AccountID{Workchain: 0, Address: sum}
		return acc.ToHuman(true, false)
	}

	return "demo-" + hex.EncodeToString(sum[:12])
}
