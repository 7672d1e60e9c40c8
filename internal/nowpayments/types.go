package nowpayments

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// createInvoiceRequest is the body of POST /invoice
type createInvoiceRequest struct {
	PriceAmount      json.Number `json:"price_amount"`
	PriceCurrency    string      `json:"price_currency"`
	PayCurrency      string      `json:"pay_currency"`
	OrderID          string      `json:"order_id"`
	OrderDescription string      `json:"order_description"`
	IPNCallbackURL   string      `json:"ipn_callback_url,omitempty"`
}

// invoiceResponse is returned by POST /invoice and GET /invoice/{id}
type invoiceResponse struct {
	ID            flexString `json:"id"`
	InvoiceURL    string     `json:"invoice_url"`
	PayAddress    string     `json:"pay_address"`
	PayCurrency   string     `json:"pay_currency"`
	PaymentStatus string     `json:"payment_status"`
	PayAmount     flexString `json:"pay_amount"`
}

// IPN is the instant payment notification posted by the provider.
type IPN struct {
	PaymentID     flexString `json:"payment_id"`
	InvoiceID     flexString `json:"invoice_id"`
	OrderID       string     `json:"order_id"`
	PaymentStatus string     `json:"payment_status"`
	PayAddress    string     `json:"pay_address"`
	PayCurrency   string     `json:"pay_currency"`
}

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// flexString accepts both JSON strings and numbers; the provider sends ids
// and amounts either way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f flexString) String() string {
	return string(f)
}
