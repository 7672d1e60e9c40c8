package nowpayments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client is the live NOWPayments HTTP client
type Client struct {
	baseURL     string
	apiKey      string
	callbackURL string
	httpClient  *http.Client
	timeout     time.Duration
	maxRetries  int
	observer    Observer

	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
}

// NewClient creates a live client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = 2
	}

	return &Client{
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		callbackURL: opts.CallbackURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout:    timeout,
		maxRetries: opts.MaxRetries,
		observer:   opts.Observer,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

// CreateInvoice opens an invoice at the provider.
func (c *Client) CreateInvoice(ctx context.Context, req CreateRequest) (*RemoteInvoice, error) {
	body := createInvoiceRequest{
		PriceAmount:      json.Number(req.AmountUSD.String()),
		PriceCurrency:    "usd",
		PayCurrency:      strings.ToLower(req.Currency),
		OrderID:          req.OrderID,
		OrderDescription: req.Description,
		IPNCallbackURL:   c.callbackURL,
	}

	var resp invoiceResponse
	if err := c.call(ctx, "create_invoice", http.MethodPost, "/invoice", body, &resp); err != nil {
		return nil, err
	}

	return &RemoteInvoice{
		Address:    resp.PayAddress,
		ProviderID: resp.ID.String(),
		InvoiceURL: resp.InvoiceURL,
	}, nil
}

// FetchStatus returns the provider status of an invoice. Invoices created
// without a provider id fall back to their stored status.
func (c *Client) FetchStatus(ctx context.Context, ref InvoiceRef) (Status, error) {
	if ref.ProviderID == "" {
		return localStatus(ref.LocalStatus), nil
	}

	var resp invoiceResponse
	if err := c.call(ctx, "fetch_status", http.MethodGet, "/invoice/"+ref.ProviderID, nil, &resp); err != nil {
		return "", err
	}

	return MapStatus(resp.PaymentStatus), nil
}

// call runs one request under the retry policy and decodes the response into
// out. Transport errors and 5xx are retried; 4xx is returned as is.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	var data []byte

	attempt := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var err error
		data, err = c.doRequest(ctx, method, path, body)
		if err == nil {
			c.observe(op, "ok")
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			c.observe(op, "rejected")
			return backoff.Permanent(err)
		}
		c.observe(op, "retry")
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return fmt.Errorf("%s: %w", op, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		c.observe(op, "unavailable")
		return fmt.Errorf("%s: %w: %w", op, ErrProviderUnavailable, err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: unmarshal: %w", op, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

func (c *Client) observe(op, outcome string) {
	if c.observer != nil {
		c.observer.ProviderRequest(op, outcome)
	}
}
