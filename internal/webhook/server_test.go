package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/numcheck-bot/internal/nowpayments"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

const testSecret = "ipn-secret"

type applied struct {
	id     string
	status nowpayments.Status
}

type fakeInvoices struct {
	mu    sync.Mutex
	calls []applied
	err   error
}

func (f *fakeInvoices) ApplyProviderStatus(ctx context.Context, id string, status nowpayments.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, applied{id, status})
	return f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, inv *fakeInvoices, ping error) *httptest.Server {
	t.Helper()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "numcheck_up 1\n")
	})
	s := NewServer(inv, fakePinger{ping}, metrics, testSecret, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postIPN(t *testing.T, url string, body []byte, sig string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/nowpayments/ipn", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set(nowpayments.SignatureHeader, sig)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func sign(t *testing.T, body []byte) string {
	t.Helper()
	sig, err := nowpayments.Sign(testSecret, body)
	require.NoError(t, err)
	return sig
}

func TestIPN(t *testing.T) {
	tests := []struct {
		name       string
		paymentSt  string
		applyErr   error
		wantCode   int
		wantStatus nowpayments.Status
	}{
		{"finished", "finished", nil, http.StatusOK, nowpayments.StatusFinished},
		{"partially paid waits", "partially_paid", nil, http.StatusOK, nowpayments.StatusWaiting},
		{"refunded fails", "refunded", nil, http.StatusOK, nowpayments.StatusFailed},
		{"unknown order acknowledged", "finished", fmt.Errorf("load invoice: %w", storage.ErrNotFound), http.StatusOK, nowpayments.StatusFinished},
		{"store failure retried", "finished", errors.New("database is locked"), http.StatusInternalServerError, nowpayments.StatusFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoices{err: tt.applyErr}
			srv := newTestServer(t, inv, nil)

			body := []byte(fmt.Sprintf(`{"payment_id":123,"order_id":"inv-1","payment_status":%q}`, tt.paymentSt))
			resp := postIPN(t, srv.URL, body, sign(t, body))

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			require.Len(t, inv.calls, 1)
			assert.Equal(t, applied{"inv-1", tt.wantStatus}, inv.calls[0])
		})
	}
}

func TestIPNRejected(t *testing.T) {
	body := []byte(`{"order_id":"inv-1","payment_status":"finished"}`)

	tests := []struct {
		name     string
		body     []byte
		sig      string
		wantCode int
	}{
		{"missing signature", body, "", http.StatusUnauthorized},
		{"wrong signature", body, "deadbeef", http.StatusUnauthorized},
		{"tampered body", []byte(`{"order_id":"inv-2","payment_status":"finished"}`), sign(t, body), http.StatusUnauthorized},
		{"malformed body", []byte(`{not json`), "deadbeef", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoices{}
			srv := newTestServer(t, inv, nil)

			resp := postIPN(t, srv.URL, tt.body, tt.sig)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Empty(t, inv.calls)
		})
	}
}

func TestIPNWithoutOrderIsIgnored(t *testing.T) {
	inv := &fakeInvoices{}
	srv := newTestServer(t, inv, nil)

	body := []byte(`{"payment_id":1,"payment_status":"finished"}`)
	resp := postIPN(t, srv.URL, body, sign(t, body))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, inv.calls)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeInvoices{}, nil)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	down := newTestServer(t, &fakeInvoices{}, errors.New("db closed"))
	resp, err = http.Get(down.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsRoute(t *testing.T) {
	srv := newTestServer(t, &fakeInvoices{}, nil)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "numcheck_up")
}
