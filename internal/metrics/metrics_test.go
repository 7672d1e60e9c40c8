package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.InvoiceCreated("TON")
	m.InvoiceCreated("TON")
	m.InvoiceTransition("confirmed")
	m.DepositCredited(decimal.RequireFromString("50.25"))
	m.SetPollers(3)
	m.ProviderRequest("fetch_status", "ok")
	m.AccountMerged()
	m.CheckCompleted("text")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvoicesCreated.WithLabelValues("TON")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvoiceTransitions.WithLabelValues("confirmed")))
	assert.Equal(t, 50.25, testutil.ToFloat64(m.DepositsCredited))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PollersActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("fetch_status", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountMerges))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "numcheck_invoices_created_total")
	assert.Contains(t, string(body), "numcheck_account_merges_total 1")
}
