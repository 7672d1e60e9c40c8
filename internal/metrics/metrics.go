// Package metrics holds the bot's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "numcheck"

type Metrics struct {
	registry *prometheus.Registry

	InvoicesCreated    *prometheus.CounterVec
	InvoiceTransitions *prometheus.CounterVec
	DepositsCredited   prometheus.Counter
	PollersActive      prometheus.Gauge
	ProviderRequests   *prometheus.CounterVec
	AccountMerges      prometheus.Counter
	ChecksCompleted    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		InvoicesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_created_total",
			Help:      "Deposit invoices created, by pay currency.",
		}, []string{"currency"}),
		InvoiceTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_transitions_total",
			Help:      "Applied invoice status transitions, by target status.",
		}, []string{"status"}),
		DepositsCredited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposits_credited_usd_total",
			Help:      "USD credited to balances from confirmed invoices.",
		}),
		PollersActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invoice_pollers_active",
			Help:      "Invoice pollers currently registered.",
		}),
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Payment provider request attempts, by operation and outcome.",
		}, []string{"op", "outcome"}),
		AccountMerges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_merges_total",
			Help:      "Account merges committed.",
		}),
		ChecksCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_completed_total",
			Help:      "Number checks completed, by input source.",
		}, []string{"source"}),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ProviderRequest implements nowpayments.Observer.
func (m *Metrics) ProviderRequest(op, outcome string) {
	m.ProviderRequests.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) InvoiceCreated(currency string) {
	m.InvoicesCreated.WithLabelValues(currency).Inc()
}

func (m *Metrics) InvoiceTransition(status string) {
	m.InvoiceTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) DepositCredited(amount decimal.Decimal) {
	m.DepositsCredited.Add(amount.InexactFloat64())
}

func (m *Metrics) SetPollers(n int) {
	m.PollersActive.Set(float64(n))
}

func (m *Metrics) AccountMerged() {
	m.AccountMerges.Inc()
}

func (m *Metrics) CheckCompleted(source string) {
	m.ChecksCompleted.WithLabelValues(source).Inc()
}
