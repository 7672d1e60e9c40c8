package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/suspectuso/numcheck-bot/internal/lib/sl"
	"github.com/suspectuso/numcheck-bot/internal/nowpayments"
	"github.com/suspectuso/numcheck-bot/internal/storage"
)

const maxIPNBody = 64 << 10

// InvoiceUpdater applies statuses pushed by the payment provider.
type InvoiceUpdater interface {
	ApplyProviderStatus(ctx context.Context, id string, status nowpayments.Status) error
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the ops HTTP server: provider callbacks, health and metrics.
type Server struct {
	invoices  InvoiceUpdater
	store     Pinger
	metrics   http.Handler
	ipnSecret string
	limiter   *rate.Limiter
	log       *slog.Logger

	server *http.Server
}

// NewServer creates a new ops server. metrics may be nil.
func NewServer(invoices InvoiceUpdater, store Pinger, metrics http.Handler, ipnSecret string, log *slog.Logger) *Server {
	return &Server{
		invoices:  invoices,
		store:     store,
		metrics:   metrics,
		ipnSecret: ipnSecret,
		limiter:   rate.NewLimiter(20, 40),
		log:       log.With("component", "webhook"),
	}
}

// Router returns the server's routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)

	r.With(s.rateLimit).Post("/nowpayments/ipn", s.handleIPN)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return r
}

// Start serves on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if s.ipnSecret == "" {
		s.log.Warn("NOWPAYMENTS_IPN_SECRET not set, provider callbacks will be rejected")
	}
	s.log.Info("starting ops server", "port", port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("ops server shutdown", sl.Err(err))
		}
	}()

	return s.server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("health check failed", sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"status": "unavailable"})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleIPN verifies and applies a provider payment notification. Unknown
// orders are acknowledged so the provider stops retrying them; store
// failures answer 500 so it retries.
func (s *Server) handleIPN(w http.ResponseWriter, r *http.Request) {
	log := s.log.With("request_id", middleware.GetReqID(r.Context()))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIPNBody))
	if err != nil {
		log.Warn("read ipn body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ipn, err := nowpayments.ParseIPN(s.ipnSecret, body, r.Header.Get(nowpayments.SignatureHeader))
	if errors.Is(err, nowpayments.ErrInvalidSignature) {
		log.Warn("ipn rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Warn("invalid ipn payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if ipn.OrderID == "" {
		log.Warn("ipn without order_id", "payment_id", ipn.PaymentID.String())
		render.JSON(w, r, map[string]string{"status": "ignored"})
		return
	}

	status := nowpayments.MapStatus(ipn.PaymentStatus)
	log.Info("ipn received",
		"order_id", ipn.OrderID,
		"payment_status", ipn.PaymentStatus,
		"status", status,
	)

	err = s.invoices.ApplyProviderStatus(r.Context(), ipn.OrderID, status)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("ipn for unknown order", "order_id", ipn.OrderID)
		render.JSON(w, r, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		log.Error("apply ipn", "order_id", ipn.OrderID, sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.log.Warn("too many ipn requests")
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, map[string]string{"status": "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
