package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/suspectuso/numcheck-bot/internal/account"
	"github.com/suspectuso/numcheck-bot/internal/checker"
	"github.com/suspectuso/numcheck-bot/internal/config"
	"github.com/suspectuso/numcheck-bot/internal/invoice"
	"github.com/suspectuso/numcheck-bot/internal/lib/sl"
	"github.com/suspectuso/numcheck-bot/internal/metrics"
	"github.com/suspectuso/numcheck-bot/internal/nowpayments"
	"github.com/suspectuso/numcheck-bot/internal/session"
	"github.com/suspectuso/numcheck-bot/internal/storage"
	"github.com/suspectuso/numcheck-bot/internal/telegram"
	"github.com/suspectuso/numcheck-bot/internal/webhook"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load config
	cfg := config.Load()

	// Setup logger
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(log)

	if envErr != nil {
		log.Debug("no .env file found")
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", sl.Err(err))
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Error("init storage", sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "driver", cfg.DBDriver)

	m := metrics.New()

	// Initialize payment gateway
	gateway := nowpayments.New(nowpayments.Options{
		BaseURL:     cfg.NowPaymentsBaseURL,
		APIKey:      cfg.NowPaymentsAPIKey,
		CallbackURL: cfg.NowPaymentsIPNURL,
		RPS:         cfg.ProviderRPS,
		MaxRetries:  cfg.ProviderMaxRetries,
		Timeout:     cfg.ProviderTimeout,
		Observer:    m,
	}, log)

	invoices := invoice.NewManager(store, gateway, invoice.Config{
		PollInterval: cfg.PollInterval,
		MinAmount:    cfg.MinDepositUSD,
		MaxAmount:    cfg.MaxDepositUSD,
	}, m, log)
	defer invoices.Shutdown()

	accounts := account.NewService(store,
		account.DefaultPlans(cfg.PlanDailyUSD, cfg.PlanWeeklyUSD, cfg.PlanMonthlyUSD),
		m, log)

	machine := session.NewMachine(accounts, invoices, store, session.Config{
		MinDeposit:      cfg.MinDepositUSD,
		MaxDeposit:      cfg.MaxDepositUSD,
		CheckCooldown:   cfg.CheckCooldown,
		CheckMaxNumbers: cfg.CheckMaxNumbers,
	}, m, log)

	// Screenshot checks need a local Tesseract install
	ocr, err := checker.NewTesseract(cfg.OCRLanguages...)
	if err != nil {
		log.Warn("screenshot recognition disabled", sl.Err(err))
	} else {
		defer ocr.Close()
		machine.SetRecognizer(ocr)
		log.Info("screenshot recognition enabled", "languages", cfg.OCRLanguages)
	}

	// Initialize telegram bot
	bot, err := telegram.New(cfg.BotToken, cfg.AdminID, machine, store, invoices, log)
	if err != nil {
		log.Error("init telegram bot", sl.Err(err))
		os.Exit(1)
	}
	log.Info("telegram bot initialized")

	machine.SetNotifier(bot)
	invoices.SetListener(machine)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resume polling for invoices left pending by a previous run
	resumed, err := invoices.Resume(ctx)
	if err != nil {
		log.Error("resume invoices", sl.Err(err))
	} else {
		log.Info("pending invoices resumed", "count", resumed)
	}

	// Start ops server
	if cfg.NowPaymentsIPNSecret == "" {
		log.Warn("NOWPAYMENTS_IPN_SECRET not set, IPN callbacks will be rejected")
	}
	server := webhook.NewServer(invoices, store, m.Handler(), cfg.NowPaymentsIPNSecret, log)
	go func() {
		if err := server.Start(ctx, cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			log.Error("ops server", sl.Err(err))
		}
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	// Start bot polling
	log.Info("starting bot polling...")
	bot.Start(ctx)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
