package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.True(t, cfg.MinDepositUSD.Equal(decimal.NewFromInt(10)))
	assert.True(t, cfg.MaxDepositUSD.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, "https://api.nowpayments.io/v1", cfg.NowPaymentsBaseURL)
	assert.Equal(t, []string{"eng"}, cfg.OCRLanguages)
	assert.False(t, cfg.LiveProvider())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("MIN_DEPOSIT_USD", "5.5")
	t.Setenv("POLL_INTERVAL", "15s")
	t.Setenv("NOWPAYMENTS_API_KEY", "key")
	t.Setenv("NOWPAYMENTS_API_URL", "https://sandbox.example.com/v1/")
	t.Setenv("NOWPAYMENTS_IPN_CALLBACK_URL", "https://bot.example.com/nowpayments/ipn")
	t.Setenv("OCR_LANGUAGES", "eng, rus,")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(42), cfg.AdminID)
	assert.True(t, cfg.MinDepositUSD.Equal(decimal.RequireFromString("5.5")))
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, "https://sandbox.example.com/v1", cfg.NowPaymentsBaseURL)
	assert.Equal(t, "https://bot.example.com/nowpayments/ipn", cfg.NowPaymentsIPNURL)
	assert.Equal(t, []string{"eng", "rus"}, cfg.OCRLanguages)
	assert.True(t, cfg.LiveProvider())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.BotToken = "" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"inverted deposit range", func(c *Config) { c.MaxDepositUSD = decimal.NewFromInt(1) }},
		{"zero minimum", func(c *Config) { c.MinDepositUSD = decimal.Zero }},
		{"negative plan price", func(c *Config) { c.PlanWeeklyUSD = decimal.NewFromInt(-1) }},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"malformed ipn url", func(c *Config) { c.NowPaymentsIPNURL = "not a url" }},
		{"no ocr language", func(c *Config) { c.OCRLanguages = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOT_TOKEN", "123:abc")
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
