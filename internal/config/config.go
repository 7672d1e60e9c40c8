package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Telegram
	BotToken string `validate:"required"`
	AdminID  int64

	// Database
	DBDriver string `validate:"oneof=sqlite3 pgx"`
	DBDSN    string `validate:"required"`

	// Deposits
	MinDepositUSD decimal.Decimal
	MaxDepositUSD decimal.Decimal
	PollInterval  time.Duration `validate:"gt=0"`

	// NOWPayments
	NowPaymentsAPIKey    string
	NowPaymentsBaseURL   string `validate:"required,url"`
	NowPaymentsIPNSecret string
	NowPaymentsIPNURL    string        `validate:"omitempty,url"`
	ProviderRPS          float64       `validate:"gt=0"`
	ProviderMaxRetries   int           `validate:"gte=0,lte=10"`
	ProviderTimeout      time.Duration `validate:"gt=0"`

	// Plans
	PlanDailyUSD   decimal.Decimal
	PlanWeeklyUSD  decimal.Decimal
	PlanMonthlyUSD decimal.Decimal

	// Checks
	CheckCooldown   time.Duration
	CheckMaxNumbers int      `validate:"gt=0"`
	OCRLanguages    []string `validate:"min=1"`

	// Ops server
	HTTPPort int `validate:"gt=0,lt=65536"`
	LogLevel string
}

func Load() *Config {
	return &Config{
		// Telegram
		BotToken: getEnv("BOT_TOKEN", ""),
		AdminID:  getEnvInt64("ADMIN_ID", 0),

		// Database
		DBDriver: getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:    getEnv("DB_DSN", "./numcheck.db"),

		// Deposits
		MinDepositUSD: getEnvDecimal("MIN_DEPOSIT_USD", decimal.NewFromInt(10)),
		MaxDepositUSD: getEnvDecimal("MAX_DEPOSIT_USD", decimal.NewFromInt(1000)),
		PollInterval:  getEnvDuration("POLL_INTERVAL", time.Minute),

		// NOWPayments
		NowPaymentsAPIKey:    getEnv("NOWPAYMENTS_API_KEY", ""),
		NowPaymentsBaseURL:   strings.TrimSuffix(getEnv("NOWPAYMENTS_API_URL", "https://api.nowpayments.io/v1"), "/"),
		NowPaymentsIPNSecret: getEnv("NOWPAYMENTS_IPN_SECRET", ""),
		NowPaymentsIPNURL:    getEnv("NOWPAYMENTS_IPN_CALLBACK_URL", ""),
		ProviderRPS:          getEnvFloat("NOWPAYMENTS_RPS", 2),
		ProviderMaxRetries:   getEnvInt("PROVIDER_MAX_RETRIES", 3),
		ProviderTimeout:      getEnvDuration("PROVIDER_TIMEOUT", 15*time.Second),

		// Plans
		PlanDailyUSD:   getEnvDecimal("PLAN_DAILY_USD", decimal.NewFromInt(10)),
		PlanWeeklyUSD:  getEnvDecimal("PLAN_WEEKLY_USD", decimal.NewFromInt(50)),
		PlanMonthlyUSD: getEnvDecimal("PLAN_MONTHLY_USD", decimal.NewFromInt(150)),

		// Checks
		CheckCooldown:   getEnvDuration("CHECK_COOLDOWN", 10*time.Second),
		CheckMaxNumbers: getEnvInt("CHECK_MAX_NUMBERS", 1000),
		OCRLanguages:    getEnvList("OCR_LANGUAGES", []string{"eng"}),

		// Ops server
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks struct tags and the cross-field money rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !c.MinDepositUSD.IsPositive() {
		return fmt.Errorf("config: MIN_DEPOSIT_USD must be positive")
	}
	if c.MaxDepositUSD.LessThan(c.MinDepositUSD) {
		return fmt.Errorf("config: MAX_DEPOSIT_USD must not be below MIN_DEPOSIT_USD")
	}
	for name, price := range map[string]decimal.Decimal{
		"PLAN_DAILY_USD":   c.PlanDailyUSD,
		"PLAN_WEEKLY_USD":  c.PlanWeeklyUSD,
		"PLAN_MONTHLY_USD": c.PlanMonthlyUSD,
	} {
		if price.IsNegative() {
			return fmt.Errorf("config: %s must not be negative", name)
		}
	}
	return nil
}

// LiveProvider reports whether a NOWPayments credential is configured.
func (c *Config) LiveProvider() bool {
	return c.NowPaymentsAPIKey != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(val)); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, defaultVal []string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
