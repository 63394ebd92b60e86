package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	DatabaseURL     string
	AdminTelegramID int64
	GGSelToken      string
	SellerID        int64
	CaptchaToken    string
	LogLevel        string
	Environment     string
	PollCronSpec    string // Interval spec for the reconcile cycle
	BackfillCount   int    // Sales fetched by the startup backfill pass
	PollCount       int    // Sales fetched per steady-state cycle
	HTTPListenAddr  string // Webhook server bind address

	// Proxy settings forwarded to the captcha solver. All optional.
	ProxyType     string
	ProxyAddress  string
	ProxyPort     int
	ProxyLogin    string
	ProxyPassword string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.GGSelToken = os.Getenv("GGSEL_TOKEN")
	if cfg.GGSelToken == "" {
		return nil, fmt.Errorf("GGSEL_TOKEN is not set")
	}

	sellerIDStr := os.Getenv("SELLER_ID")
	if sellerIDStr == "" {
		return nil, fmt.Errorf("SELLER_ID is not set")
	}
	cfg.SellerID, err = strconv.ParseInt(sellerIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SELLER_ID: %w", err)
	}

	// Optional: the email-code delivery flow is disabled without it.
	cfg.CaptchaToken = os.Getenv("CAPTCHA_TOKEN")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.PollCronSpec = os.Getenv("POLL_CRON_SPEC")
	if cfg.PollCronSpec == "" {
		cfg.PollCronSpec = "@every 1m" // Default: reconcile every 60 seconds
	}

	cfg.BackfillCount, err = intEnv("BACKFILL_SALES_COUNT", 100)
	if err != nil {
		return nil, err
	}
	cfg.PollCount, err = intEnv("POLL_SALES_COUNT", 10)
	if err != nil {
		return nil, err
	}

	cfg.HTTPListenAddr = os.Getenv("HTTP_LISTEN_ADDR")
	if cfg.HTTPListenAddr == "" {
		cfg.HTTPListenAddr = "127.0.0.1:8003"
	}

	cfg.ProxyType = os.Getenv("PROXY_TYPE")
	cfg.ProxyAddress = os.Getenv("PROXY_IP")
	cfg.ProxyPort, err = intEnv("PROXY_PORT", 0)
	if err != nil {
		return nil, err
	}
	cfg.ProxyLogin = os.Getenv("PROXY_USER")
	cfg.ProxyPassword = os.Getenv("PROXY_PASSWORD")

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
