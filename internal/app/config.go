package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (KASIR_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (KASIR_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (KASIR_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Xendit       XenditConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// XenditConfig controls the payment gateway client and webhook verification.
type XenditConfig struct {
	BaseURL       string        `default:"https://api.xendit.co" usage:"Payment gateway base URL" flag:"xendit-base-url"`
	SecretKey     string        `usage:"Payment gateway secret key (KASIR_XENDIT_SECRET_KEY)" flag:"xendit-secret-key"`
	CallbackToken string        `usage:"Webhook callback verification token (KASIR_XENDIT_CALLBACK_TOKEN)" flag:"xendit-callback-token"`
	Currency      string        `default:"IDR" usage:"Payment currency"`
	ChannelCode   string        `default:"DANA" usage:"QR payment channel" flag:"xendit-channel"`
	QRExpiry      time.Duration `default:"15m" usage:"QR code validity window" flag:"qr-expiry"`
	Timeout       time.Duration `default:"10s" usage:"Gateway HTTP timeout" flag:"xendit-timeout"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KASIR",
		Files:     []string{"config.yaml", "/etc/kasir/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set KASIR_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Xendit.SecretKey == "" {
		return nil, errors.New("payment gateway key is required: set KASIR_XENDIT_SECRET_KEY")
	}
	if cfg.Xendit.CallbackToken == "" {
		return nil, errors.New("webhook callback token is required: set KASIR_XENDIT_CALLBACK_TOKEN")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's KASIR_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
