package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port        string
	PostgresDSN string

	PaymentGateway       string
	RedsysSecretKey      string
	RedsysMerchantCode   string
	RedsysTerminal       string
	RedsysMerchantName   string
	RedsysCallbackURL    string
	RedsysSuccessURL     string
	RedsysFailureURL     string
	RedsysSandbox        bool
	PaymentExpiryMinutes int

	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                 envDefault("PORT", "8080"),
		PostgresDSN:          strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		PaymentGateway:       strings.ToLower(envDefault("PAYMENT_GATEWAY", "redsys")),
		RedsysSecretKey:      strings.TrimSpace(os.Getenv("REDSYS_SECRET_KEY")),
		RedsysMerchantCode:   strings.TrimSpace(os.Getenv("REDSYS_MERCHANT_CODE")),
		RedsysTerminal:       envDefault("REDSYS_TERMINAL", "001"),
		RedsysMerchantName:   strings.TrimSpace(os.Getenv("REDSYS_MERCHANT_NAME")),
		RedsysCallbackURL:    strings.TrimSpace(os.Getenv("REDSYS_CALLBACK_URL")),
		RedsysSuccessURL:     strings.TrimSpace(os.Getenv("REDSYS_SUCCESS_URL")),
		RedsysFailureURL:     strings.TrimSpace(os.Getenv("REDSYS_FAILURE_URL")),
		RedsysSandbox:        isTruthy(envDefault("REDSYS_SANDBOX", "true")),
		PaymentExpiryMinutes: 60,
		TemporalAddress:      envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:    envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:     isTruthy(os.Getenv("TEMPORAL_DISABLED")),
	}
	switch cfg.PaymentGateway {
	case "redsys":
		if cfg.RedsysSecretKey == "" || cfg.RedsysMerchantCode == "" {
			return Config{}, fmt.Errorf("REDSYS_SECRET_KEY and REDSYS_MERCHANT_CODE are required when PAYMENT_GATEWAY=redsys")
		}
	case "fake":
	default:
		return Config{}, fmt.Errorf("PAYMENT_GATEWAY must be redsys or fake, got %q", cfg.PaymentGateway)
	}
	if raw := strings.TrimSpace(os.Getenv("PAYMENT_EXPIRY_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("PAYMENT_EXPIRY_MINUTES must be a positive integer")
		}
		cfg.PaymentExpiryMinutes = minutes
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
