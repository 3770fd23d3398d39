package config

import (
	"os"
	"strconv"
	"time"
)

// Feature flag, set once at startup from env.
var EnableWebsocketEvents bool

type Config struct {
	Port               string
	DBConnectionString string

	// Downstream business backend.
	WebhookURL         string
	ContactSyncURL     string
	PendingPaymentsURL string

	// Operator auth.
	JWTSecret   string
	APIUsername string
	APIPassword string

	// Session timing knobs. A stalled handshake rarely recovers after a
	// minute, and the roster changes slowly.
	ReadyWatchdogTimeout time.Duration
	ContactSyncInterval  time.Duration
	ReconnectDelay       time.Duration
	RestartDelay         time.Duration
	DestroyRetryDelay    time.Duration
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "2121"),
		DBConnectionString: getEnv("DATABASE_URL", ""),

		WebhookURL:         getEnv("WEBHOOK_URL", ""),
		ContactSyncURL:     getEnv("CONTACT_SYNC_URL", ""),
		PendingPaymentsURL: getEnv("PENDING_PAYMENTS_URL", ""),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		APIUsername: getEnv("API_USERNAME", "operator"),
		APIPassword: getEnv("API_PASSWORD", ""),

		ReadyWatchdogTimeout: getEnvAsDuration("READY_WATCHDOG_TIMEOUT", 60*time.Second),
		ContactSyncInterval:  getEnvAsDuration("CONTACT_SYNC_INTERVAL", 2*time.Minute),
		ReconnectDelay:       getEnvAsDuration("RECONNECT_DELAY", 5*time.Second),
		RestartDelay:         getEnvAsDuration("RESTART_DELAY", 3*time.Second),
		DestroyRetryDelay:    getEnvAsDuration("DESTROY_RETRY_DELAY", 2*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

func GetEnvAsInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}
