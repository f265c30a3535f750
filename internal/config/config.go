package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	Port              string
	DBConn            string
	LogLevel          string
	JWTSecret         string
	AdminUser         string
	AdminPasswordHash string
	TransferTimeout   time.Duration
	ReconcileSpec     string
	PendingGrace      time.Duration
	SMTPHost          string
	SMTPPort          string
	SMTPUser          string
	SMTPPass          string
	SenderEmail       string
	OperatorEmail     string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DBConn:            getEnv("DB_CONN", "host=localhost port=5432 user=ledger password=ledger dbname=ledger sslmode=disable"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		AdminUser:         getEnv("ADMIN_USER", "operator"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		ReconcileSpec:     getEnv("RECONCILE_SPEC", "*/5 * * * *"),
		SMTPHost:          getEnv("SMTP_HOST", "localhost"),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPass:          getEnv("SMTP_PASS", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", "ledger@localhost"),
		OperatorEmail:     getEnv("OPERATOR_EMAIL", ""),
	}

	var err error
	cfg.TransferTimeout, err = getDuration("TRANSFER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.PendingGrace, err = getDuration("PENDING_GRACE", time.Minute)
	if err != nil {
		return nil, err
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminPasswordHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
