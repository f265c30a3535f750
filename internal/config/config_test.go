package config_test

import (
	"testing"
	"time"

	"github.com/akimenko/ledger-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$somethinghashed")

	cfg, err := config.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "operator", cfg.AdminUser)
	assert.Equal(t, 5*time.Second, cfg.TransferTimeout)
	assert.Equal(t, time.Minute, cfg.PendingGrace)
	assert.Equal(t, "*/5 * * * *", cfg.ReconcileSpec)
}

func TestNewConfigOverrides(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$somethinghashed")
	t.Setenv("PORT", "9090")
	t.Setenv("TRANSFER_TIMEOUT", "250ms")
	t.Setenv("PENDING_GRACE", "10m")

	cfg, err := config.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.TransferTimeout)
	assert.Equal(t, 10*time.Minute, cfg.PendingGrace)
}

func TestNewConfigRequiresAdminPasswordHash(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	_, err := config.NewConfig()
	assert.Error(t, err)
}

func TestNewConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$somethinghashed")
	t.Setenv("TRANSFER_TIMEOUT", "not-a-duration")
	_, err := config.NewConfig()
	assert.Error(t, err)
}
