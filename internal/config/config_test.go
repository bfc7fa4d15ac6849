package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.ServerPort)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.LockThreshold)
	assert.Equal(t, 15*time.Minute, cfg.LockDuration)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Len(t, cfg.JWTSecret, 32)
	assert.False(t, cfg.MailEnabled())
	assert.False(t, cfg.StorageEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STOCKROOM_SERVER_PORT", "8080")
	t.Setenv("STOCKROOM_LOCK_THRESHOLD", "3")
	t.Setenv("STOCKROOM_LOCK_DURATION", "30m")
	t.Setenv("STOCKROOM_COOKIE_SECURE", "false")
	t.Setenv("STOCKROOM_MAILGUN_API_KEY", "key-123")
	t.Setenv("STOCKROOM_MAILGUN_DOMAIN", "mg.example.com")
	t.Setenv("STOCKROOM_LOCK_NOTIFY_TO", "ops@example.com")
	t.Setenv("STOCKROOM_S3_BUCKET", "stockroom-exports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 3, cfg.LockThreshold)
	assert.Equal(t, 30*time.Minute, cfg.LockDuration)
	assert.False(t, cfg.CookieSecure)
	assert.True(t, cfg.MailEnabled())
	assert.True(t, cfg.StorageEnabled())
	assert.Equal(t, "stockroom-exports", cfg.S3Bucket)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"STOCKROOM_LOCK_THRESHOLD": "0",
		"STOCKROOM_BCRYPT_COST":    "40",
		"STOCKROOM_JWT_SECRET":     "short",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
