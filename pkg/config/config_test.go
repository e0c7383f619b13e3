package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "order.events", c.Kafka.OutboxTopic)
	assert.Equal(t, 10*time.Minute, c.Redis.IdempotencyTTL)
	assert.Equal(t, 30*time.Minute, c.Auth.TokenTTL)
	assert.Equal(t, 30, c.Analytics.WindowDays)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
http_addr: ":9000"
log_level: debug
redis:
  addr: redis:6379
  idempotency_ttl: 2m
kafka:
  brokers: [k1:9092, k2:9092]
auth:
  jwt_secret: from-file
analytics:
  window_days: 7
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("KAFKA_ADDR", "a:1, b:2")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", c.HTTPAddr)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.Equal(t, 2*time.Minute, c.Redis.IdempotencyTTL)
	assert.Equal(t, []string{"a:1", "b:2"}, c.Kafka.Brokers)
	assert.Equal(t, "from-file", c.Auth.JWTSecret)
	assert.Equal(t, 7, c.Analytics.WindowDays)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("TOKEN_TTL", "soon")
	_, err := Load("")
	require.Error(t, err)
}
