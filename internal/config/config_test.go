package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: vending
auth:
  jwt_secret: s3cret
  jwt_ttl_minutes: 15
kafka:
  enabled: true
  brokers:
    - k1:9092
    - k2:9092
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)

	// defaults
	assert.Equal(t, "vending.purchase", cfg.Kafka.Topic.Purchase)
	assert.Equal(t, 5, cfg.Business.MaxRetryCount)
	assert.Equal(t, "vending-machine", cfg.Auth.JWTIssuer)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("VENDING_DATABASE_DRIVER", "memory")
	t.Setenv("VENDING_SERVER_PORT", "7070")

	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server:\n  port: 8080\n"))
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "auth:\n  jwt_secret: x\ndatabase:\n  driver: oracle\n"))
	assert.ErrorContains(t, err, "oracle")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
