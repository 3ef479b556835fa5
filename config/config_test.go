package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaultsFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: memory
broker:
  driver: none
outbox:
  retry_attempts: 7
`)
	t.Setenv("VISA_JWT_SECRET", "from-env")
	t.Setenv("VISA_OUTBOX_POLL_INTERVAL", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Outbox.RetryAttempts)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Blob.Timeout)
	assert.Equal(t, "notifications", cfg.Notification.Channel)

	wc := cfg.Outbox.ToWorkerConfig()
	assert.Equal(t, 7, wc.RetryAttempts)
	assert.Equal(t, 30*time.Second, wc.LeaseDuration)
}

func TestValidateRejectsUnknownDrivers(t *testing.T) {
	_, err := Load(writeConfig(t, "broker:\n  driver: rabbit\n"))
	assert.ErrorContains(t, err, "broker driver")

	_, err = Load(writeConfig(t, "database:\n  driver: sqlite\n"))
	assert.ErrorContains(t, err, "database driver")

	_, err = Load(writeConfig(t, "blob:\n  driver: s3\n"))
	assert.ErrorContains(t, err, "blob.bucket")
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	dsn := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "visa", SSLMode: "disable"}.DSN()
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=visa sslmode=disable", dsn)
}
