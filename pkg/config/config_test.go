package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Relay.SpamLimit)
	assert.Equal(t, 10*time.Second, cfg.Relay.SpamInterval)
	assert.Equal(t, 18000*time.Second, cfg.Relay.BlockDuration)
	assert.Equal(t, 10*time.Second, cfg.Relay.AlbumTimeout)
	assert.Equal(t, config.DefaultWelcomeMessage, cfg.Relay.WelcomeMessage)
	assert.Equal(t, 8081, cfg.Server.AdminPort)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.token is required")
	assert.Contains(t, err.Error(), "relay.operator_id is required")
}

func TestLoad_FromFile(t *testing.T) {
	dir := writeConfig(t, `
telegram:
  token: "123:abc"
  workers: 2
relay:
  operator_id: 4242
  spam_limit: 3
  spam_interval: 20
  block_duration: 1h
  album_timeout: 2.5
`)

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 2, cfg.Telegram.Workers)
	assert.Equal(t, int64(4242), cfg.Relay.OperatorID)
	assert.Equal(t, 3, cfg.Relay.SpamLimit)
	assert.Equal(t, 20*time.Second, cfg.Relay.SpamInterval)
	assert.Equal(t, time.Hour, cfg.Relay.BlockDuration)
	assert.Equal(t, 2500*time.Millisecond, cfg.Relay.AlbumTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "legacy-token")
	t.Setenv("ADMIN_CHAT_ID", "-100500")
	t.Setenv("SPAM_LIMIT", "5")
	t.Setenv("SPAM_INTERVAL", "30")
	t.Setenv("BLOCK_DURATION", "600")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "legacy-token", cfg.Telegram.Token)
	assert.Equal(t, int64(-100500), cfg.Relay.OperatorID)
	assert.Equal(t, 5, cfg.Relay.SpamLimit)
	assert.Equal(t, 30*time.Second, cfg.Relay.SpamInterval)
	assert.Equal(t, 10*time.Minute, cfg.Relay.BlockDuration)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := writeConfig(t, `
telegram:
  token: "file-token"
relay:
  operator_id: 1
`)
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("RELAY_ALBUM_TIMEOUT", "3s")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, 3*time.Second, cfg.Relay.AlbumTimeout)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeConfig(t, "relay: [unterminated")

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestValidate_RejectsNonPositiveKnobs(t *testing.T) {
	cfg := &config.Config{
		Telegram: config.TelegramConfig{Token: "t"},
		Relay:    config.RelayConfig{OperatorID: 1},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay.spam_limit must be positive")
	assert.Contains(t, err.Error(), "relay.album_timeout must be positive")
}
