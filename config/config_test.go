// ABOUTME: Tests for configuration loading, overrides, persistence, and logger setup
// ABOUTME: Uses temp files and t.Setenv so nothing touches the real XDG directory
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PURSUIT_STORE_DSN", "PURSUIT_USER_ID", "PURSUIT_STALE_DAYS",
		"PURSUIT_LOG_LEVEL", "PURSUIT_LISTEN_ADDR", "PURSUIT_AUTO_SYNC",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultStaleThresholdDays, cfg.StaleThresholdDays)
	assert.Equal(t, DefaultShareLinkTTL, cfg.ShareLinkTTL)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultDSN(), cfg.StoreDSN)
	assert.NotEmpty(t, cfg.UserID)
}

func TestLoadFromFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store_dsn":"memory://","user_id":"alice","stale_threshold_days":10}`), 0600))

	t.Setenv("PURSUIT_USER_ID", "bob")
	t.Setenv("PURSUIT_AUTO_SYNC", "0")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "memory://", cfg.StoreDSN)
	assert.Equal(t, "bob", cfg.UserID)
	assert.Equal(t, 10, cfg.StaleThresholdDays)
	assert.False(t, cfg.AutoSync)
}

func TestLoadFromRejectsBadStaleDays(t *testing.T) {
	clearEnv(t)
	t.Setenv("PURSUIT_STALE_DAYS", "soon")
	_, err := LoadFrom(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestLoadFromRejectsCorruptFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	cfg.StoreDSN = "badger:///tmp/kv"
	cfg.ShareLinkTTL = 48 * time.Hour
	require.NoError(t, cfg.SetAutoSync(false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	again, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "badger:///tmp/kv", again.StoreDSN)
	assert.Equal(t, 48*time.Hour, again.ShareLinkTTL)
	assert.False(t, again.AutoSync)
}

func TestCharmSettings(t *testing.T) {
	cfg := Default()
	cfg.CharmHost = "charm.example"
	cfg.AutoSync = false
	cc := cfg.Charm()
	assert.Equal(t, "charm.example", cc.Host)
	assert.False(t, cc.AutoSync)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", "engagement_id", "e1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "engagement_id=e1")

	buf.Reset()
	newLogger(&buf, "nonsense").Info("fallback")
	assert.Contains(t, buf.String(), "fallback")
}
