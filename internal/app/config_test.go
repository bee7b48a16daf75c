package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  http-port: :8080\n")

	cfg, realpath, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, realpath)

	// Explicit value kept, the rest filled from struct defaults.
	assert.Equal(t, ":8080", cfg.Server.HttpPort)
	assert.Equal(t, "release", cfg.Server.RunMode)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 100, cfg.Board.NoteLimit)
	assert.True(t, cfg.User.RegisterIsEnable)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfigSaveRoundTrip(t *testing.T) {
	path := writeConfig(t, "board:\n  note-limit: 50\n")

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Board.NoteLimit)

	cfg.Board.NoteLimit = 75
	require.NoError(t, cfg.Save())

	reloaded, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 75, reloaded.Board.NoteLimit)
}

func TestDurationHelpers(t *testing.T) {
	path := writeConfig(t, `
security:
  token-expiry: 7d
board:
  presence-interval: 10s
  presence-ttl: 45s
  drag-cooldown: 250ms
`)
	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.GetTokenExpiry())
	assert.Equal(t, 10*time.Second, cfg.GetPresenceInterval())
	assert.Equal(t, 45*time.Second, cfg.GetPresenceTTL())
	assert.Equal(t, 250*time.Millisecond, cfg.GetDragCooldown())
}

func TestDurationHelpersFallBackOnGarbage(t *testing.T) {
	path := writeConfig(t, `
security:
  token-expiry: whenever
board:
  drag-cooldown: soonish
`)
	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30*24*time.Hour, cfg.GetTokenExpiry())
	assert.Equal(t, 500*time.Millisecond, cfg.GetDragCooldown())
}
