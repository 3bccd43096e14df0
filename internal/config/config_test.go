package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("IRIS_BASE_URL", "http://iris:3000")
	t.Setenv("IRIS_WS_URL", "ws://iris:3000/ws")
	t.Setenv("BOT_PREFIX", "!")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.MoveTimeout)
	assert.Equal(t, InputModeRoom, cfg.InputMode)
	assert.Equal(t, "http", cfg.EgressMode)
	assert.False(t, cfg.ResultCard)
	assert.True(t, cfg.RoomAllowed("anything"))
	assert.Empty(t, cfg.Headers())
}

func TestLoadRequiresGateway(t *testing.T) {
	t.Setenv("IRIS_BASE_URL", "")
	t.Setenv("IRIS_WS_URL", "ws://iris")
	t.Setenv("BOT_PREFIX", "!")
	_, err := Load()
	assert.EqualError(t, err, "IRIS_BASE_URL is required")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RPS_MOVE_TIMEOUT", "45")
	t.Setenv("RPS_INPUT_MODE", "PRIVATE")
	t.Setenv("RPS_RESULT_CARD", "true")
	t.Setenv("ALLOWED_ROOMS", " room1, ,room2 ")
	t.Setenv("EGRESS_MODE", "auto")
	t.Setenv("X_USER_ID", "bot")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.MoveTimeout)
	assert.Equal(t, InputModePrivate, cfg.InputMode)
	assert.True(t, cfg.ResultCard)
	assert.Equal(t, []string{"room1", "room2"}, cfg.AllowedRooms)
	assert.True(t, cfg.RoomAllowed("room2"))
	assert.False(t, cfg.RoomAllowed("room3"))
	assert.Equal(t, "auto", cfg.EgressMode)
	assert.Equal(t, map[string]string{"X-User-Id": "bot"}, cfg.Headers())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsBadValues(t *testing.T) {
	setRequired(t)
	t.Setenv("RPS_MOVE_TIMEOUT", "-5")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RPS_MOVE_TIMEOUT", "1m30s")
	t.Setenv("RPS_INPUT_MODE", "dm")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("RPS_INPUT_MODE", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.MoveTimeout)
}
