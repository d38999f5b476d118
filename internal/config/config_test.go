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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMustLoadPathDefaults(t *testing.T) {
	cfg := MustLoadPath(writeConfig(t, "env: dev\n"))

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 512, cfg.WS.SendBuffer)
	assert.Equal(t, 60*time.Second, cfg.WS.PongWait)
	assert.Equal(t, 54*time.Second, cfg.WS.PingPeriod())
	assert.Equal(t, "default", cfg.Rooms.DefaultRoom)
	assert.Equal(t, 100.0, cfg.Limits.DrawPerSecond)
}

func TestMustLoadPathOverrides(t *testing.T) {
	cfg := MustLoadPath(writeConfig(t, `
env: prod
http:
  address: ":9000"
  allowed_origins: ["https://canvas.example.com"]
rooms:
  default_room: lobby
limits:
  cursor_per_second: 15
`))

	assert.Equal(t, ":9000", cfg.HTTP.Address)
	assert.Equal(t, []string{"https://canvas.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "lobby", cfg.Rooms.DefaultRoom)
	assert.Equal(t, 15.0, cfg.Limits.CursorPerSecond)
	assert.Equal(t, 200, cfg.Limits.DrawBurst)
}

func TestMustLoadPathRejectsInvalid(t *testing.T) {
	assert.Panics(t, func() { MustLoadPath(writeConfig(t, "env: staging\n")) })
	assert.Panics(t, func() { MustLoadPath(filepath.Join(t.TempDir(), "missing.yaml")) })
}
