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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost:5000", cfg.Server.Addr())
	assert.Equal(t, 10*time.Millisecond, cfg.Automation.MinClickInterval)
	assert.Equal(t, time.Second, cfg.Automation.DefaultClickInterval)
	assert.Equal(t, 3*time.Second, cfg.Automation.ColorPickDelay)
	assert.Equal(t, 100, cfg.Automation.ClickPointX)
	assert.Equal(t, 100, cfg.Automation.ClickPointY)
	assert.Equal(t, 168*time.Hour, cfg.History.Retention)
	assert.False(t, cfg.History.Disabled)
	assert.False(t, cfg.Tray.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
env: "test"
log:
  level: "warn"
  format: "console"
server:
  port: 5055
automation:
  min_click_interval: 20ms
  default_click_interval: 50ms
  color_pick_delay: 1s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5055, cfg.Server.Port)
	assert.Equal(t, 20*time.Millisecond, cfg.Automation.MinClickInterval)
	assert.Equal(t, time.Second, cfg.Automation.ColorPickDelay)
	// untouched fields keep their defaults
	assert.Equal(t, 250*time.Millisecond, cfg.Automation.WindowPollInterval)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 5055\n")
	t.Setenv("AUTOMATION_SERVER_PORT", "6000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Server.Port)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad port":        "server:\n  port: 70000\n",
		"bad log format":  "log:\n  format: \"xml\"\n",
		"default < floor": "automation:\n  min_click_interval: 50ms\n  default_click_interval: 10ms\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}
