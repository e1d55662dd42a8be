package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the agent configuration, read from YAML with AUTOMATION_* overrides
type Config struct {
	Env         string           `yaml:"env" env:"AUTOMATION_ENV" env-default:"local"`
	StoragePath string           `yaml:"storage_path" env:"AUTOMATION_STORAGE_PATH" env-default:"./automation.db"`
	Log         LogConfig        `yaml:"log"`
	Server      ServerConfig     `yaml:"server"`
	Automation  AutomationConfig `yaml:"automation"`
	History     HistoryConfig    `yaml:"history"`
	Tray        TrayConfig       `yaml:"tray"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"AUTOMATION_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"AUTOMATION_LOG_FORMAT" env-default:"json"`
}

type ServerConfig struct {
	Host           string        `yaml:"host" env:"AUTOMATION_SERVER_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"AUTOMATION_SERVER_PORT" env-default:"5000"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"AUTOMATION_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AutomationConfig struct {
	// MinClickInterval is the floor applied to background clicker intervals
	MinClickInterval     time.Duration `yaml:"min_click_interval" env-default:"10ms"`
	DefaultClickInterval time.Duration `yaml:"default_click_interval" env-default:"1s"`
	ClickPointX          int           `yaml:"click_point_x" env-default:"100"`
	ClickPointY          int           `yaml:"click_point_y" env-default:"100"`
	ColorPickDelay       time.Duration `yaml:"color_pick_delay" env:"AUTOMATION_COLOR_PICK_DELAY" env-default:"3s"`
	WindowPollInterval   time.Duration `yaml:"window_poll_interval" env-default:"250ms"`
	CaptureBufferSize    int           `yaml:"capture_buffer_size" env-default:"4096"`
	StopTimeout          time.Duration `yaml:"stop_timeout" env-default:"2s"`
}

type HistoryConfig struct {
	// Disabled turns off session history
	Disabled  bool          `yaml:"disabled" env:"AUTOMATION_HISTORY_DISABLED"`
	Retention time.Duration `yaml:"retention" env-default:"168h"`
	ListLimit int           `yaml:"list_limit" env-default:"50"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled" env:"AUTOMATION_TRAY_ENABLED" env-default:"false"`
}

// LoadConfig reads path when it exists and falls back to environment and
// defaults otherwise.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects values the agent cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Automation.MinClickInterval <= 0 {
		return errors.New("automation.min_click_interval must be positive")
	}
	if c.Automation.DefaultClickInterval < c.Automation.MinClickInterval {
		return errors.New("automation.default_click_interval is below min_click_interval")
	}
	if c.Automation.ColorPickDelay < 0 {
		return errors.New("automation.color_pick_delay must not be negative")
	}
	if c.Automation.WindowPollInterval <= 0 {
		return errors.New("automation.window_poll_interval must be positive")
	}
	if c.Automation.CaptureBufferSize <= 0 {
		return errors.New("automation.capture_buffer_size must be positive")
	}
	if c.Automation.StopTimeout <= 0 {
		return errors.New("automation.stop_timeout must be positive")
	}
	if c.History.Retention < 0 {
		return errors.New("history.retention must not be negative")
	}
	if c.History.ListLimit <= 0 {
		return errors.New("history.list_limit must be positive")
	}
	return nil
}
