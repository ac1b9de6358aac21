// Package config loads courier configuration: defaults, then a TOML file,
// then environment variables (env wins).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Telegram TelegramConfig `toml:"telegram"`
	Agent    AgentConfig    `toml:"agent"`
	Progress ProgressConfig `toml:"progress"`
	Observer ObserverConfig `toml:"observer"`
}

type TelegramConfig struct {
	Token         string `toml:"token"`
	AllowedUserID string `toml:"allowed_user_id"`
}

type AgentConfig struct {
	Command        string   `toml:"command"`
	Workdir        string   `toml:"workdir"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	ExtraArgs      []string `toml:"extra_args"`
}

type ProgressConfig struct {
	EditIntervalMS   int    `toml:"edit_interval_ms"`
	KeepaliveSeconds int    `toml:"keepalive_seconds"`
	Placeholder      string `toml:"placeholder"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Agent: AgentConfig{
			Command:        "claude",
			TimeoutSeconds: 600,
		},
		Progress: ProgressConfig{
			EditIntervalMS:   2000,
			KeepaliveSeconds: 8,
		},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "courier.toml"
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("COURIER_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("COURIER_ALLOWED_USER_ID"); v != "" {
		cfg.Telegram.AllowedUserID = v
	}
	if v := os.Getenv("COURIER_AGENT_COMMAND"); v != "" {
		cfg.Agent.Command = v
	}
	if v := os.Getenv("COURIER_AGENT_WORKDIR"); v != "" {
		cfg.Agent.Workdir = v
	}

	return cfg
}

// EditInterval returns the progress edit interval as a duration.
func (c *Config) EditInterval() time.Duration {
	return time.Duration(c.Progress.EditIntervalMS) * time.Millisecond
}

// Keepalive returns the typing keepalive period as a duration.
func (c *Config) Keepalive() time.Duration {
	return time.Duration(c.Progress.KeepaliveSeconds) * time.Second
}

// AgentTimeout returns the per-run agent timeout as a duration.
func (c *Config) AgentTimeout() time.Duration {
	return time.Duration(c.Agent.TimeoutSeconds) * time.Second
}
