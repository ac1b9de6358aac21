package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if cfg.Agent.Command != "claude" {
		t.Errorf("command = %q, want claude", cfg.Agent.Command)
	}
	if got := cfg.EditInterval(); got != 2*time.Second {
		t.Errorf("edit interval = %v, want 2s", got)
	}
	if got := cfg.Keepalive(); got != 8*time.Second {
		t.Errorf("keepalive = %v, want 8s", got)
	}
	if got := cfg.AgentTimeout(); got != 10*time.Minute {
		t.Errorf("agent timeout = %v, want 10m", got)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courier.toml")
	body := `
[telegram]
token = "123:abc"
allowed_user_id = "99"

[agent]
command = "/usr/local/bin/claude"
timeout_seconds = 120
extra_args = ["--model", "opus"]

[progress]
edit_interval_ms = 500
placeholder = "hold on"

[observer]
enabled = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.AllowedUserID != "99" {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Agent.Command != "/usr/local/bin/claude" || len(cfg.Agent.ExtraArgs) != 2 {
		t.Errorf("agent = %+v", cfg.Agent)
	}
	if cfg.EditInterval() != 500*time.Millisecond {
		t.Errorf("edit interval = %v", cfg.EditInterval())
	}
	// Fields the file omits keep their defaults.
	if cfg.Progress.KeepaliveSeconds != 8 {
		t.Errorf("keepalive seconds = %d, want default 8", cfg.Progress.KeepaliveSeconds)
	}
	if cfg.Progress.Placeholder != "hold on" || !cfg.Observer.Enabled {
		t.Errorf("progress = %+v observer = %+v", cfg.Progress, cfg.Observer)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courier.toml")
	if err := os.WriteFile(path, []byte("[telegram]\ntoken = \"from-file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COURIER_TELEGRAM_TOKEN", "from-env")
	t.Setenv("COURIER_AGENT_WORKDIR", "/srv/work")

	cfg := Load(path)
	if cfg.Telegram.Token != "from-env" {
		t.Errorf("token = %q, want the env value", cfg.Telegram.Token)
	}
	if cfg.Agent.Workdir != "/srv/work" {
		t.Errorf("workdir = %q", cfg.Agent.Workdir)
	}
}
