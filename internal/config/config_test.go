package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" || cfg.MaxPlayers != 6 || cfg.QueueSize != 64 || cfg.SubscriberBuffer != 32 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.IdleTimeout != 10*time.Minute || cfg.TurnTimeout != 0 || cfg.EnqueueTimeout != 2*time.Second {
		t.Fatalf("unexpected default timeouts %+v", cfg)
	}
	if cfg.Debug || cfg.LogFormat != "json" || len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"PORT":             "9000",
		"ORIGIN_ALLOWLIST": "https://a.example, https://b.example ,",
		"MAX_PLAYERS":      "4",
		"TURN_TIMEOUT":     "90s",
		"DEBUG":            "1",
		"LOG_FORMAT":       "console",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "9000" || cfg.MaxPlayers != 4 || cfg.TurnTimeout != 90*time.Second || !cfg.Debug {
		t.Fatalf("overrides not applied %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestInvalidValues(t *testing.T) {
	for _, vars := range []map[string]string{
		{"MAX_PLAYERS": "many"},
		{"MAX_PLAYERS": "1"},
		{"IDLE_TIMEOUT": "soon"},
		{"QUEUE_SIZE": "0"},
		{"LOG_FORMAT": "xml"},
	} {
		if _, err := FromEnv(env(vars)); err == nil {
			t.Fatalf("expected error for %v", vars)
		}
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("QUEUE_SIZE=7\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("QUEUE_SIZE", "")
	os.Unsetenv("QUEUE_SIZE")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.QueueSize != 7 {
		t.Fatalf("QueueSize = %d", cfg.QueueSize)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env must not fail: %v", err)
	}
}
