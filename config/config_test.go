package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Engine.MaxIndentOrDefault(); got != 3 {
		t.Errorf("max indent = %d", got)
	}
	if got := cfg.Log.LevelOrDefault(); got != "info" {
		t.Errorf("log level = %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[engine]
max_indent = 5
heading_sizes = [32.0, 26.0]

[log]
level = "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxIndent != 5 {
		t.Errorf("max_indent = %d", cfg.Engine.MaxIndent)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q", cfg.Log.Level)
	}

	opts := cfg.EngineOptions()
	if opts.MaxIndent != 5 {
		t.Errorf("options max indent = %d", opts.MaxIndent)
	}
	if opts.HeadingSizes[0] != 32 || opts.HeadingSizes[1] != 26 {
		t.Errorf("overridden sizes = %v", opts.HeadingSizes[:2])
	}
	// Unset levels keep the defaults.
	if opts.HeadingSizes[2] != 20 {
		t.Errorf("default size = %g", opts.HeadingSizes[2])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative indent", "[engine]\nmax_indent = -1\n"},
		{"too many sizes", "[engine]\nheading_sizes = [1.0,2.0,3.0,4.0,5.0,6.0,7.0]\n"},
		{"zero size", "[engine]\nheading_sizes = [0.0]\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INKLINE_LOG_LEVEL", "warn")
	t.Setenv("INKLINE_STORE_PATH", "/tmp/custom.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
	if cfg.Store.Path != "/tmp/custom.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
}
