package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestConfigFlags(t *testing.T) {
	tmp := t.TempDir()
	cfg := defaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.bindFlags(fs)

	err := fs.Parse([]string{"--dir", tmp, "-p", "8080", "--live", "--no-browser", "--tz", "Asia/Shanghai", "--log-format", "json"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if cfg.Port != 8080 || !cfg.Live || !cfg.NoBrowser || cfg.Log.Format != "json" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !filepath.IsAbs(cfg.Dir) {
		t.Fatalf("dir should be absolute, got %q", cfg.Dir)
	}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := formatTime(ts, cfg.location); got != "2024-01-01 08:00:00" {
		t.Fatalf("expected Asia/Shanghai offset, got %q", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.location != time.Local {
		t.Fatalf("default time zone should be local")
	}
	if cfg.Port != 0 || cfg.Live || cfg.MetricsAddr != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "f.txt")
	writeTestFile(t, file, "x")

	cases := map[string]func(*Config){
		"missing dir":  func(c *Config) { c.Dir = filepath.Join(tmp, "nope") },
		"file as dir":  func(c *Config) { c.Dir = file },
		"bad port":     func(c *Config) { c.Port = 70000 },
		"bad timezone": func(c *Config) { c.TimeZone = "Mars/Olympus" },
		"bad format":   func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := defaultConfig()
		cfg.Dir = tmp
		mutate(&cfg)
		if err := cfg.validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRootCommandVersion(t *testing.T) {
	cmd := newRootCommand()
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !strings.Contains(out.String(), Version) {
		t.Fatalf("expected version in output, got %q", out.String())
	}
}

func TestRootCommandRejectsBadDirectory(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing")})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error for a missing directory")
	}
}
