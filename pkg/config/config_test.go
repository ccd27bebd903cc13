package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doctor.yaml")
	content := `platform: android
bootTimeoutSec: 120
shutdownTimeoutSec: 15
pollIntervalMs: 500
commandTimeoutSec: 30
certFile: ./proxy-ca.pem
logFile: /tmp/doctor.log
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Platform != "android" {
		t.Errorf("Platform = %q, want android", cfg.Platform)
	}
	if cfg.BootTimeout() != 120*time.Second {
		t.Errorf("BootTimeout() = %v, want 2m", cfg.BootTimeout())
	}
	if cfg.ShutdownTimeout() != 15*time.Second {
		t.Errorf("ShutdownTimeout() = %v, want 15s", cfg.ShutdownTimeout())
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 500ms", cfg.PollInterval())
	}
	if cfg.CommandTimeout() != 30*time.Second {
		t.Errorf("CommandTimeout() = %v, want 30s", cfg.CommandTimeout())
	}
	if cfg.CertFile != "./proxy-ca.pem" {
		t.Errorf("CertFile = %q", cfg.CertFile)
	}
	if cfg.LogFile != "/tmp/doctor.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/doctor.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doctor.yaml")
	if err := os.WriteFile(path, []byte("platform: [unclosed"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	if cfg.BootTimeout() != DefaultBootTimeout {
		t.Errorf("BootTimeout() = %v, want default %v", cfg.BootTimeout(), DefaultBootTimeout)
	}
	if cfg.ShutdownTimeout() != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout() = %v, want default %v", cfg.ShutdownTimeout(), DefaultShutdownTimeout)
	}
	if cfg.PollInterval() != DefaultPollInterval {
		t.Errorf("PollInterval() = %v, want default %v", cfg.PollInterval(), DefaultPollInterval)
	}
	if cfg.CommandTimeout() != DefaultCommandTimeout {
		t.Errorf("CommandTimeout() = %v, want default %v", cfg.CommandTimeout(), DefaultCommandTimeout)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doctor.yaml"), []byte("platform: ios\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir() error: %v", err)
	}
	if cfg.Platform != "ios" {
		t.Errorf("Platform = %q, want ios", cfg.Platform)
	}
}

func TestLoadFromDir_YmlFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doctor.yml"), []byte("platform: android\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir() error: %v", err)
	}
	if cfg.Platform != "android" {
		t.Errorf("Platform = %q, want android", cfg.Platform)
	}
}

func TestLoadFromDir_Missing(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromDir() on empty dir should default, got: %v", err)
	}
	if cfg.Platform != "" {
		t.Errorf("Platform = %q, want empty", cfg.Platform)
	}
	if cfg.BootTimeout() != DefaultBootTimeout {
		t.Errorf("BootTimeout() = %v, want default", cfg.BootTimeout())
	}
}
