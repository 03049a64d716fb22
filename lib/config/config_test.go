// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected port=8000, got %d", cfg.Server.Port)
	}

	if !cfg.Server.OpenBrowser {
		t.Error("expected open_browser=true for development")
	}

	if cfg.Backup.Keep != 2 {
		t.Errorf("expected keep=2, got %d", cfg.Backup.Keep)
	}

	if cfg.Launch.Runtime != "python3" {
		t.Errorf("expected runtime=python3, got %s", cfg.Launch.Runtime)
	}

	if cfg.Launch.Entry != "launcher.py" {
		t.Errorf("expected entry=launcher.py, got %s", cfg.Launch.Entry)
	}
}

func TestLoad_RequiresFacekioskConfig(t *testing.T) {
	// Save and restore FACEKIOSK_CONFIG.
	origConfig := os.Getenv("FACEKIOSK_CONFIG")
	defer os.Setenv("FACEKIOSK_CONFIG", origConfig)

	// Unset FACEKIOSK_CONFIG - Load() should fail.
	os.Unsetenv("FACEKIOSK_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when FACEKIOSK_CONFIG not set, got nil")
	}

	expectedMsg := "FACEKIOSK_CONFIG environment variable not set"
	if err.Error()[:len(expectedMsg)] != expectedMsg {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithFacekioskConfig(t *testing.T) {
	// Save and restore FACEKIOSK_CONFIG.
	origConfig := os.Getenv("FACEKIOSK_CONFIG")
	defer os.Setenv("FACEKIOSK_CONFIG", origConfig)

	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "facekiosk.yaml")

	configContent := `
environment: development
paths:
  root: /test/root
server:
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Set FACEKIOSK_CONFIG and load.
	os.Setenv("FACEKIOSK_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port=9000, got %d", cfg.Server.Port)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "facekiosk.yaml")

	configContent := `
environment: development

paths:
  root: /custom/root

server:
  port: 8443
  bind: 0.0.0.0
  open_browser: false

backup:
  keep: 5
  compression: zstd

launch:
  runtime: python3.12
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/custom/root" {
		t.Errorf("expected root=/custom/root, got %s", cfg.Paths.Root)
	}

	if cfg.Server.Port != 8443 {
		t.Errorf("expected port=8443, got %d", cfg.Server.Port)
	}

	if cfg.Server.Bind != "0.0.0.0" {
		t.Errorf("expected bind=0.0.0.0, got %s", cfg.Server.Bind)
	}

	if cfg.Backup.Keep != 5 {
		t.Errorf("expected keep=5, got %d", cfg.Backup.Keep)
	}

	if cfg.Backup.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Backup.Compression)
	}

	if cfg.Launch.Runtime != "python3.12" {
		t.Errorf("expected runtime=python3.12, got %s", cfg.Launch.Runtime)
	}

	// Unset fields keep their defaults.
	if cfg.Launch.Entry != "launcher.py" {
		t.Errorf("expected default entry=launcher.py, got %s", cfg.Launch.Entry)
	}
}

func TestRootExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "facekiosk.yaml")

	configContent := `
paths:
  root: /srv/kiosk
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// Dependent default paths follow the overridden root.
	if cfg.Paths.Records != "/srv/kiosk/Record" {
		t.Errorf("expected records=/srv/kiosk/Record, got %s", cfg.Paths.Records)
	}

	if cfg.Paths.Backups != "/srv/kiosk/Record/BackUP" {
		t.Errorf("expected backups=/srv/kiosk/Record/BackUP, got %s", cfg.Paths.Backups)
	}

	if cfg.Paths.Certificate != "/srv/kiosk/localhost.pem" {
		t.Errorf("expected certificate=/srv/kiosk/localhost.pem, got %s", cfg.Paths.Certificate)
	}

	if cfg.Models.Manifest != "/srv/kiosk/models.jsonc" {
		t.Errorf("expected manifest=/srv/kiosk/models.jsonc, got %s", cfg.Models.Manifest)
	}
}

func TestProductionDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "facekiosk.yaml")

	configContent := `
environment: production
paths:
  root: /srv/kiosk
backup:
  key_file: /srv/kiosk/backup.key
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.OpenBrowser {
		t.Error("expected open_browser=false for production")
	}

	if !cfg.Backup.Encrypt {
		t.Error("expected encrypt=true for production")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "facekiosk.yaml")

	configContent := `
environment: production
paths:
  root: /srv/kiosk
production:
  server:
    port: 8443
  backup:
    keep: 10
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Port != 8443 {
		t.Errorf("expected port=8443 from production section, got %d", cfg.Server.Port)
	}

	if cfg.Backup.Keep != 10 {
		t.Errorf("expected keep=10 from production section, got %d", cfg.Backup.Keep)
	}

	// The development section must not apply in production.
	if cfg.Server.Bind != "localhost" {
		t.Errorf("expected default bind=localhost, got %s", cfg.Server.Bind)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Finalize()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	bad := Default()
	bad.Finalize()
	bad.Environment = "cloud"
	bad.Server.Port = 80
	bad.Backup.Compression = "brotli"
	bad.Server.BrowserDelay = "soon"
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation errors, got nil")
	}

	for _, want := range []string{
		"invalid environment",
		"server.port",
		"backup.compression",
		"server.browser_delay",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected validation error mentioning %q, got: %v", want, err)
		}
	}
}

func TestValidate_EncryptRequiresKeyFile(t *testing.T) {
	cfg := Default()
	cfg.Finalize()
	cfg.Backup.Encrypt = true
	cfg.Backup.KeyFile = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for encrypt without key_file")
	}
	if !strings.Contains(err.Error(), "backup.key_file") {
		t.Errorf("expected key_file error, got: %v", err)
	}
}

func TestBrowserDelayDuration(t *testing.T) {
	cfg := Default()
	if got := cfg.BrowserDelayDuration(); got != 2*time.Second {
		t.Errorf("expected 2s, got %v", got)
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = tmpDir
	cfg.Finalize()

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.Records, cfg.Paths.Backups, cfg.Paths.Models} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected %s to exist: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}
}

func TestHasTLS(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = tmpDir
	cfg.Finalize()

	if cfg.HasTLS() {
		t.Error("expected HasTLS=false with no cert files")
	}

	for _, name := range []string{"localhost.pem", "localhost.key"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	if !cfg.HasTLS() {
		t.Error("expected HasTLS=true with both cert files present")
	}
}
