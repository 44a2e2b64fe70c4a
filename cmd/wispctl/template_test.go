package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteConfigTemplateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisp.toml")

	if err := writeConfigTemplate(path, false); err != nil {
		t.Fatalf("writeConfigTemplate: %v", err)
	}
	if err := writeConfigTemplate(path, false); err == nil {
		t.Fatal("expected error writing over an existing config")
	}
	if err := writeConfigTemplate(path, true); err != nil {
		t.Fatalf("overwrite enabled, writeConfigTemplate: %v", err)
	}
}

func TestConfigTemplateValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisp.toml")
	if err := writeConfigTemplate(path, false); err != nil {
		t.Fatalf("writeConfigTemplate: %v", err)
	}

	if err := validateConfigFile(path); err != nil {
		t.Fatalf("template should validate: %v", err)
	}

	cfg, err := loadDaemonConfig(path)
	if err != nil {
		t.Fatalf("loadDaemonConfig: %v", err)
	}
	if cfg.Service.Toolkit != "my-toolkit" {
		t.Fatalf("toolkit = %q, want my-toolkit", cfg.Service.Toolkit)
	}
	if cfg.Service.Reconnect != "auto" {
		t.Fatalf("reconnect = %q, want auto", cfg.Service.Reconnect)
	}
}

func TestValidateConfigFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisp.toml")
	body := "toolkit = \"demo\"\nws_endpont = \"wss://example.test/ws\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := validateConfigFile(path); err == nil {
		t.Fatal("expected misspelled key to be rejected")
	}
}

func TestValidateConfigFileExample(t *testing.T) {
	if err := validateConfigFile("ex.config.toml"); err != nil {
		t.Fatalf("example config should validate: %v", err)
	}
}

func TestValidateConfigFileMissing(t *testing.T) {
	if err := validateConfigFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}
