package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zereker/p2pstream"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "p2pdump.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg != defaultConfig() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.magic() != p2pstream.MagicMainNet {
		t.Fatalf("unexpected magic: 0x%08x", cfg.magic())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
network = "regtest"
chunk_size = 512
addr = " 0.0.0.0:18444 "
metrics_addr = "127.0.0.1:9108"
log_level = "debug"
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.magic() != p2pstream.MagicRegtest {
		t.Fatalf("unexpected magic: 0x%08x", cfg.magic())
	}
	if cfg.ChunkSize != 512 {
		t.Fatalf("unexpected chunk size: %d", cfg.ChunkSize)
	}
	if cfg.Addr != "0.0.0.0:18444" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.MetricsAddr != "127.0.0.1:9108" {
		t.Fatalf("unexpected metrics addr: %q", cfg.MetricsAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `chunk_size = 1`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ChunkSize != 1 {
		t.Fatalf("unexpected chunk size: %d", cfg.ChunkSize)
	}
	if cfg.Network != "mainnet" || cfg.Addr != defaultConfig().Addr {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"network":    `network = "moonnet"`,
		"chunk size": `chunk_size = 0`,
		"log level":  `log_level = "loud"`,
		"syntax":     `network = `,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, content)
			_, err := loadConfig(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), path) {
				t.Fatalf("error should name the file: %v", err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
