package main

import (
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/Zereker/p2pstream"
)

// config holds the resolved p2pdump settings.
type config struct {
	Network     string
	ChunkSize   int
	Addr        string
	MetricsAddr string
	LogLevel    string
}

// p2pdump config.toml key mapping.
type fileConfig struct {
	Network     string `toml:"network"`
	ChunkSize   int    `toml:"chunk_size"`
	Addr        string `toml:"addr"`
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
}

func defaultConfig() config {
	return config{
		Network:   "mainnet",
		ChunkSize: 4096,
		Addr:      "127.0.0.1:8333",
		LogLevel:  "info",
	}
}

// loadConfig overlays the keys defined in path onto the defaults. An empty
// path yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, errors.Wrapf(err, "load config %s", path)
	}

	if meta.IsDefined("network") {
		cfg.Network = strings.TrimSpace(raw.Network)
	}
	if meta.IsDefined("chunk_size") {
		cfg.ChunkSize = raw.ChunkSize
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := cfg.validate(); err != nil {
		return config{}, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

func (c config) validate() error {
	if _, ok := p2pstream.NetworkMagic(c.Network); !ok {
		return errors.Errorf("unknown network %q", c.Network)
	}
	if c.ChunkSize <= 0 {
		return errors.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c config) magic() uint32 {
	magic, _ := p2pstream.NetworkMagic(c.Network)
	return magic
}

func (c config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, errors.Wrapf(err, "log_level %q", c.LogLevel)
	}
	return lvl, nil
}
