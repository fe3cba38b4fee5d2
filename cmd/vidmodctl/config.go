package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/vidmod/internal/logging"
	"github.com/danmuck/vidmod/internal/pipeline"
)

type fileConfig struct {
	LogLevel    string   `toml:"log_level"`
	MaxPasses   int      `toml:"max_passes"`
	MetricsAddr string   `toml:"metrics_addr"`
	CorsOrigins []string `toml:"cors_origins"`
	NodeTypes   []string `toml:"node_types"`
}

type runtimeConfig struct {
	LogLevel    string
	MaxPasses   int
	MetricsAddr string
	CorsOrigins []string
	// NodeTypes limits the registry; empty means every built-in type.
	NodeTypes []string
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		MaxPasses:   pipeline.DefaultMaxPasses,
		CorsOrigins: []string{"http://localhost:3000"},
	}
}

func loadRuntimeConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load vidmodctl config: %w", err)
	}

	if meta.IsDefined("log_level") {
		level := strings.TrimSpace(raw.LogLevel)
		if _, ok := logging.ParseLevel(level); !ok {
			return runtimeConfig{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("max_passes") {
		if raw.MaxPasses <= 0 {
			return runtimeConfig{}, fmt.Errorf("max_passes must be positive, got %d", raw.MaxPasses)
		}
		cfg.MaxPasses = raw.MaxPasses
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}

	if meta.IsDefined("node_types") {
		cfg.NodeTypes = normalizeList(raw.NodeTypes)
	}

	return cfg, nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
