// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads optional YAML connection profiles.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultBaudRate  = 9600
	DefaultTimeoutMs = 1000
	DefaultSettleMs  = 2000
	DefaultLogLevel  = "warn"
)

// Config is the top-level profile document
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConnectionConfig selects serial or WebSocket transport.
// The WebSocket password is never read from the file.
type ConnectionConfig struct {
	Port        string `yaml:"port"`
	BaudRate    int    `yaml:"baud"`
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	SettleMs    *int   `yaml:"settle_ms"`
	Precise     bool   `yaml:"precise"`
}

// LoggingConfig controls the diagnostic logger
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Trace      string `yaml:"trace"`
}

// Load reads, validates and defaults a profile
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a profile from YAML bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Validate checks field ranges. It does not mutate the config.
func (c *Config) Validate() error {
	conn := c.Connection

	if conn.Port != "" && conn.URL != "" {
		return fmt.Errorf("connection: port and url are mutually exclusive")
	}
	if conn.URL != "" {
		u, err := url.Parse(conn.URL)
		if err != nil {
			return fmt.Errorf("connection.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("connection.url: unsupported scheme %q (use ws:// or wss://)", u.Scheme)
		}
	}
	if conn.BaudRate < 0 {
		return fmt.Errorf("connection.baud: must be positive, got %d", conn.BaudRate)
	}
	if conn.TimeoutMs < 0 {
		return fmt.Errorf("connection.timeout_ms: must be positive, got %d", conn.TimeoutMs)
	}
	if conn.SettleMs != nil && *conn.SettleMs < 0 {
		return fmt.Errorf("connection.settle_ms: must not be negative, got %d", *conn.SettleMs)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}

	return nil
}

// ApplyDefaults fills unset fields. Call after Validate.
func (c *Config) ApplyDefaults() {
	if c.Connection.BaudRate == 0 {
		c.Connection.BaudRate = DefaultBaudRate
	}
	if c.Connection.TimeoutMs == 0 {
		c.Connection.TimeoutMs = DefaultTimeoutMs
	}
	if c.Connection.SettleMs == nil {
		settle := DefaultSettleMs
		c.Connection.SettleMs = &settle
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}

// Timeout returns the read timeout as a duration
func (c ConnectionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Settle returns the post-open settle delay as a duration
func (c ConnectionConfig) Settle() time.Duration {
	if c.SettleMs == nil {
		return DefaultSettleMs * time.Millisecond
	}
	return time.Duration(*c.SettleMs) * time.Millisecond
}
