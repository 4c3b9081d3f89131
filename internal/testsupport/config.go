// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"fieldsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Remote.BaseURL = "http://127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithRemoteBaseURL points the test config at a specific remote endpoint,
// typically an httptest server.
func WithRemoteBaseURL(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Remote.BaseURL = baseURL
	}
}

// WithRetryLimit overrides the delivery retry ceiling on the test config.
func WithRetryLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sync.RetryLimit = limit
	}
}
