package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Remote contains configuration for the remote document store endpoint.
type Remote struct {
	BaseURL        string `toml:"base_url"`
	APIToken       string `toml:"api_token"`
	RequestTimeout int    `toml:"request_timeout"`
	ProbePath      string `toml:"probe_path"`
}

// Sync contains timing and retry configuration for the sync engine.
type Sync struct {
	PollInterval       int `toml:"poll_interval"`
	EnqueueDebounceMS  int `toml:"enqueue_debounce_ms"`
	RetryLimit         int `toml:"retry_limit"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Connectivity contains configuration for the reachability monitor.
type Connectivity struct {
	ProbeInterval int  `toml:"probe_interval"`
	ProbeTimeout  int  `toml:"probe_timeout"`
	Netlink       bool `toml:"netlink"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic        string `toml:"ntfy_topic"`
	RequestTimeout   int    `toml:"request_timeout"`
	SyncFailures     bool   `toml:"sync_failures"`
	RetriesExhausted bool   `toml:"retries_exhausted"`
	Errors           bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fieldsync.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Remote: document store endpoint and credentials
//   - Sync: poll interval, debounce, and retry ceiling
//   - Connectivity: reachability probe settings
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Remote        Remote        `toml:"remote"`
	Sync          Sync          `toml:"sync"`
	Connectivity  Connectivity  `toml:"connectivity"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fieldsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/fieldsync/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fieldsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the queue database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "fieldsync.db")
}

// SocketPath returns the Unix socket used for daemon IPC.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "fieldsyncd.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "fieldsyncd.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
