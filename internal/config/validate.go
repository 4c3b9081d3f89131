package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateConnectivity(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRemote() error {
	if c.Remote.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/fieldsync/config.toml"
		}
		return fmt.Errorf("remote.base_url is required. Edit %s (create with 'fieldsync config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Remote.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("remote.base_url must be an absolute URL, got %q", c.Remote.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("remote.base_url must use http or https, got %q", parsed.Scheme)
	}
	if !strings.HasPrefix(c.Remote.ProbePath, "/") {
		return errors.New("remote.probe_path must start with /")
	}
	return nil
}

func (c *Config) validateSync() error {
	return ensurePositiveMap(map[string]int{
		"sync.poll_interval":        c.Sync.PollInterval,
		"sync.enqueue_debounce_ms":  c.Sync.EnqueueDebounceMS,
		"sync.retry_limit":          c.Sync.RetryLimit,
		"sync.error_retry_interval": c.Sync.ErrorRetryInterval,
		"remote.request_timeout":    c.Remote.RequestTimeout,
	})
}

func (c *Config) validateConnectivity() error {
	if err := ensurePositiveMap(map[string]int{
		"connectivity.probe_interval": c.Connectivity.ProbeInterval,
		"connectivity.probe_timeout":  c.Connectivity.ProbeTimeout,
	}); err != nil {
		return err
	}
	if c.Connectivity.ProbeTimeout > c.Connectivity.ProbeInterval {
		return errors.New("connectivity.probe_timeout must not exceed connectivity.probe_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
