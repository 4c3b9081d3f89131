package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRemote()
	c.normalizeSync()
	c.normalizeConnectivity()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRemote() {
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	c.Remote.APIToken = strings.TrimSpace(c.Remote.APIToken)
	if c.Remote.APIToken == "" {
		if value, ok := os.LookupEnv("FIELDSYNC_API_TOKEN"); ok {
			c.Remote.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Remote.RequestTimeout <= 0 {
		c.Remote.RequestTimeout = defaultRemoteTimeout
	}
	c.Remote.ProbePath = strings.TrimSpace(c.Remote.ProbePath)
	if c.Remote.ProbePath == "" {
		c.Remote.ProbePath = defaultProbePath
	}
	if !strings.HasPrefix(c.Remote.ProbePath, "/") {
		c.Remote.ProbePath = "/" + c.Remote.ProbePath
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.PollInterval <= 0 {
		c.Sync.PollInterval = defaultPollInterval
	}
	if c.Sync.EnqueueDebounceMS <= 0 {
		c.Sync.EnqueueDebounceMS = defaultEnqueueDebounceMS
	}
	if c.Sync.RetryLimit <= 0 {
		c.Sync.RetryLimit = defaultRetryLimit
	}
	if c.Sync.ErrorRetryInterval <= 0 {
		c.Sync.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeConnectivity() {
	if c.Connectivity.ProbeInterval <= 0 {
		c.Connectivity.ProbeInterval = defaultProbeInterval
	}
	if c.Connectivity.ProbeTimeout <= 0 {
		c.Connectivity.ProbeTimeout = defaultProbeTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
