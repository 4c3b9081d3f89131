package config

const (
	defaultDataDir            = "~/.local/share/fieldsync"
	defaultLogDir             = "~/.local/share/fieldsync/logs"
	defaultRemoteTimeout      = 30
	defaultProbePath          = "/health"
	defaultPollInterval       = 30
	defaultEnqueueDebounceMS  = 1000
	defaultRetryLimit         = 3
	defaultErrorRetryInterval = 10
	defaultProbeInterval      = 15
	defaultProbeTimeout       = 5
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Remote: Remote{
			RequestTimeout: defaultRemoteTimeout,
			ProbePath:      defaultProbePath,
		},
		Sync: Sync{
			PollInterval:       defaultPollInterval,
			EnqueueDebounceMS:  defaultEnqueueDebounceMS,
			RetryLimit:         defaultRetryLimit,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Connectivity: Connectivity{
			ProbeInterval: defaultProbeInterval,
			ProbeTimeout:  defaultProbeTimeout,
			Netlink:       true,
		},
		Notifications: Notifications{
			RequestTimeout:   defaultNotifyTimeout,
			SyncFailures:     true,
			RetriesExhausted: true,
			Errors:           true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
