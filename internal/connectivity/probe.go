package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

// ProbeMonitor polls the remote health endpoint to decide reachability.
type ProbeMonitor struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *http.Client
	probeURL string
	subs     *subscribers
	kick     chan struct{}

	mu      sync.Mutex
	online  bool
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	watcher *netlinkWatcher
}

// NewProbeMonitor builds a monitor for the configured remote endpoint.
// The monitor starts offline; the first probe runs as soon as Start is called.
func NewProbeMonitor(cfg *config.Config, logger *slog.Logger) *ProbeMonitor {
	m := &ProbeMonitor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "connectivity"),
		client: &http.Client{
			Timeout: time.Duration(cfg.Connectivity.ProbeTimeout) * time.Second,
		},
		probeURL: cfg.Remote.BaseURL + cfg.Remote.ProbePath,
		subs:     newSubscribers(),
		kick:     make(chan struct{}, 1),
	}
	if cfg.Connectivity.Netlink {
		m.watcher = newNetlinkWatcher(logger, m.ProbeNow)
	}
	return m
}

// Start launches the probe loop. Calling Start on a running monitor is a no-op.
func (m *ProbeMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.probeLoop(loopCtx)

	if m.watcher != nil {
		m.watcher.Start(loopCtx)
	}

	m.logger.Info("connectivity monitor started",
		logging.String(logging.FieldEventType, "connectivity_started"),
		logging.String("probe_url", m.probeURL),
		logging.Duration("interval", time.Duration(m.cfg.Connectivity.ProbeInterval)*time.Second),
	)
	return nil
}

// Stop halts the probe loop and waits for it to exit.
func (m *ProbeMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if m.watcher != nil {
		m.watcher.Stop()
	}
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Online returns the last observed reachability state.
func (m *ProbeMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a callback invoked on every state transition.
func (m *ProbeMonitor) Subscribe(fn func(online bool)) func() {
	return m.subs.add(fn)
}

// ProbeNow requests an immediate probe without waiting for the next interval.
func (m *ProbeMonitor) ProbeNow() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *ProbeMonitor) probeLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Duration(m.cfg.Connectivity.ProbeInterval) * time.Second)
	defer ticker.Stop()

	m.probeOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeOnce(ctx)
		case <-m.kick:
			m.probeOnce(ctx)
		}
	}
}

func (m *ProbeMonitor) probeOnce(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		m.setOnline(false)
		return
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.setOnline(false)
		return
	}
	resp.Body.Close()

	// Any HTTP response means the endpoint is reachable; application-level
	// errors surface per item during delivery instead.
	m.setOnline(true)
}

func (m *ProbeMonitor) setOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.mu.Unlock()

	if !changed {
		return
	}

	if online {
		m.logger.Info("remote reachable",
			logging.String(logging.FieldEventType, "connectivity_online"),
		)
	} else {
		m.logger.Warn("remote unreachable",
			logging.String(logging.FieldEventType, "connectivity_offline"),
			logging.String(logging.FieldImpact, "mutations stay queued until the link returns"),
		)
	}
	m.subs.notify(online)
}
