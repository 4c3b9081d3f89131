package connectivity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"fieldsync/internal/logging"
)

// netlinkWatcher listens for kernel uevents on the net subsystem and triggers
// an immediate connectivity probe when interfaces appear or disappear. This
// turns reconnects into near-instant sync triggers instead of waiting out the
// probe interval.
type netlinkWatcher struct {
	logger  *slog.Logger
	onEvent func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newNetlinkWatcher(logger *slog.Logger, onEvent func()) *netlinkWatcher {
	return &netlinkWatcher{
		logger:  logging.NewComponentLogger(logger, "netlink-watcher"),
		onEvent: onEvent,
	}
}

// Start begins listening for udev netlink events.
func (w *netlinkWatcher) Start(ctx context.Context) {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		w.logger.Warn("failed to connect to netlink socket; reconnect detection falls back to interval probing",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "reconnects noticed on the next probe interval"),
		)
		return
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.watchLoop(ctx, quit)

	w.logger.Info("netlink watcher started",
		logging.String(logging.FieldEventType, "netlink_watcher_started"),
	)
}

// Stop shuts down the netlink watcher.
func (w *netlinkWatcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}

	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}

	w.running = false
}

func (w *netlinkWatcher) watchLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, w.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			w.logger.Debug("network interface event",
				logging.String("action", string(uevent.Action)),
				logging.String("interface", uevent.Env["INTERFACE"]),
			)
			if w.onEvent != nil {
				w.onEvent()
			}
		case err := <-errs:
			w.logger.Warn("netlink watcher error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_watcher_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "reconnect detection may be delayed"),
			)
		}
	}
}

// buildMatcher matches interface lifecycle events on the net subsystem.
func (w *netlinkWatcher) buildMatcher() netlink.Matcher {
	action := "add|remove|change|move"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "net",
		},
	})
	return rules
}
