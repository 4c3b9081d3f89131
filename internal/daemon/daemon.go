package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"fieldsync/internal/config"
	"fieldsync/internal/connectivity"
	"fieldsync/internal/logging"
	"fieldsync/internal/notifications"
	"fieldsync/internal/preflight"
	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
	"fieldsync/internal/status"
	"fieldsync/internal/sync"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	monitor  *connectivity.ProbeMonitor
	hub      *status.Hub
	notifier notifications.Service
	engine   *sync.Engine
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status reports daemon runtime information for the CLI.
type Status struct {
	Running      bool
	Online       bool
	Syncing      bool
	PendingCount int
	LastSyncAt   *time.Time
	LastError    string
	QueueDBPath  string
	SocketPath   string
	LockFilePath string
}

// New constructs a daemon and its dependency graph from an open queue store.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	monitor := connectivity.NewProbeMonitor(cfg, logger)
	hub := status.NewHub(store)
	notifier := notifications.NewService(cfg)
	gateway := remote.NewClient(cfg, logger)
	engine := sync.New(cfg, store, gateway, monitor, hub, notifier, logger)

	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		monitor:  monitor,
		hub:      hub,
		notifier: notifier,
		engine:   engine,
		logPath:  filepath.Join(cfg.Paths.LogDir, "fieldsync.log"),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}, nil
}

// Start acquires the instance lock, runs preflight checks, and launches the
// connectivity monitor and sync engine.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fieldsync daemon instance is already running")
	}

	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if result.Passed {
			d.logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.monitor.Start(runCtx); err != nil {
		d.releaseStart()
		return fmt.Errorf("start connectivity monitor: %w", err)
	}
	if err := d.engine.Start(runCtx); err != nil {
		d.monitor.Stop()
		d.releaseStart()
		return fmt.Errorf("start sync engine: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("fieldsync daemon started",
		logging.String("lock", d.lockPath),
		logging.String("socket", d.cfg.SocketPath()),
	)
	return nil
}

func (d *Daemon) releaseStart() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}

// Stop halts background services and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.engine.Stop()
	d.monitor.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("fieldsync daemon stopped")
}

// Close stops the daemon and closes the queue store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status, including the live sync snapshot.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	snapshot, err := d.hub.Snapshot(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("read status snapshot: %w", err)
	}
	return Status{
		Running:      d.running.Load(),
		Online:       snapshot.IsOnline,
		Syncing:      snapshot.IsSyncing,
		PendingCount: snapshot.PendingCount,
		LastSyncAt:   snapshot.LastSyncAt,
		LastError:    snapshot.Error,
		QueueDBPath:  d.cfg.DatabasePath(),
		SocketPath:   d.cfg.SocketPath(),
		LockFilePath: d.lockPath,
	}, nil
}

// Sync runs a sync pass, honoring the single-flight guard.
func (d *Daemon) Sync(ctx context.Context) sync.Result {
	return d.engine.Sync(ctx)
}

// ForceSync clears the single-flight guard and runs a sync pass.
func (d *Daemon) ForceSync(ctx context.Context) sync.Result {
	return d.engine.ForceSync(ctx)
}

// QueueOperation records a mutation for eventual delivery.
func (d *Daemon) QueueOperation(ctx context.Context, entityType queue.EntityType, entityID string, operation queue.Operation, payload, actor string) (*queue.Item, error) {
	return d.engine.QueueOperation(ctx, entityType, entityID, operation, payload, actor)
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	return d.store.List(ctx, statuses...)
}

// RetryFailed requeues failed items (optionally a subset) for delivery.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	return d.store.RetryFailed(ctx, ids...)
}

// RemoveItem deletes a single queue item regardless of status.
func (d *Daemon) RemoveItem(ctx context.Context, id int64) (bool, error) {
	return d.store.Remove(ctx, id)
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearCompleted removes delivered queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes parked queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification sends a test message through the configured ntfy topic.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}
