package sync

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/connectivity"
	"fieldsync/internal/logging"
	"fieldsync/internal/notifications"
	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
	"fieldsync/internal/status"
)

// Result aggregates the outcome of one sync pass.
type Result struct {
	Success     bool
	SyncedCount int
	FailedCount int
	Errors      []string
}

// Engine owns the sync lifecycle: it schedules passes, drains the queue
// through the remote gateway, and reports outcomes to the status hub.
type Engine struct {
	cfg      *config.Config
	store    *queue.Store
	gateway  remote.Gateway
	monitor  connectivity.Monitor
	hub      *status.Hub
	notifier notifications.Service
	logger   *slog.Logger

	// guard protects the single-flight syncing flag.
	guard   gosync.Mutex
	syncing bool

	lifecycle   gosync.Mutex
	running     bool
	cancel      context.CancelFunc
	wg          gosync.WaitGroup
	unsubscribe func()

	trigger  chan struct{}
	enqueued chan struct{}
}

// New constructs an engine. Call Start to begin scheduled syncing; Sync and
// ForceSync work without Start for callers that drive passes themselves.
func New(
	cfg *config.Config,
	store *queue.Store,
	gateway remote.Gateway,
	monitor connectivity.Monitor,
	hub *status.Hub,
	notifier notifications.Service,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		gateway:  gateway,
		monitor:  monitor,
		hub:      hub,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "sync-engine"),
		trigger:  make(chan struct{}, 1),
		enqueued: make(chan struct{}, 1),
	}
}

// QueueOperation enqueues a mutation and schedules a debounced sync attempt.
// The mutation is durably recorded even when the engine is stopped or offline.
func (e *Engine) QueueOperation(ctx context.Context, entityType queue.EntityType, entityID string, operation queue.Operation, payload, actor string) (*queue.Item, error) {
	item, err := e.store.Enqueue(ctx, entityType, entityID, operation, payload, actor)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("mutation queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEntityType, string(item.EntityType)),
		logging.String(logging.FieldEntityID, item.EntityID),
		logging.String(logging.FieldOperation, string(item.Operation)),
	)

	select {
	case e.enqueued <- struct{}{}:
	default:
	}
	return item, nil
}

// Start launches the scheduler: the periodic ticker, the enqueue debounce,
// and the reconnect trigger. Calling Start on a running engine is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	if e.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true

	e.unsubscribe = e.monitor.Subscribe(func(online bool) {
		e.hub.SetOnline(online)
		if online {
			// Reconnect edge: sync as soon as the link returns.
			select {
			case e.trigger <- struct{}{}:
			default:
			}
		}
	})
	e.hub.SetOnline(e.monitor.Online())

	e.wg.Add(1)
	go e.run(runCtx)

	e.logger.Info("sync engine started",
		logging.String(logging.FieldEventType, "engine_started"),
		logging.Duration("poll_interval", time.Duration(e.cfg.Sync.PollInterval)*time.Second),
		logging.Duration("enqueue_debounce", time.Duration(e.cfg.Sync.EnqueueDebounceMS)*time.Millisecond),
		logging.Int("retry_limit", e.cfg.Sync.RetryLimit),
	)
	return nil
}

// Stop halts the scheduler and waits for any in-flight pass to finish.
// Calling Stop on a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.lifecycle.Lock()
	if !e.running {
		e.lifecycle.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.cancel = nil
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.lifecycle.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()

	e.logger.Info("sync engine stopped",
		logging.String(logging.FieldEventType, "engine_stopped"),
	)
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(time.Duration(e.cfg.Sync.PollInterval) * time.Second)
	defer ticker.Stop()

	debounceDelay := time.Duration(e.cfg.Sync.EnqueueDebounceMS) * time.Millisecond
	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	retryDelay := time.Duration(e.cfg.Sync.ErrorRetryInterval) * time.Second
	retry := time.NewTimer(retryDelay)
	if !retry.Stop() {
		<-retry.C
	}
	defer retry.Stop()

	// After a pass with failures, retry ahead of the next poll interval.
	runPass := func() {
		if result := e.Sync(ctx); result.FailedCount > 0 || !result.Success {
			if !retry.Stop() {
				select {
				case <-retry.C:
				default:
				}
			}
			retry.Reset(retryDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runPass()
		case <-e.trigger:
			runPass()
		case <-e.enqueued:
			// Restart the quiet period so a burst of writes yields one pass.
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(debounceDelay)
		case <-debounce.C:
			runPass()
		case <-retry.C:
			runPass()
		}
	}
}

// ForceSync clears the single-flight guard before syncing. It exists to
// recover a wedged engine; it does not abort a pass already in flight.
func (e *Engine) ForceSync(ctx context.Context) Result {
	e.guard.Lock()
	e.syncing = false
	e.guard.Unlock()

	e.logger.Warn("force sync requested",
		logging.String(logging.FieldEventType, "force_sync"),
		logging.String(logging.FieldImpact, "single-flight guard cleared"),
	)
	return e.Sync(ctx)
}
