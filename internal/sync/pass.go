package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
)

// Sync runs one pass over the pending queue.
//
// If a pass is already running the call returns immediately with a no-op
// result. If the remote is unreachable the call returns a failed result with
// the reason "Offline" without touching the gateway. Otherwise items are
// applied sequentially in creation order; per-item failures are recorded and
// never abort the pass.
func (e *Engine) Sync(ctx context.Context) Result {
	e.guard.Lock()
	if e.syncing {
		e.guard.Unlock()
		return Result{Success: true}
	}
	if !e.monitor.Online() {
		e.guard.Unlock()
		return Result{Success: false, Errors: []string{"Offline"}}
	}
	e.syncing = true
	e.guard.Unlock()

	passID := uuid.NewString()
	start := time.Now()
	passLogger := e.logger.With(logging.String(logging.FieldPassID, passID))

	e.hub.SyncStarted()
	result := e.drain(ctx, passLogger)

	// The guard resets and lastSyncAt advances on every path out of a pass.
	e.guard.Lock()
	e.syncing = false
	e.guard.Unlock()

	lastError := ""
	if len(result.Errors) > 0 {
		lastError = result.Errors[len(result.Errors)-1]
	}
	e.hub.SyncFinished(time.Now(), lastError)

	duration := time.Since(start)
	passLogger.Info("sync pass finished",
		logging.String(logging.FieldEventType, "pass_finished"),
		logging.Int("synced", result.SyncedCount),
		logging.Int("failed", result.FailedCount),
		logging.Bool("success", result.Success),
		logging.Duration("duration", duration),
	)

	if result.FailedCount > 0 {
		if err := e.notifier.NotifySyncCompleted(ctx, result.SyncedCount, result.FailedCount, duration); err != nil {
			passLogger.Warn("sync completion notification failed", logging.Error(err))
		}
	}
	return result
}

// drain applies every currently pending item, strictly in order.
func (e *Engine) drain(ctx context.Context, passLogger *slog.Logger) Result {
	result := Result{Success: true}

	items, err := e.store.ListPending(ctx)
	if err != nil {
		// Pass-level failure: the queue itself is unreachable.
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf("list pending: %v", err))
		passLogger.Warn("failed to read pending queue",
			logging.Error(err),
			logging.String(logging.FieldEventType, "pass_aborted"),
			logging.String(logging.FieldErrorHint, "check the queue database"),
			logging.String(logging.FieldImpact, "no mutations delivered this pass"),
		)
		return result
	}

	for _, item := range items {
		if err := e.apply(ctx, item); err != nil {
			e.recordItemFailure(ctx, item, err, &result, passLogger)
			continue
		}

		if err := e.store.MarkResolved(ctx, item.ID); err != nil {
			// Delivered but not recorded; the item will be re-sent next
			// pass, which the idempotent gateway tolerates.
			e.recordItemFailure(ctx, item, fmt.Errorf("mark resolved: %w", err), &result, passLogger)
			continue
		}
		result.SyncedCount++
		passLogger.Debug("mutation delivered",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldEntityType, string(item.EntityType)),
			logging.String(logging.FieldEntityID, item.EntityID),
			logging.String(logging.FieldOperation, string(item.Operation)),
		)
	}
	return result
}

func (e *Engine) apply(ctx context.Context, item *queue.Item) error {
	collection := remote.CollectionFor(item.EntityType)
	switch item.Operation {
	case queue.OpCreate, queue.OpUpdate:
		return e.gateway.Upsert(ctx, collection, item.EntityID, item.Payload)
	case queue.OpDelete:
		return e.gateway.SoftDelete(ctx, collection, item.EntityID)
	default:
		return fmt.Errorf("unknown operation %q", item.Operation)
	}
}

func (e *Engine) recordItemFailure(ctx context.Context, item *queue.Item, cause error, result *Result, passLogger *slog.Logger) {
	result.FailedCount++
	result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", item.EntityType, item.EntityID, cause))

	// The store parks the item in the same statement once the retry budget is
	// spent, so passes stop re-sending it. An operator requeues it with
	// 'queue retry', which grants one more attempt.
	attempts, parked, err := e.store.RecordFailure(ctx, item.ID, cause.Error(), e.cfg.Sync.RetryLimit)
	if err != nil {
		passLogger.Warn("failed to record delivery failure",
			logging.Error(err),
			logging.Int64(logging.FieldItemID, item.ID),
		)
		return
	}

	passLogger.Warn("mutation delivery failed",
		logging.Error(cause),
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEntityType, string(item.EntityType)),
		logging.String(logging.FieldEntityID, item.EntityID),
		logging.Int(logging.FieldAttempts, attempts),
	)

	if !parked {
		return
	}

	passLogger.Warn("retries exhausted, item parked",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEntityType, string(item.EntityType)),
		logging.String(logging.FieldEntityID, item.EntityID),
		logging.Int(logging.FieldAttempts, attempts),
		logging.String(logging.FieldEventType, "retries_exhausted"),
		logging.String(logging.FieldErrorHint, "inspect the item and requeue with 'fieldsync queue retry'"),
		logging.String(logging.FieldImpact, "mutation not delivered until requeued"),
	)
	if err := e.notifier.NotifyRetriesExhausted(ctx, string(item.EntityType), item.EntityID, attempts, cause.Error()); err != nil {
		passLogger.Warn("retries-exhausted notification failed", logging.Error(err))
	}
}
