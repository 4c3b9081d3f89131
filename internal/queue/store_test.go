package queue_test

import (
	"context"
	"errors"
	"testing"

	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

func TestEnqueueValidation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, queue.EntityProject, "p1", queue.OpCreate, "", "tester"); !errors.Is(err, queue.ErrPayloadRequired) {
		t.Fatalf("expected ErrPayloadRequired, got %v", err)
	}
	if _, err := store.Enqueue(ctx, queue.EntityProject, "p1", queue.OpUpdate, "", "tester"); !errors.Is(err, queue.ErrPayloadRequired) {
		t.Fatalf("expected ErrPayloadRequired for update, got %v", err)
	}
	if _, err := store.Enqueue(ctx, queue.EntityProject, "", queue.OpCreate, `{"name":"x"}`, "tester"); err == nil {
		t.Fatal("expected error for missing entity id")
	}
	if _, err := store.Enqueue(ctx, queue.EntityProject, "p1", queue.Operation("upsert"), `{}`, "tester"); err == nil {
		t.Fatal("expected error for unknown operation")
	}

	item, err := store.Enqueue(ctx, queue.EntityProject, "p1", queue.OpDelete, "", "tester")
	if err != nil {
		t.Fatalf("delete without payload should succeed: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %q", item.Status)
	}
	if item.Attempts != 0 {
		t.Fatalf("expected zero attempts, got %d", item.Attempts)
	}
	if item.CreatedAt.IsZero() {
		t.Fatal("expected created timestamp")
	}
}

func TestListPendingKeepsCreationOrder(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.Enqueue(t, store, queue.EntityTable, "t1", queue.OpCreate, `{"row":1}`)
	second := testsupport.Enqueue(t, store, queue.EntityTable, "t2", queue.OpCreate, `{"row":2}`)
	third := testsupport.Enqueue(t, store, queue.EntityWorkRecord, "w1", queue.OpUpdate, `{"done":true}`)

	// A failure on the oldest item must not push it behind newer work.
	if _, _, err := store.RecordFailure(ctx, first.ID, "connection reset", 3); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending items, got %d", len(pending))
	}
	wantOrder := []int64{first.ID, second.ID, third.ID}
	for i, item := range pending {
		if item.ID != wantOrder[i] {
			t.Fatalf("unexpected order at %d: got %d want %d", i, item.ID, wantOrder[i])
		}
	}
}

func TestRecordFailureAccounting(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.Enqueue(t, store, queue.EntityWorkRecord, "w1", queue.OpCreate, `{"hours":4}`)

	attempts, parked, err := store.RecordFailure(ctx, item.ID, "HTTP 503", 3)
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if attempts != 1 || parked {
		t.Fatalf("expected 1 attempt and no parking, got %d/%v", attempts, parked)
	}
	attempts, parked, err = store.RecordFailure(ctx, item.ID, "HTTP 500", 3)
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if attempts != 2 || parked {
		t.Fatalf("expected 2 attempts and no parking, got %d/%v", attempts, parked)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ErrorMessage != "HTTP 500" {
		t.Fatalf("expected latest error message, got %q", got.ErrorMessage)
	}
	if got.LastAttemptAt == nil {
		t.Fatal("expected last attempt timestamp")
	}
	if got.Status != queue.StatusPending {
		t.Fatalf("failure below the limit must not change status, got %q", got.Status)
	}
}

func TestRecordFailureParksAtLimit(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.Enqueue(t, store, queue.EntityWorkRecord, "w1", queue.OpCreate, `{}`)

	for i := 0; i < 2; i++ {
		if _, parked, err := store.RecordFailure(ctx, item.ID, "timeout", 3); err != nil || parked {
			t.Fatalf("attempt %d: err=%v parked=%v", i+1, err, parked)
		}
	}

	// The third failure increments the counter and parks the item in one
	// statement; there is no window where an exhausted item stays pending.
	attempts, parked, err := store.RecordFailure(ctx, item.ID, "timeout", 3)
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if attempts != 3 || !parked {
		t.Fatalf("expected parking on third attempt, got %d/%v", attempts, parked)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusFailed || got.Attempts != 3 {
		t.Fatalf("expected failed status with 3 attempts, got %+v", got)
	}

	// Without a positive limit the counter grows but nothing parks.
	free := testsupport.Enqueue(t, store, queue.EntityWorkRecord, "w2", queue.OpCreate, `{}`)
	for i := 0; i < 5; i++ {
		if _, parked, err := store.RecordFailure(ctx, free.ID, "timeout", 0); err != nil || parked {
			t.Fatalf("unlimited attempt %d: err=%v parked=%v", i+1, err, parked)
		}
	}
}

func TestMarkResolvedAndClearCompleted(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.Enqueue(t, store, queue.EntityProject, "p1", queue.OpCreate, `{"name":"north field"}`)
	keep := testsupport.Enqueue(t, store, queue.EntityProject, "p2", queue.OpCreate, `{"name":"south field"}`)

	if err := store.MarkResolved(ctx, item.ID); err != nil {
		t.Fatalf("MarkResolved: %v", err)
	}
	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}

	removed, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Fatalf("expected only pending item to remain, got %+v", remaining)
	}
}

func TestRetryFailedKeepsAttempts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.Enqueue(t, store, queue.EntityTableWorkState, "s1", queue.OpUpdate, `{"state":"piling"}`)
	for i := 0; i < 3; i++ {
		if _, _, err := store.RecordFailure(ctx, item.ID, "timeout", 3); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("failed item must leave the pending set, got %d", len(pending))
	}

	retried, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected 1 retried, got %d", retried)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %q", got.Status)
	}
	if got.Attempts != 3 {
		t.Fatalf("attempts must survive retry, got %d", got.Attempts)
	}
	if got.ErrorMessage != "" {
		t.Fatalf("expected error cleared after retry, got %q", got.ErrorMessage)
	}
}

func TestHealthCounts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.Enqueue(t, store, queue.EntityProject, "p1", queue.OpCreate, `{}`)
	done := testsupport.Enqueue(t, store, queue.EntityProject, "p2", queue.OpCreate, `{}`)
	bad := testsupport.Enqueue(t, store, queue.EntityProject, "p3", queue.OpCreate, `{}`)
	if err := store.MarkResolved(ctx, done.ID); err != nil {
		t.Fatalf("MarkResolved: %v", err)
	}
	if _, parked, err := store.RecordFailure(ctx, bad.ID, "rejected", 1); err != nil || !parked {
		t.Fatalf("RecordFailure: err=%v parked=%v", err, parked)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Completed != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}

	count, err := store.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 pending, got %d", count)
	}

	dbHealth, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.DatabaseReadable || !dbHealth.TableExists {
		t.Fatalf("unexpected database health: %+v", dbHealth)
	}
	if len(dbHealth.MissingColumns) != 0 {
		t.Fatalf("expected no missing columns, got %v", dbHealth.MissingColumns)
	}
	if !dbHealth.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
}
