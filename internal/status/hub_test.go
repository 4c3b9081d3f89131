package status_test

import (
	"context"
	"testing"
	"time"

	"fieldsync/internal/queue"
	"fieldsync/internal/status"
	"fieldsync/internal/testsupport"
)

func TestSnapshotPullsPendingCount(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	hub := status.NewHub(store)

	snapshot, err := hub.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.PendingCount != 0 {
		t.Fatalf("expected 0 pending, got %d", snapshot.PendingCount)
	}
	if snapshot.LastSyncAt != nil {
		t.Fatal("expected no last sync time before first pass")
	}

	testsupport.Enqueue(t, store, queue.EntityProject, "p1", queue.OpCreate, `{}`)
	snapshot, err = hub.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.PendingCount != 1 {
		t.Fatalf("expected 1 pending, got %d", snapshot.PendingCount)
	}
}

func TestSubscribersSeeSyncLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	hub := status.NewHub(store)

	var snapshots []status.Snapshot
	unsubscribe := hub.Subscribe(func(s status.Snapshot) {
		snapshots = append(snapshots, s)
	})

	hub.SetOnline(true)
	hub.SyncStarted()
	finishedAt := time.Now()
	hub.SyncFinished(finishedAt, "")

	if len(snapshots) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(snapshots))
	}
	if !snapshots[0].IsOnline || snapshots[0].IsSyncing {
		t.Fatalf("unexpected first snapshot: %+v", snapshots[0])
	}
	if !snapshots[1].IsSyncing {
		t.Fatal("expected syncing snapshot after SyncStarted")
	}
	if snapshots[2].IsSyncing {
		t.Fatal("expected idle snapshot after SyncFinished")
	}
	if snapshots[2].LastSyncAt == nil {
		t.Fatal("expected last sync time after SyncFinished")
	}

	// Unchanged online state must not notify.
	hub.SetOnline(true)
	if len(snapshots) != 3 {
		t.Fatalf("level repeat must not notify, got %d", len(snapshots))
	}

	unsubscribe()
	hub.SyncStarted()
	if len(snapshots) != 3 {
		t.Fatalf("unsubscribed callback must not fire, got %d", len(snapshots))
	}
}
