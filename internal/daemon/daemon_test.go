package daemon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/daemon"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

func newTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithRemoteBaseURL(baseURL))
	cfg.Sync.PollInterval = 3600
	cfg.Sync.EnqueueDebounceMS = 50
	cfg.Connectivity.Netlink = false
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return cfg
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestDaemonSecondInstanceRefused(t *testing.T) {
	cfg := newTestConfig(t, "http://127.0.0.1:0")
	store := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail to start")
	}
}

func TestDaemonDeliversQueuedMutation(t *testing.T) {
	var mu sync.Mutex
	var puts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			mu.Lock()
			puts = append(puts, r.URL.Path)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := newTestConfig(t, server.URL)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	ctx := context.Background()
	waitFor(t, 2*time.Second, func() bool {
		st, err := d.Status(ctx)
		return err == nil && st.Online
	}, "daemon never observed the remote as reachable")

	if _, err := d.QueueOperation(ctx, queue.EntityWorkRecord, "wr-9", queue.OpCreate, `{"tableId":"t1"}`, "crew-a"); err != nil {
		t.Fatalf("QueueOperation: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool {
		st, err := d.Status(ctx)
		return err == nil && st.PendingCount == 0 && st.LastSyncAt != nil
	}, "queued mutation never drained")

	mu.Lock()
	defer mu.Unlock()
	if len(puts) != 1 || puts[0] != "/workRecords/wr-9" {
		t.Fatalf("unexpected upsert paths: %v", puts)
	}
}

func TestDaemonStatusReportsPaths(t *testing.T) {
	cfg := newTestConfig(t, "http://127.0.0.1:0")
	store := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	st, err := d.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if st.QueueDBPath != cfg.DatabasePath() {
		t.Fatalf("unexpected queue db path %q", st.QueueDBPath)
	}
	if st.SocketPath != cfg.SocketPath() {
		t.Fatalf("unexpected socket path %q", st.SocketPath)
	}
}
