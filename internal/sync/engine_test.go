package sync_test

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"fieldsync/internal/connectivity"
	"fieldsync/internal/logging"
	"fieldsync/internal/notifications"
	"fieldsync/internal/queue"
	"fieldsync/internal/status"
	"fieldsync/internal/sync"
	"fieldsync/internal/testsupport"
)

type gatewayCall struct {
	method     string
	collection string
	id         string
	payload    string
}

// fakeGateway records calls and fails on demand. When enter/release are set,
// calls block so tests can observe an in-flight pass.
type fakeGateway struct {
	mu      gosync.Mutex
	calls   []gatewayCall
	failFor map[string]error
	enter   chan struct{}
	release chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failFor: make(map[string]error)}
}

func (g *fakeGateway) Upsert(_ context.Context, collection, id, payload string) error {
	return g.record(gatewayCall{method: "upsert", collection: collection, id: id, payload: payload})
}

func (g *fakeGateway) SoftDelete(_ context.Context, collection, id string) error {
	return g.record(gatewayCall{method: "softDelete", collection: collection, id: id})
}

func (g *fakeGateway) record(call gatewayCall) error {
	if g.enter != nil {
		g.enter <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	g.mu.Lock()
	g.calls = append(g.calls, call)
	err := g.failFor[call.id]
	g.mu.Unlock()
	return err
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) callIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, len(g.calls))
	for i, call := range g.calls {
		ids[i] = call.id
	}
	return ids
}

func (g *fakeGateway) setFailure(id string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failFor, id)
	} else {
		g.failFor[id] = err
	}
}

type engineHarness struct {
	store   *queue.Store
	gateway *fakeGateway
	monitor *connectivity.Manual
	hub     *status.Hub
	engine  *sync.Engine
}

func newEngineHarness(t *testing.T, opts ...testsupport.ConfigOption) *engineHarness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	gateway := newFakeGateway()
	monitor := connectivity.NewManual(true)
	hub := status.NewHub(store)
	notifier := notifications.NewService(cfg)
	engine := sync.New(cfg, store, gateway, monitor, hub, notifier, logging.NewNop())
	return &engineHarness{
		store:   store,
		gateway: gateway,
		monitor: monitor,
		hub:     hub,
		engine:  engine,
	}
}

func TestSyncOfflineShortCircuit(t *testing.T) {
	h := newEngineHarness(t)
	h.monitor.SetOnline(false)
	testsupport.Enqueue(t, h.store, queue.EntityProject, "p1", queue.OpCreate, `{}`)

	result := h.engine.Sync(context.Background())
	if result.Success {
		t.Fatal("offline pass must not report success")
	}
	if result.SyncedCount != 0 || result.FailedCount != 0 {
		t.Fatalf("offline pass must not count items: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "Offline" {
		t.Fatalf("expected [Offline], got %v", result.Errors)
	}
	if h.gateway.callCount() != 0 {
		t.Fatalf("offline pass must not touch the gateway, got %d calls", h.gateway.callCount())
	}
}

func TestSyncSingleFlight(t *testing.T) {
	h := newEngineHarness(t)
	testsupport.Enqueue(t, h.store, queue.EntityProject, "p1", queue.OpCreate, `{}`)

	h.gateway.enter = make(chan struct{}, 1)
	h.gateway.release = make(chan struct{})

	done := make(chan sync.Result, 1)
	go func() {
		done <- h.engine.Sync(context.Background())
	}()

	// Wait until the first pass is inside the gateway, then call again.
	<-h.gateway.enter
	second := h.engine.Sync(context.Background())
	if !second.Success || second.SyncedCount != 0 || second.FailedCount != 0 || len(second.Errors) != 0 {
		t.Fatalf("concurrent call must be a no-op, got %+v", second)
	}

	close(h.gateway.release)
	first := <-done
	if first.SyncedCount != 1 {
		t.Fatalf("expected first pass to deliver 1 item, got %+v", first)
	}
	if h.gateway.callCount() != 1 {
		t.Fatalf("expected exactly 1 gateway call, got %d", h.gateway.callCount())
	}
}

func TestFIFOOrderSurvivesPartialFailure(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	a := testsupport.Enqueue(t, h.store, queue.EntityTable, "a", queue.OpCreate, `{"n":1}`)
	testsupport.Enqueue(t, h.store, queue.EntityTable, "b", queue.OpCreate, `{"n":2}`)
	h.gateway.setFailure("a", errors.New("HTTP 503"))

	result := h.engine.Sync(ctx)
	if result.SyncedCount != 1 || result.FailedCount != 1 {
		t.Fatalf("unexpected first pass result: %+v", result)
	}
	if !result.Success {
		t.Fatal("item failures must not fail the pass")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one diagnostic, got %v", result.Errors)
	}

	got, err := h.store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Attempts != 1 || got.ErrorMessage == "" {
		t.Fatalf("expected recorded failure on item a: %+v", got)
	}

	// A newer item must not overtake the failed one.
	testsupport.Enqueue(t, h.store, queue.EntityTable, "c", queue.OpCreate, `{"n":3}`)
	h.gateway.setFailure("a", nil)

	result = h.engine.Sync(ctx)
	if result.SyncedCount != 2 || result.FailedCount != 0 {
		t.Fatalf("unexpected second pass result: %+v", result)
	}

	ids := h.gateway.callIDs()
	want := []string{"a", "b", "a", "c"}
	if len(ids) != len(want) {
		t.Fatalf("unexpected calls: %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected delivery order: got %v want %v", ids, want)
		}
	}
}

func TestBoundedAttemptsParkItem(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	item := testsupport.Enqueue(t, h.store, queue.EntityWorkRecord, "w1", queue.OpCreate, `{}`)
	h.gateway.setFailure("w1", errors.New("timeout"))

	for pass := 0; pass < 3; pass++ {
		result := h.engine.Sync(ctx)
		if result.FailedCount != 1 {
			t.Fatalf("pass %d: expected 1 failure, got %+v", pass, result)
		}
	}

	got, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", got.Attempts)
	}
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected item parked as failed, got %q", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("expected stored error message")
	}

	// Parked items are invisible to further passes.
	before := h.gateway.callCount()
	result := h.engine.Sync(ctx)
	if result.SyncedCount != 0 || result.FailedCount != 0 {
		t.Fatalf("expected empty pass, got %+v", result)
	}
	if h.gateway.callCount() != before {
		t.Fatal("parked item must not be re-sent")
	}

	// A manual retry grants exactly one more attempt.
	if _, err := h.store.RetryFailed(ctx); err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	result = h.engine.Sync(ctx)
	if result.FailedCount != 1 {
		t.Fatalf("expected retried item to fail again, got %+v", result)
	}
	got, err = h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Attempts != 4 || got.Status != queue.StatusFailed {
		t.Fatalf("expected item re-parked with 4 attempts, got %+v", got)
	}
}

func TestForceSyncClearsWedgedGuard(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	item := testsupport.Enqueue(t, h.store, queue.EntityProject, "p1", queue.OpCreate, `{}`)

	h.gateway.enter = make(chan struct{}, 2)
	h.gateway.release = make(chan struct{})

	first := make(chan sync.Result, 1)
	go func() {
		first <- h.engine.Sync(ctx)
	}()
	<-h.gateway.enter

	// With the guard held, a plain call is a no-op.
	if got := h.engine.Sync(ctx); !got.Success || got.SyncedCount != 0 || got.FailedCount != 0 {
		t.Fatalf("expected no-op while guard is held, got %+v", got)
	}

	// ForceSync clears the guard and runs a real pass even though the first
	// one never finished.
	forced := make(chan sync.Result, 1)
	go func() {
		forced <- h.engine.ForceSync(ctx)
	}()
	select {
	case <-h.gateway.enter:
	case <-time.After(2 * time.Second):
		t.Fatal("forced pass never reached the gateway")
	}

	close(h.gateway.release)
	firstResult := <-first
	forcedResult := <-forced

	if firstResult.SyncedCount != 1 {
		t.Fatalf("unexpected first result: %+v", firstResult)
	}
	if forcedResult.SyncedCount != 1 {
		t.Fatalf("expected forced pass to deliver the item, got %+v", forcedResult)
	}
	if h.gateway.callCount() != 2 {
		t.Fatalf("expected both passes to reach the gateway, got %d calls", h.gateway.callCount())
	}

	got, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusCompleted {
		t.Fatalf("expected item delivered, got %q", got.Status)
	}
}

func TestDeleteDispatchesSoftDelete(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	if _, err := h.engine.QueueOperation(ctx, queue.EntityTableWorkState, "s1", queue.OpDelete, "", "tester"); err != nil {
		t.Fatalf("QueueOperation: %v", err)
	}
	result := h.engine.Sync(ctx)
	if result.SyncedCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	h.gateway.mu.Lock()
	defer h.gateway.mu.Unlock()
	if len(h.gateway.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(h.gateway.calls))
	}
	call := h.gateway.calls[0]
	if call.method != "softDelete" || call.collection != "workStates" || call.id != "s1" {
		t.Fatalf("unexpected call: %+v", call)
	}
}

func TestDebounceCoalescesEnqueueBursts(t *testing.T) {
	h := newEngineHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Long poll interval so only the debounce can trigger a pass.
	h.engine = rebuildWithTiming(t, h, 3600, 200)
	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.engine.Stop()

	var mu gosync.Mutex
	started := 0
	unsubscribe := h.hub.Subscribe(func(s status.Snapshot) {
		if s.IsSyncing {
			mu.Lock()
			started++
			mu.Unlock()
		}
	})
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		if _, err := h.engine.QueueOperation(ctx, queue.EntityWorkRecord, id, queue.OpCreate, `{}`, "tester"); err != nil {
			t.Fatalf("QueueOperation: %v", err)
		}
	}

	waitFor(t, 2*time.Second, func() bool { return h.gateway.callCount() == 5 })
	// Allow any stray trigger to land before asserting.
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if started != 1 {
		t.Fatalf("expected 1 coalesced pass, got %d", started)
	}
	if h.gateway.callCount() != 5 {
		t.Fatalf("expected 5 deliveries, got %d", h.gateway.callCount())
	}
}

func TestReconnectDrainsQueueEndToEnd(t *testing.T) {
	h := newEngineHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.monitor.SetOnline(false)
	h.engine = rebuildWithTiming(t, h, 3600, 50)
	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.engine.Stop()

	if _, err := h.engine.QueueOperation(ctx, queue.EntityWorkRecord, "wr-1", queue.OpCreate, `{"status":"completed"}`, "installer-7"); err != nil {
		t.Fatalf("QueueOperation: %v", err)
	}

	snapshot, err := h.hub.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.PendingCount != 1 {
		t.Fatalf("expected 1 pending while offline, got %d", snapshot.PendingCount)
	}

	var mu gosync.Mutex
	startedCount, finishedCount := 0, 0
	syncingSeen := false
	unsubscribe := h.hub.Subscribe(func(s status.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.IsSyncing && !syncingSeen {
			syncingSeen = true
			startedCount++
		}
		if !s.IsSyncing && syncingSeen {
			syncingSeen = false
			finishedCount++
		}
	})
	defer unsubscribe()

	// Wait out the debounce so only the reconnect edge can fire a pass.
	time.Sleep(150 * time.Millisecond)
	if h.gateway.callCount() != 0 {
		t.Fatal("no deliveries may happen while offline")
	}

	h.monitor.SetOnline(true)
	waitFor(t, 2*time.Second, func() bool { return h.gateway.callCount() == 1 })

	h.gateway.mu.Lock()
	call := h.gateway.calls[0]
	h.gateway.mu.Unlock()
	if call.method != "upsert" || call.collection != "workRecords" || call.id != "wr-1" {
		t.Fatalf("unexpected delivery: %+v", call)
	}
	if call.payload != `{"status":"completed"}` {
		t.Fatalf("unexpected payload: %s", call.payload)
	}

	waitFor(t, 2*time.Second, func() bool {
		s, err := h.hub.Snapshot(ctx)
		return err == nil && s.PendingCount == 0 && s.LastSyncAt != nil && !s.IsSyncing
	})

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if startedCount != 1 || finishedCount != 1 {
		t.Fatalf("expected exactly one sync cycle, got %d started / %d finished", startedCount, finishedCount)
	}
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.engine.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	h.engine.Stop()
	h.engine.Stop()
}

// rebuildWithTiming swaps the harness engine for one with explicit scheduler
// timing (poll seconds, debounce milliseconds).
func rebuildWithTiming(t *testing.T, h *engineHarness, pollSeconds, debounceMS int) *sync.Engine {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Sync.PollInterval = pollSeconds
	cfg.Sync.EnqueueDebounceMS = debounceMS
	return sync.New(cfg, h.store, h.gateway, h.monitor, h.hub, notifications.NewService(cfg), logging.NewNop())
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
