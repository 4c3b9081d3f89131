// Package status aggregates engine state for observers.
//
// The hub republishes what other components report: the connectivity monitor
// sets the online flag, the sync engine brackets passes with SyncStarted and
// SyncFinished. Pending counts are pulled from the queue store on every
// snapshot, never cached. The hub itself mutates nothing.
package status

import (
	"context"
	"sync"
	"time"

	"fieldsync/internal/queue"
)

// Snapshot is the externally visible sync state at one point in time.
type Snapshot struct {
	IsOnline     bool
	IsSyncing    bool
	PendingCount int
	LastSyncAt   *time.Time
	Error        string
}

// Hub tracks sync state and pushes snapshots to subscribers.
type Hub struct {
	store *queue.Store

	mu         sync.Mutex
	online     bool
	syncing    bool
	lastSyncAt *time.Time
	lastError  string
	nextID     int
	subs       map[int]func(Snapshot)
}

// NewHub builds a hub that derives pending counts from the given store.
func NewHub(store *queue.Store) *Hub {
	return &Hub{
		store: store,
		subs:  make(map[int]func(Snapshot)),
	}
}

// Snapshot recomputes the current state, pulling the pending count from the
// queue store.
func (h *Hub) Snapshot(ctx context.Context) (Snapshot, error) {
	pending, err := h.store.PendingCount(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return Snapshot{
		IsOnline:     h.online,
		IsSyncing:    h.syncing,
		PendingCount: pending,
		LastSyncAt:   h.lastSyncAt,
		Error:        h.lastError,
	}, nil
}

// Subscribe registers a callback invoked after every status-affecting event.
// The returned function removes the subscription.
func (h *Hub) Subscribe(fn func(Snapshot)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// SetOnline records a connectivity change and notifies subscribers when the
// state actually flips.
func (h *Hub) SetOnline(online bool) {
	h.mu.Lock()
	changed := h.online != online
	h.online = online
	h.mu.Unlock()

	if changed {
		h.notify()
	}
}

// SyncStarted marks a pass as running and notifies subscribers.
func (h *Hub) SyncStarted() {
	h.mu.Lock()
	h.syncing = true
	h.mu.Unlock()
	h.notify()
}

// SyncFinished records the outcome of a pass and notifies subscribers.
// The error message is empty for clean passes.
func (h *Hub) SyncFinished(at time.Time, errMessage string) {
	h.mu.Lock()
	h.syncing = false
	at = at.UTC()
	h.lastSyncAt = &at
	h.lastError = errMessage
	h.mu.Unlock()
	h.notify()
}

func (h *Hub) notify() {
	snapshot, err := h.Snapshot(context.Background())
	if err != nil {
		// Pending count unavailable; publish the state flags anyway.
		h.mu.Lock()
		snapshot = Snapshot{
			IsOnline:   h.online,
			IsSyncing:  h.syncing,
			LastSyncAt: h.lastSyncAt,
			Error:      h.lastError,
		}
		h.mu.Unlock()
	}

	h.mu.Lock()
	fns := make([]func(Snapshot), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
