// Package sync drains the mutation queue to the remote document store.
//
// The engine enforces the core delivery invariants: at most one pass runs at
// a time, passes short-circuit while offline, items within a pass are applied
// strictly in creation order, and failures increment a bounded attempt
// counter. Passes are triggered four ways: a periodic ticker, the
// offline-to-online edge from the connectivity monitor, a debounced nudge
// after each enqueue, and explicit Sync or ForceSync calls. All scheduled
// triggers funnel through a single run goroutine so passes execute from one
// logical context.
package sync
