// Package connectivity tracks whether the remote document store is
// reachable.
//
// The probe monitor polls the remote health endpoint on an interval and
// reports online/offline transitions to subscribers. When enabled, a netlink
// watcher listens for kernel network interface events and triggers an
// immediate probe instead of waiting for the next interval, so reconnects
// are noticed quickly. The probe loop remains the source of truth; netlink
// is only a fast path.
package connectivity
