// Package queue persists pending mutations in SQLite until they are
// delivered to the remote document store.
//
// Every local create, update, or delete lands here first as an Item. The
// sync engine drains pending items oldest-first, marks each one completed on
// successful delivery, and records failures with a monotonically increasing
// attempt counter. Items that exhaust their retry budget are parked in the
// failed status until an operator requeues or removes them, so nothing is
// silently dropped while the device is offline.
package queue
