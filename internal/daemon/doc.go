// Package daemon wires the queue store, connectivity monitor, and sync engine
// into a single-instance background service and exposes the facade the IPC
// server calls into.
package daemon
