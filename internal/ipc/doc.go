// Package ipc implements the JSON-RPC control channel between the fieldsync
// CLI and the daemon over a Unix domain socket.
package ipc
