// Package remote applies queued mutations to the remote document store.
//
// The gateway exposes two idempotent operations: Upsert writes a document at
// a collection/id address (last write wins on the server), and SoftDelete
// marks a document deleted without removing it. Because delivery is
// at-least-once, both operations are safe to repeat.
package remote
