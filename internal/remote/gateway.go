package remote

import (
	"context"

	"fieldsync/internal/queue"
)

// Gateway abstracts the remote document store.
type Gateway interface {
	// Upsert creates or fully replaces the document at collection/id.
	Upsert(ctx context.Context, collection, id, payload string) error
	// SoftDelete marks the document at collection/id as deleted. The
	// document is tombstoned, never physically removed.
	SoftDelete(ctx context.Context, collection, id string) error
}

// collections maps entity types to their remote collection names.
var collections = map[queue.EntityType]string{
	queue.EntityProject:        "projects",
	queue.EntityTable:          "tables",
	queue.EntityWorkRecord:     "workRecords",
	queue.EntityTableWorkState: "workStates",
}

// CollectionFor resolves the remote collection for an entity type. Unknown
// types map to themselves so new entities sync without a code change here.
func CollectionFor(entityType queue.EntityType) string {
	if collection, ok := collections[entityType]; ok {
		return collection
	}
	return string(entityType)
}
