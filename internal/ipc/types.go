package ipc

import (
	"time"

	"fieldsync/internal/queue"
)

// QueueItem is the wire representation of a queued mutation.
type QueueItem struct {
	ID            int64      `json:"id"`
	EntityType    string     `json:"entity_type"`
	EntityID      string     `json:"entity_id"`
	Operation     string     `json:"operation"`
	Payload       string     `json:"payload"`
	Actor         string     `json:"actor"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	ErrorMessage  string     `json:"error_message"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
}

// FromItem converts a store item into its wire representation.
func FromItem(item *queue.Item) QueueItem {
	return QueueItem{
		ID:            item.ID,
		EntityType:    string(item.EntityType),
		EntityID:      item.EntityID,
		Operation:     string(item.Operation),
		Payload:       item.Payload,
		Actor:         item.Actor,
		Status:        string(item.Status),
		Attempts:      item.Attempts,
		ErrorMessage:  item.ErrorMessage,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
		LastAttemptAt: item.LastAttemptAt,
	}
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse reports combined daemon and sync state.
type StatusResponse struct {
	Running      bool       `json:"running"`
	Online       bool       `json:"online"`
	Syncing      bool       `json:"syncing"`
	PendingCount int        `json:"pending_count"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
	LastError    string     `json:"last_error"`
	QueueDBPath  string     `json:"queue_db_path"`
	SocketPath   string     `json:"socket_path"`
	LockPath     string     `json:"lock_path"`
	PID          int        `json:"pid"`
}

// SyncRequest triggers a sync pass. Force clears the single-flight guard
// before the pass runs.
type SyncRequest struct {
	Force bool `json:"force"`
}

// SyncResponse reports the outcome of one sync pass.
type SyncResponse struct {
	Success     bool     `json:"success"`
	SyncedCount int      `json:"synced_count"`
	FailedCount int      `json:"failed_count"`
	Errors      []string `json:"errors"`
}

// EnqueueRequest records a mutation for eventual delivery.
type EnqueueRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Operation  string `json:"operation"`
	Payload    string `json:"payload"`
	Actor      string `json:"actor"`
}

// EnqueueResponse returns the recorded item.
type EnqueueResponse struct {
	Item QueueItem `json:"item"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries in creation order.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueRetryRequest requeues failed items. Empty list means all failed items.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of requeued items.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRemoveRequest removes a single item by id.
type QueueRemoveRequest struct {
	ID int64 `json:"id"`
}

// QueueRemoveResponse reports whether the item existed.
type QueueRemoveResponse struct {
	Removed bool `json:"removed"`
}

// QueueClearRequest removes all items.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes delivered items.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes parked items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue counts by status.
type QueueHealthResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalItems       int      `json:"total_items"`
	Error            string   `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// StopRequest stops daemon background services.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
