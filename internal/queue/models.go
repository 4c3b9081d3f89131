package queue

import (
	"fmt"
	"strings"
	"time"
)

// Status describes the delivery state of a queued mutation.
type Status string

const (
	// StatusPending marks items awaiting delivery.
	StatusPending Status = "pending"
	// StatusCompleted marks items successfully applied to the remote store.
	StatusCompleted Status = "completed"
	// StatusFailed marks items that exhausted their retry budget and need
	// operator attention.
	StatusFailed Status = "failed"
)

// ParseStatus converts a string into a Status, accepting any case.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("unknown queue status %q", value)
	}
}

// EntityType identifies the kind of record a mutation touches.
type EntityType string

const (
	EntityProject        EntityType = "project"
	EntityTable          EntityType = "table"
	EntityWorkRecord     EntityType = "workRecord"
	EntityTableWorkState EntityType = "tableWorkState"
)

// KnownEntityTypes lists the entity types with dedicated remote collections.
func KnownEntityTypes() []EntityType {
	return []EntityType{EntityProject, EntityTable, EntityWorkRecord, EntityTableWorkState}
}

// Operation identifies what a mutation does to its entity.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ParseOperation converts a string into an Operation.
func ParseOperation(value string) (Operation, error) {
	switch Operation(strings.ToLower(strings.TrimSpace(value))) {
	case OpCreate:
		return OpCreate, nil
	case OpUpdate:
		return OpUpdate, nil
	case OpDelete:
		return OpDelete, nil
	default:
		return "", fmt.Errorf("unknown operation %q", value)
	}
}

// Item is one queued mutation awaiting delivery to the remote store.
type Item struct {
	ID            int64
	EntityType    EntityType
	EntityID      string
	Operation     Operation
	Payload       string
	Actor         string
	Status        Status
	Attempts      int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastAttemptAt *time.Time
}

// HealthSummary aggregates queue counts for diagnostic output.
type HealthSummary struct {
	Total     int
	Pending   int
	Completed int
	Failed    int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	SchemaVersion    string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	TotalItems       int
	IntegrityCheck   bool
	Error            string
}
