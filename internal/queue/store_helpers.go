package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, entity_type, entity_id, operation, payload, actor, status, attempts, error_message, created_at, updated_at, last_attempt_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id            int64
		entityType    string
		entityID      string
		operation     string
		payload       sql.NullString
		actor         sql.NullString
		statusStr     string
		attempts      int
		errorMessage  sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
		lastAttemptRw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&entityType,
		&entityID,
		&operation,
		&payload,
		&actor,
		&statusStr,
		&attempts,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&lastAttemptRw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           id,
		EntityType:   EntityType(entityType),
		EntityID:     entityID,
		Operation:    Operation(operation),
		Payload:      payload.String,
		Actor:        actor.String,
		Status:       Status(statusStr),
		Attempts:     attempts,
		ErrorMessage: errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastAttemptRw.Valid {
		if attempt, err := parseTimeString(lastAttemptRw.String); err == nil {
			item.LastAttemptAt = &attempt
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
