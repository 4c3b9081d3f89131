package queue

import (
	"context"
	"fmt"
	"time"
)

// MarkResolved records successful delivery of an item.
func (s *Store) MarkResolved(ctx context.Context, id int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, error_message = NULL, updated_at = ?
         WHERE id = ?`,
		StatusCompleted,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("mark resolved: %w", err)
	}
	return nil
}

// RecordFailure increments the attempt counter and stores the delivery error.
// The counter only ever grows; it survives manual retries so the total number
// of delivery attempts stays observable. When the incremented count reaches a
// positive retryLimit the item is parked as failed in the same statement, so
// a crash cannot leave an exhausted item pending. Parked items leave the
// pending set and are not drained again until an operator retries them.
// Returns the new attempt count and whether the item was parked.
func (s *Store) RecordFailure(ctx context.Context, id int64, message string, retryLimit int) (int, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items
         SET attempts = attempts + 1, error_message = ?, last_attempt_at = ?, updated_at = ?,
             status = CASE WHEN ? > 0 AND attempts + 1 >= ? THEN ? ELSE status END
         WHERE id = ?`,
		message,
		now,
		now,
		retryLimit,
		retryLimit,
		StatusFailed,
		id,
	); err != nil {
		return 0, false, fmt.Errorf("record failure: %w", err)
	}

	var attempts int
	var status Status
	if err := s.db.QueryRowContext(ctx, `SELECT attempts, status FROM queue_items WHERE id = ?`, id).Scan(&attempts, &status); err != nil {
		return 0, false, fmt.Errorf("read attempts: %w", err)
	}
	return attempts, status == StatusFailed, nil
}

// RetryFailed moves failed items back to pending for redelivery. Attempts
// carry over, so each retry grants one more delivery attempt.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE queue_items
            SET status = ?, error_message = NULL, updated_at = ?
            WHERE status = ?`,
			StatusPending,
			time.Now().UTC().Format(time.RFC3339Nano),
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed items: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE queue_items
        SET status = ?, error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected items: %w", err)
	}
	return res.RowsAffected()
}
