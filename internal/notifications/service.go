// Package notifications sends optional ntfy push notifications for sync
// events that need operator attention.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fieldsync/internal/config"
)

const userAgent = "Fieldsync-Go/0.1.0"

// Service defines the notification surface exposed to sync components.
type Service interface {
	NotifyRetriesExhausted(ctx context.Context, entityType, entityID string, attempts int, lastError string) error
	NotifySyncCompleted(ctx context.Context, synced, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:         topic,
		client:           &http.Client{Timeout: timeout},
		syncFailures:     cfg.Notifications.SyncFailures,
		retriesExhausted: cfg.Notifications.RetriesExhausted,
		errors:           cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint         string
	client           *http.Client
	syncFailures     bool
	retriesExhausted bool
	errors           bool
}

func (n *ntfyService) NotifyRetriesExhausted(ctx context.Context, entityType, entityID string, attempts int, lastError string) error {
	if !n.retriesExhausted {
		return nil
	}
	message := fmt.Sprintf("Delivery gave up after %d attempts: %s %s", attempts, strings.TrimSpace(entityType), strings.TrimSpace(entityID))
	if lastError = strings.TrimSpace(lastError); lastError != "" {
		message = fmt.Sprintf("%s\nLast error: %s", message, lastError)
	}
	data := payload{
		title:    "Fieldsync - Item Parked",
		message:  message,
		tags:     []string{"fieldsync", "queue", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, synced, failed int, duration time.Duration) error {
	// Clean passes are routine; only passes with failures are worth a push.
	if failed == 0 || !n.syncFailures {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	data := payload{
		title:   "Fieldsync - Sync Complete (with errors)",
		message: fmt.Sprintf("Sync pass complete: %d delivered, %d failed in %s", synced, failed, durationText),
		tags:    []string{"fieldsync", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Fieldsync - Error",
		message:  builder.String(),
		tags:     []string{"fieldsync", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Fieldsync - Test",
		message:  "Notification system test",
		tags:     []string{"fieldsync", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRetriesExhausted(context.Context, string, string, int, string) error {
	return nil
}
func (noopService) NotifySyncCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
