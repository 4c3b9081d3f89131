package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient builds a Gateway backed by the configured remote endpoint.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.Remote.BaseURL,
		token:   cfg.Remote.APIToken,
		client: &http.Client{
			Timeout: time.Duration(cfg.Remote.RequestTimeout) * time.Second,
		},
		logger: logging.NewComponentLogger(logger, "remote"),
	}
}

// Upsert creates or fully replaces the document at collection/id. A repeat
// of the same upsert converges to the same document.
func (c *Client) Upsert(ctx context.Context, collection, id, payload string) error {
	return c.send(ctx, http.MethodPut, collection, id, strings.NewReader(payload))
}

// SoftDelete tombstones the document at collection/id.
func (c *Client) SoftDelete(ctx context.Context, collection, id string) error {
	tombstone, err := json.Marshal(map[string]any{
		"deleted":   true,
		"deletedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal tombstone: %w", err)
	}
	return c.send(ctx, http.MethodPatch, collection, id, strings.NewReader(string(tombstone)))
}

func (c *Client) send(ctx context.Context, method, collection, id string, body io.Reader) error {
	endpoint := c.baseURL + "/" + url.PathEscape(collection) + "/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s/%s: %w", method, collection, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("remote rejected mutation",
			logging.String("method", method),
			logging.String("collection", collection),
			logging.String(logging.FieldEntityID, id),
			logging.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%s %s/%s: remote responded %s: %s", method, collection, id, resp.Status, strings.TrimSpace(string(snippet)))
	}
	return nil
}
