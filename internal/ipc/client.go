package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Fieldsync.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sync runs a sync pass, optionally clearing the single-flight guard first.
func (c *Client) Sync(force bool) (*SyncResponse, error) {
	var resp SyncResponse
	if err := c.client.Call("Fieldsync.Sync", SyncRequest{Force: force}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Enqueue records a mutation for eventual delivery.
func (c *Client) Enqueue(req EnqueueRequest) (*EnqueueResponse, error) {
	var resp EnqueueResponse
	if err := c.client.Call("Fieldsync.Enqueue", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns queue items optionally filtered by statuses.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Fieldsync.QueueList", QueueListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRetry requeues failed items. An empty id list requeues all of them.
func (c *Client) QueueRetry(ids []int64) (*QueueRetryResponse, error) {
	var resp QueueRetryResponse
	if err := c.client.Call("Fieldsync.QueueRetry", QueueRetryRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRemove deletes a single queue item by id.
func (c *Client) QueueRemove(id int64) (*QueueRemoveResponse, error) {
	var resp QueueRemoveResponse
	if err := c.client.Call("Fieldsync.QueueRemove", QueueRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes all items from the queue.
func (c *Client) QueueClear() (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Fieldsync.QueueClear", QueueClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClearCompleted removes delivered items from the queue.
func (c *Client) QueueClearCompleted() (*QueueClearCompletedResponse, error) {
	var resp QueueClearCompletedResponse
	if err := c.client.Call("Fieldsync.QueueClearCompleted", QueueClearCompletedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClearFailed removes parked items from the queue.
func (c *Client) QueueClearFailed() (*QueueClearFailedResponse, error) {
	var resp QueueClearFailedResponse
	if err := c.client.Call("Fieldsync.QueueClearFailed", QueueClearFailedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueHealth returns queue diagnostics.
func (c *Client) QueueHealth() (*QueueHealthResponse, error) {
	var resp QueueHealthResponse
	if err := c.client.Call("Fieldsync.QueueHealth", QueueHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Fieldsync.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Fieldsync.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop background services.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Fieldsync.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
