package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"fieldsync/internal/daemon"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	syncengine "fieldsync/internal/sync"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Fieldsync", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status, err := s.daemon.Status(s.ctx)
	if err != nil {
		return err
	}
	resp.Running = status.Running
	resp.Online = status.Online
	resp.Syncing = status.Syncing
	resp.PendingCount = status.PendingCount
	resp.LastSyncAt = status.LastSyncAt
	resp.LastError = status.LastError
	resp.QueueDBPath = status.QueueDBPath
	resp.SocketPath = status.SocketPath
	resp.LockPath = status.LockFilePath
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Sync(req SyncRequest, resp *SyncResponse) error {
	s.logger.Debug("sync requested", logging.Bool("force", req.Force))
	var result syncengine.Result
	if req.Force {
		result = s.daemon.ForceSync(s.ctx)
	} else {
		result = s.daemon.Sync(s.ctx)
	}
	resp.Success = result.Success
	resp.SyncedCount = result.SyncedCount
	resp.FailedCount = result.FailedCount
	resp.Errors = append(resp.Errors, result.Errors...)
	return nil
}

func (s *service) Enqueue(req EnqueueRequest, resp *EnqueueResponse) error {
	entityType := queue.EntityType(req.EntityType)
	operation, err := queue.ParseOperation(req.Operation)
	if err != nil {
		return err
	}
	item, err := s.daemon.QueueOperation(s.ctx, entityType, req.EntityID, operation, req.Payload, req.Actor)
	if err != nil {
		return err
	}
	resp.Item = FromItem(item)
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		parsed, err := queue.ParseStatus(raw)
		if err != nil {
			return err
		}
		statuses = append(statuses, parsed)
	}
	items, err := s.daemon.ListQueue(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Items = make([]QueueItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		resp.Items = append(resp.Items, FromItem(item))
	}
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *QueueRetryResponse) error {
	updated, err := s.daemon.RetryFailed(s.ctx, req.IDs)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.logger.Info("queue items requeued",
		logging.String(logging.FieldEventType, "queue_retry"),
		logging.Int64("updated_count", updated))
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid queue item id %d", req.ID)
	}
	removed, err := s.daemon.RemoveItem(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) QueueClear(_ QueueClearRequest, resp *QueueClearResponse) error {
	removed, err := s.daemon.ClearQueue(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) QueueClearCompleted(_ QueueClearCompletedRequest, resp *QueueClearCompletedResponse) error {
	removed, err := s.daemon.ClearCompleted(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) QueueClearFailed(_ QueueClearFailedRequest, resp *QueueClearFailedResponse) error {
	removed, err := s.daemon.ClearFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) QueueHealth(_ QueueHealthRequest, resp *QueueHealthResponse) error {
	health, err := s.daemon.QueueHealth(s.ctx)
	if err != nil {
		return err
	}
	resp.Total = health.Total
	resp.Pending = health.Pending
	resp.Completed = health.Completed
	resp.Failed = health.Failed
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.SchemaVersion = health.SchemaVersion
	resp.TableExists = health.TableExists
	resp.ColumnsPresent = append(resp.ColumnsPresent, health.ColumnsPresent...)
	resp.MissingColumns = append(resp.MissingColumns, health.MissingColumns...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalItems = health.TotalItems
	resp.Error = health.Error
	return err
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}
