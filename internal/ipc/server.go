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

	"streamvault/internal/api"
	"streamvault/internal/logging"
	"streamvault/internal/registry"
	"streamvault/internal/services"
)

const serviceName = "StreamVault"

// Backend is the daemon surface reachable over IPC.
type Backend interface {
	api.Backend
	Stop()
	TestNotification(ctx context.Context) (bool, string, error)
}

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, backend Backend, logger *slog.Logger) (*Server, error) {
	if backend == nil {
		return nil, errors.New("ipc server requires a backend")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{backend: backend, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
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
				if errors.Is(err, net.ErrClosed) {
					return
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
	go func() {
		<-s.ctx.Done()
		_ = s.listener.Close()
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
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun streamvault stop"))
	}
}

type service struct {
	backend Backend
	logger  *slog.Logger
	ctx     context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.backend.Status(s.ctx)
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop_requested"))
	// Reply before shutdown tears the socket down.
	go s.backend.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) StreamerList(_ StreamerListRequest, resp *StreamerListResponse) error {
	streamers, err := s.backend.ListStreamers(s.ctx)
	if err != nil {
		return err
	}
	resp.Streamers = streamers
	return nil
}

func (s *service) StreamerAdd(req StreamerAddRequest, resp *StreamerAddResponse) error {
	streamer, err := s.backend.AddStreamer(s.ctx, req.Name)
	out, err := AddOutcome(req.Name, streamer, err)
	*resp = out
	return err
}

func (s *service) StreamerRemove(req StreamerRemoveRequest, resp *StreamerRemoveResponse) error {
	res, err := s.backend.RemoveStreamer(s.ctx, req.Name)
	out, err := RemoveOutcome(req.Name, res, err)
	*resp = out
	return err
}

// AddOutcome folds registry contract failures of an add into the response
// message. Any other error is returned unchanged.
func AddOutcome(name string, streamer Streamer, err error) (StreamerAddResponse, error) {
	switch {
	case err == nil:
		return StreamerAddResponse{Added: true, Streamer: streamer}, nil
	case errors.Is(err, registry.ErrAlreadyExists):
		return StreamerAddResponse{Message: fmt.Sprintf("%s is already registered", name)}, nil
	case errors.Is(err, services.ErrNotFound):
		return StreamerAddResponse{Message: fmt.Sprintf("no channel found for %q", name)}, nil
	default:
		return StreamerAddResponse{}, err
	}
}

// RemoveOutcome folds a removed=false result or an unresolvable name into the
// response message. Any other error is returned unchanged.
func RemoveOutcome(name string, res api.RemoveStreamerResponse, err error) (StreamerRemoveResponse, error) {
	switch {
	case err == nil:
		out := StreamerRemoveResponse{Name: res.Name, ChannelID: res.ChannelID, Removed: res.Removed}
		if !res.Removed {
			out.Message = fmt.Sprintf("%s is not registered", name)
		}
		return out, nil
	case errors.Is(err, services.ErrNotFound):
		return StreamerRemoveResponse{Name: name, Message: fmt.Sprintf("no channel found for %q", name)}, nil
	default:
		return StreamerRemoveResponse{}, err
	}
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.backend.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
