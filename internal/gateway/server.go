package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/serum-gateway/internal/config"
	"github.com/rickgao/serum-gateway/internal/router"
	"github.com/rickgao/serum-gateway/internal/transport"
)

// recvRetryDelay paces the reader after an unexpected Recv error.
const recvRetryDelay = 10 * time.Millisecond

// Dispatcher routes decoded envelopes. *router.Router satisfies it.
type Dispatcher interface {
	Route(ctx context.Context, env transport.InboundEnvelope) error
	Wait(ctx context.Context) error
}

// ReplyWriter owns the write side of the socket. *transport.Writer
// satisfies it.
type ReplyWriter interface {
	Start()
	Stop(ctx context.Context) error
}

// Config holds receive loop settings.
type Config struct {
	DrainTimeout time.Duration // bound on waiting for in-flight requests and queued replies
}

// ConfigFrom builds a Config from the dispatch config section.
func ConfigFrom(cfg config.DispatchConfig) Config {
	return Config{DrainTimeout: cfg.DrainTimeout}
}

// ServerStats reports receive loop activity.
type ServerStats struct {
	Running     bool
	Received    int64 // multipart messages read
	FrameErrors int64
	RecvErrors  int64
	Routed      int64
	RouteErrors int64
}

// Server is the Receive Loop.
type Server struct {
	sock     transport.Socket
	dispatch Dispatcher
	writer   ReplyWriter
	cfg      Config
	logger   *slog.Logger

	running     atomic.Bool
	received    atomic.Int64
	frameErrors atomic.Int64
	recvErrors  atomic.Int64
	routed      atomic.Int64
	routeErrors atomic.Int64
}

// NewServer creates a Server. The writer must write to sock.
func NewServer(sock transport.Socket, dispatch Dispatcher, writer ReplyWriter, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = config.DefaultDrainTimeout
	}
	return &Server{
		sock:     sock,
		dispatch: dispatch,
		writer:   writer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run serves requests until ctx is cancelled or the socket is closed.
// It returns after in-flight requests have drained (or DrainTimeout
// passed), queued replies have been flushed and the socket is closed.
func (s *Server) Run(ctx context.Context) error {
	s.running.Store(true)
	defer s.running.Store(false)

	s.writer.Start()

	msgs := make(chan [][]byte)
	readerDone := make(chan struct{})
	stopReader := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(readerDone)
		s.readLoop(msgs, stopReader)
	}()

	s.logger.Info("receive loop started", "addr", s.sock.Addr())

loop:
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("receive loop stopping", "reason", ctx.Err())
			break loop
		case <-readerDone:
			s.logger.Info("receive loop stopping", "reason", "socket closed")
			break loop
		case frames := <-msgs:
			s.handle(ctx, frames)
		}
	}

	close(stopReader)
	s.shutdown()
	wg.Wait()

	s.logger.Info("receive loop stopped")
	return nil
}

// readLoop delivers messages in arrival order until the socket closes.
func (s *Server) readLoop(msgs chan<- [][]byte, stop <-chan struct{}) {
	for {
		frames, err := s.sock.Recv()
		if err != nil {
			if errors.Is(err, transport.ErrSocketClosed) {
				return
			}
			s.recvErrors.Add(1)
			s.logger.Warn("recv failed", "error", err)
			select {
			case <-stop:
				return
			case <-time.After(recvRetryDelay):
			}
			continue
		}

		select {
		case msgs <- frames:
		case <-stop:
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, frames [][]byte) {
	s.received.Add(1)

	env, err := transport.DecodeFrames(frames)
	if err != nil {
		s.frameErrors.Add(1)
		s.logger.Warn("dropping malformed message", "error", err, "frames", len(frames))
		return
	}

	if err := s.dispatch.Route(ctx, env); err != nil {
		s.routeErrors.Add(1)
		if ctx.Err() != nil {
			return
		}
		var decErr *router.DecodeError
		if errors.As(err, &decErr) {
			s.logger.Warn("dropping undecodable request", "error", err)
			return
		}
		s.logger.Warn("request not dispatched", "error", err)
		return
	}
	s.routed.Add(1)
}

// shutdown drains in-flight requests, flushes replies and closes the
// socket. Each step gets its own DrainTimeout.
func (s *Server) shutdown() {
	waitCtx, cancel := context.WithTimeout(context.Background(), s.cfg.DrainTimeout)
	if err := s.dispatch.Wait(waitCtx); err != nil {
		s.logger.Warn("in-flight requests abandoned", "error", err)
	}
	cancel()

	stopCtx, cancel := context.WithTimeout(context.Background(), s.cfg.DrainTimeout)
	if err := s.writer.Stop(stopCtx); err != nil {
		s.logger.Warn("reply writer did not flush", "error", err)
	}
	cancel()

	if err := s.sock.Close(); err != nil {
		s.logger.Warn("socket close failed", "error", err)
	}
}

// Stats returns current statistics.
func (s *Server) Stats() ServerStats {
	return ServerStats{
		Running:     s.running.Load(),
		Received:    s.received.Load(),
		FrameErrors: s.frameErrors.Load(),
		RecvErrors:  s.recvErrors.Load(),
		Routed:      s.routed.Load(),
		RouteErrors: s.routeErrors.Load(),
	}
}
