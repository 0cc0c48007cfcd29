package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

// ErrSocketClosed is returned by Recv and Send after Close.
var ErrSocketClosed = errors.New("transport: socket closed")

// Socket is a message-oriented socket carrying multipart frames.
type Socket interface {
	// Recv blocks until a message arrives or the socket is closed.
	Recv() ([][]byte, error)

	// Send writes all frames as one multipart message.
	Send(frames [][]byte) error

	// Close releases the socket. Blocked Recv calls return ErrSocketClosed.
	Close() error

	// Addr returns the bound address, or nil before bind.
	Addr() net.Addr
}

// RouterOptions configures ListenRouter.
type RouterOptions struct {
	// Timeout bounds zmq handshakes and writes to a peer.
	Timeout time.Duration
	Logger  *slog.Logger
}

// routerSocket wraps a zmq4 ROUTER.
type routerSocket struct {
	sock   zmq4.Socket
	logger *slog.Logger

	// Write serialization
	writeMu sync.Mutex

	mu     sync.RWMutex
	closed bool
}

// ListenRouter binds a ROUTER socket to endpoint, e.g. tcp://*:6900.
func ListenRouter(ctx context.Context, endpoint string, opts RouterOptions) (Socket, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	zopts := []zmq4.Option{
		zmq4.WithLogger(log.New(slogWriter{logger}, "", 0)),
	}
	if opts.Timeout > 0 {
		zopts = append(zopts, zmq4.WithTimeout(opts.Timeout))
	}

	sock := zmq4.NewRouter(ctx, zopts...)
	if err := sock.Listen(endpoint); err != nil {
		sock.Close()
		return nil, fmt.Errorf("listen %s: %w", endpoint, err)
	}

	logger.Info("router socket bound", "endpoint", endpoint, "addr", sock.Addr())

	return &routerSocket{
		sock:   sock,
		logger: logger,
	}, nil
}

func (s *routerSocket) Recv() ([][]byte, error) {
	msg, err := s.sock.Recv()
	if err != nil {
		if s.isClosed() {
			return nil, ErrSocketClosed
		}
		return nil, err
	}
	return msg.Frames, nil
}

func (s *routerSocket) Send(frames [][]byte) error {
	if s.isClosed() {
		return ErrSocketClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.sock.SendMulti(zmq4.NewMsgFrom(frames...))
}

func (s *routerSocket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.sock.Close()
}

func (s *routerSocket) Addr() net.Addr {
	return s.sock.Addr()
}

func (s *routerSocket) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// slogWriter routes zmq4's standard-library logger into slog at debug.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.logger.Debug("zmq4", "msg", msg)
	return len(p), nil
}
