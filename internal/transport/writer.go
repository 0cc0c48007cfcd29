package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrWriterClosed is returned by Send after Stop.
var ErrWriterClosed = errors.New("transport: writer stopped")

// WriterConfig configures a Writer.
type WriterConfig struct {
	OutboxCapacity int
}

// WriterStats reports send activity.
type WriterStats struct {
	Sent       int64
	SendErrors int64
	Rejected   int64 // Send after Stop
	Discarded  int64 // queued replies dropped when Stop timed out
	Outbox     OutboxStats
}

// Writer is the only goroutine that writes to the socket.
type Writer struct {
	sock   Socket
	box    *outbox
	logger *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}

	sent       atomic.Int64
	sendErrors atomic.Int64
	rejected   atomic.Int64
	discarded  atomic.Int64
}

// NewWriter creates a Writer for sock.
func NewWriter(sock Socket, cfg WriterConfig, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		sock:   sock,
		box:    newOutbox(cfg.OutboxCapacity),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the writer goroutine.
func (w *Writer) Start() {
	w.startOnce.Do(func() {
		go w.writeLoop()
		w.logger.Debug("reply writer started", "outbox_capacity", w.box.stats().Capacity)
	})
}

// Send queues env for delivery. It never blocks on the socket.
func (w *Writer) Send(env OutboundEnvelope) error {
	if !w.box.push(env) {
		w.rejected.Add(1)
		return ErrWriterClosed
	}
	return nil
}

// Stop refuses new replies and waits for queued ones to be written.
// If ctx ends first the remainder is discarded.
func (w *Writer) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() {
		w.box.close()
	})

	// A writer that never started has nothing to flush.
	started := true
	w.startOnce.Do(func() {
		started = false
		close(w.done)
	})
	if !started {
		return nil
	}

	select {
	case <-w.done:
		w.logger.Info("reply writer stopped", "sent", w.sent.Load())
		return nil
	case <-ctx.Done():
		n := w.box.discard()
		w.discarded.Add(int64(n))
		w.logger.Warn("reply writer stop timed out", "discarded", n)
		return ctx.Err()
	}
}

// Stats returns current statistics.
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		Sent:       w.sent.Load(),
		SendErrors: w.sendErrors.Load(),
		Rejected:   w.rejected.Load(),
		Discarded:  w.discarded.Load(),
		Outbox:     w.box.stats(),
	}
}

func (w *Writer) writeLoop() {
	defer close(w.done)

	for {
		env, ok := w.box.pop()
		if !ok {
			return
		}

		if err := w.sock.Send(env.Frames()); err != nil {
			w.sendErrors.Add(1)
			w.logger.Warn("failed to send reply",
				"error", err,
				"identity_len", len(env.Identity),
				"payload_len", len(env.Payload),
			)
			if errors.Is(err, ErrSocketClosed) {
				// Nothing further can be delivered.
				n := w.box.discard()
				w.discarded.Add(int64(n))
				w.box.close()
				return
			}
			continue
		}
		w.sent.Add(1)
	}
}
