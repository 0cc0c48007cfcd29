package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/rickgao/serum-gateway/internal/handler"
	"github.com/rickgao/serum-gateway/internal/model"
	"github.com/rickgao/serum-gateway/internal/transport"
)

// Router decodes requests and runs each one on its own goroutine.
type Router struct {
	cfg      RouterConfig
	handlers map[model.Endpoint]Handler
	out      Sender
	logger   *slog.Logger
	now      func() time.Time

	sem *semaphore.Weighted // nil when unbounded
	wg  sync.WaitGroup

	// Stats
	mu               sync.RWMutex
	received         int64
	dispatched       int64
	decodeErrors     int64
	unknownEndpoints int64
	completed        int64
	failed           int64
	rejected         int64
	errorReplies     int64
}

// NewRouter creates a Request Router. Endpoints missing from handlers are
// treated as unknown.
func NewRouter(cfg RouterConfig, handlers map[model.Endpoint]Handler, out Sender, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		cfg:      cfg,
		handlers: handlers,
		out:      out,
		logger:   logger,
		now:      time.Now,
	}
	if cfg.MaxInFlight > 0 {
		r.sem = semaphore.NewWeighted(int64(cfg.MaxInFlight))
	}
	return r
}

// Route decodes the envelope payload and dispatches it. It returns once
// the request is running or has been turned away; it never waits for the
// handler to finish.
func (r *Router) Route(ctx context.Context, env transport.InboundEnvelope) error {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	req, err := Decode(env.Payload, r.now(), r.cfg.MaxRequestAge)
	if err != nil {
		r.mu.Lock()
		r.decodeErrors++
		r.mu.Unlock()
		r.replyError(env, model.CodeDecodeError, err.Error(), r.logger)
		return err
	}

	return r.Dispatch(ctx, req, env)
}

// Dispatch starts a goroutine running the handler for req. Unknown
// endpoints start nothing. Under the reject policy a full router returns
// ErrOverloaded; under wait it blocks until a slot frees or ctx ends.
func (r *Router) Dispatch(ctx context.Context, req model.Request, env transport.InboundEnvelope) error {
	h, ok := r.handlers[req.Endpoint]
	if !ok || !req.Endpoint.Known() {
		r.mu.Lock()
		r.unknownEndpoints++
		r.mu.Unlock()
		r.replyError(env, model.CodeUnknownEndpoint, fmt.Sprintf("unknown endpoint %q", req.Endpoint), r.logger)
		return fmt.Errorf("%w: %q", ErrUnknownEndpoint, req.Endpoint)
	}

	if r.sem != nil {
		if r.cfg.OverloadPolicy == PolicyReject {
			if !r.sem.TryAcquire(1) {
				r.mu.Lock()
				r.rejected++
				r.mu.Unlock()
				r.replyError(env, model.CodeOverloaded, ErrOverloaded.Error(), r.logger)
				return ErrOverloaded
			}
		} else if err := r.sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("wait for dispatch slot: %w", err)
		}
	}

	r.mu.Lock()
	r.dispatched++
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx, h, req, env)
	return nil
}

// run executes one request. The handler context survives cancellation of
// ctx so shutdown lets in-flight requests finish; only the handler
// timeout bounds it.
func (r *Router) run(ctx context.Context, h Handler, req model.Request, env transport.InboundEnvelope) {
	defer r.wg.Done()
	if r.sem != nil {
		defer r.sem.Release(1)
	}

	logger := r.logger.With(
		"request_id", uuid.NewString(),
		"endpoint", string(req.Endpoint),
	)
	if req.MarketAddress != "" {
		logger = logger.With("market", req.MarketAddress)
	}

	hctx := context.WithoutCancel(ctx)
	if r.cfg.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(hctx, r.cfg.HandlerTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := safeHandle(hctx, h, req)
	if err == nil {
		var payload []byte
		payload, err = model.Encode(resp)
		if err == nil {
			r.send(env.Reply(payload), logger)
			r.mu.Lock()
			r.completed++
			r.mu.Unlock()
			logger.Debug("request completed", "duration", time.Since(start))
			return
		}
	}

	r.mu.Lock()
	r.failed++
	r.mu.Unlock()

	code, message := handler.Classify(err)
	logger.Warn("request failed",
		"error", err,
		"code", code,
		"duration", time.Since(start),
	)
	r.replyError(env, code, message, logger)
}

// safeHandle turns a handler panic into an error so one bad request
// cannot take the process down.
func safeHandle(ctx context.Context, h Handler, req model.Request) (resp model.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h.Handle(ctx, req)
}

func (r *Router) replyError(env transport.InboundEnvelope, code, message string, logger *slog.Logger) {
	if !r.cfg.ReplyErrors {
		return
	}
	payload, err := model.Encode(model.NewErrorResponse(code, message))
	if err != nil {
		logger.Error("failed to encode error reply", "error", err)
		return
	}
	r.send(env.Reply(payload), logger)

	r.mu.Lock()
	r.errorReplies++
	r.mu.Unlock()
}

func (r *Router) send(env transport.OutboundEnvelope, logger *slog.Logger) {
	if err := r.out.Send(env); err != nil {
		if errors.Is(err, transport.ErrWriterClosed) {
			logger.Debug("reply dropped, writer stopped")
			return
		}
		logger.Warn("failed to queue reply", "error", err)
	}
}

// Wait blocks until every dispatched request has finished or ctx ends.
func (r *Router) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.logger.Warn("timed out waiting for in-flight requests", "in_flight", r.Stats().InFlight)
		return ctx.Err()
	}
}

// Stats returns current statistics.
func (r *Router) Stats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RouterStats{
		Received:         r.received,
		Dispatched:       r.dispatched,
		DecodeErrors:     r.decodeErrors,
		UnknownEndpoints: r.unknownEndpoints,
		Completed:        r.completed,
		Failed:           r.failed,
		Rejected:         r.rejected,
		ErrorReplies:     r.errorReplies,
		InFlight:         r.dispatched - r.completed - r.failed,
	}
}
