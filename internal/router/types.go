package router

import (
	"context"
	"errors"
	"time"

	"github.com/rickgao/serum-gateway/internal/config"
	"github.com/rickgao/serum-gateway/internal/model"
	"github.com/rickgao/serum-gateway/internal/transport"
)

// Errors returned by Dispatch.
var (
	ErrOverloaded      = errors.New("too many requests in flight")
	ErrUnknownEndpoint = errors.New("unknown endpoint")
)

// Overload policies.
const (
	PolicyWait   = "wait"
	PolicyReject = "reject"
)

// Handler serves one endpoint.
type Handler interface {
	Handle(ctx context.Context, req model.Request) (model.Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req model.Request) (model.Response, error)

func (f HandlerFunc) Handle(ctx context.Context, req model.Request) (model.Response, error) {
	return f(ctx, req)
}

// Sender delivers replies. *transport.Writer satisfies it.
type Sender interface {
	Send(env transport.OutboundEnvelope) error
}

// RouterConfig holds configuration for the Request Router.
type RouterConfig struct {
	MaxInFlight    int           // 0 = unbounded
	OverloadPolicy string        // PolicyWait or PolicyReject
	HandlerTimeout time.Duration // 0 = no timeout
	MaxRequestAge  time.Duration // 0 = accept any timestamp
	ReplyErrors    bool
}

// DefaultRouterConfig returns default configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		MaxInFlight:    config.DefaultMaxInFlight,
		OverloadPolicy: config.DefaultOverloadPolicy,
		HandlerTimeout: config.DefaultHandlerTimeout,
		MaxRequestAge:  config.DefaultMaxRequestAge,
		ReplyErrors:    config.DefaultReplyErrors,
	}
}

// ConfigFrom builds a RouterConfig from the dispatch config section.
func ConfigFrom(cfg config.DispatchConfig) RouterConfig {
	return RouterConfig{
		MaxInFlight:    cfg.MaxInFlight,
		OverloadPolicy: cfg.OverloadPolicy,
		HandlerTimeout: cfg.HandlerTimeout,
		MaxRequestAge:  cfg.MaxRequestAge,
		ReplyErrors:    cfg.ErrorReplies(),
	}
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	Received         int64
	Dispatched       int64
	DecodeErrors     int64
	UnknownEndpoints int64
	Completed        int64
	Failed           int64
	Rejected         int64
	ErrorReplies     int64
	InFlight         int64
}
