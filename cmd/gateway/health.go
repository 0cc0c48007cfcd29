package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rickgao/serum-gateway/internal/gateway"
	"github.com/rickgao/serum-gateway/internal/router"
	"github.com/rickgao/serum-gateway/internal/transport"
	"github.com/rickgao/serum-gateway/internal/version"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// healthDeps are the components the health server reports on.
type healthDeps struct {
	server  interface{ Stats() gateway.ServerStats }
	router  interface{ Stats() router.RouterStats }
	writer  interface{ Stats() transport.WriterStats }
	markets interface{ Len() int }
	db      pinger // nil when no database is configured
}

// newHealthHandler creates the HTTP handler for health checks.
func newHealthHandler(deps *healthDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Version    version.Info   `json:"version"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Version:    version.Get(),
			Components: make(map[string]any),
		}

		// Check socket
		ss := deps.server.Stats()
		if ss.Running {
			health.Components["socket"] = "listening"
		} else {
			health.Status = "unhealthy"
			health.Components["socket"] = "closed"
		}

		// Check database
		if deps.db != nil {
			if err := deps.db.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		}

		// Check market registry
		count := deps.markets.Len()
		health.Components["market_registry"] = map[string]any{
			"markets": count,
		}
		if count == 0 && health.Status == "healthy" {
			health.Status = "degraded"
		}

		rs := deps.router.Stats()
		health.Components["router"] = map[string]any{
			"in_flight": rs.InFlight,
			"completed": rs.Completed,
			"failed":    rs.Failed,
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"server": deps.server.Stats(),
			"router": deps.router.Stats(),
			"writer": deps.writer.Stats(),
		})
	})

	return mux
}
