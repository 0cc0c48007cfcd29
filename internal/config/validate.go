package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rickgao/serum-gateway/internal/tokenlist"
)

// Validate checks that all required fields are set and values are valid.
func (c *GatewayConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Transport.Bind == "" {
		return errors.New("transport.bind is required")
	}
	if !strings.Contains(c.Transport.Bind, "://") {
		return fmt.Errorf("transport.bind must be a zmq endpoint like tcp://*:6900, got %q", c.Transport.Bind)
	}
	if c.Transport.OutboxCapacity < 1 {
		return errors.New("transport.outbox_capacity must be >= 1")
	}

	if c.Dispatch.MaxInFlight < 0 {
		return errors.New("dispatch.max_in_flight must be >= 0")
	}
	if c.Dispatch.OverloadPolicy != "wait" && c.Dispatch.OverloadPolicy != "reject" {
		return fmt.Errorf("dispatch.overload_policy must be wait or reject, got %q", c.Dispatch.OverloadPolicy)
	}
	if c.Dispatch.HandlerTimeout < 0 {
		return errors.New("dispatch.handler_timeout must be >= 0")
	}
	if c.Dispatch.MaxRequestAge < 0 {
		return errors.New("dispatch.max_request_age must be >= 0")
	}

	if _, err := url.ParseRequestURI(c.Ledger.RPCURL); err != nil {
		return fmt.Errorf("ledger.rpc_url is invalid: %w", err)
	}
	switch c.Ledger.Commitment {
	case "processed", "confirmed", "finalized", "recent", "single", "singleGossip", "root", "max":
	default:
		return fmt.Errorf("ledger.commitment %q is not a known commitment level", c.Ledger.Commitment)
	}
	if c.Ledger.MaxRetries < 0 {
		return errors.New("ledger.max_retries must be >= 0")
	}

	if len(c.Tokens.URLs) == 0 {
		return errors.New("tokens.urls must not be empty")
	}
	if !tokenlist.KnownClusterSlug(c.Tokens.ClusterSlug) {
		return fmt.Errorf("tokens.cluster_slug must be mainnet-beta, testnet or devnet, got %q", c.Tokens.ClusterSlug)
	}

	for i, m := range c.Markets.Extra {
		if m.Address == "" || m.ProgramID == "" {
			return fmt.Errorf("markets.extra[%d] requires address and program_id", i)
		}
	}
	if c.Markets.ReloadInterval < 0 {
		return errors.New("markets.reload_interval must be >= 0")
	}

	if c.Database.Enabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	if c.Health.Port < 0 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 0 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
