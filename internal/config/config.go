package config

import "time"

// GatewayConfig is the root configuration for a gateway instance.
type GatewayConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Tokens    TokensConfig    `yaml:"tokens"`
	Markets   MarketsConfig   `yaml:"markets"`
	Database  DBConfig        `yaml:"database"`
	Health    HealthConfig    `yaml:"health"`
}

// InstanceConfig identifies this gateway.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// TransportConfig holds the ZeroMQ ROUTER socket settings.
type TransportConfig struct {
	Bind           string        `yaml:"bind"`            // e.g. tcp://*:6900
	OutboxCapacity int           `yaml:"outbox_capacity"` // initial outbound queue capacity
	SendTimeout    time.Duration `yaml:"send_timeout"`
}

// DispatchConfig holds request dispatch and admission settings.
type DispatchConfig struct {
	MaxInFlight    int           `yaml:"max_in_flight"`   // 0 = unbounded
	OverloadPolicy string        `yaml:"overload_policy"` // "wait" or "reject"
	HandlerTimeout time.Duration `yaml:"handler_timeout"` // 0 = no timeout
	MaxRequestAge  time.Duration `yaml:"max_request_age"` // 0 = accept any timestamp
	ReplyErrors    *bool         `yaml:"reply_errors"`    // nil = default (true)
	DrainTimeout   time.Duration `yaml:"drain_timeout"`
}

// LedgerConfig holds Solana JSON-RPC settings.
type LedgerConfig struct {
	RPCURL       string        `yaml:"rpc_url"`
	Commitment   string        `yaml:"commitment"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// TokensConfig holds token registry settings.
type TokensConfig struct {
	URLs        []string      `yaml:"urls"` // tried in order
	ClusterSlug string        `yaml:"cluster_slug"`
	Timeout     time.Duration `yaml:"timeout"`
}

// MarketsConfig holds static market registry settings.
type MarketsConfig struct {
	IncludeBuiltin bool           `yaml:"include_builtin"`
	Extra          []MarketConfig `yaml:"extra"`
	ReloadInterval time.Duration  `yaml:"reload_interval"` // database source only
}

// MarketConfig is a market declared in the config file.
type MarketConfig struct {
	Address    string `yaml:"address"`
	Name       string `yaml:"name"`
	ProgramID  string `yaml:"program_id"`
	Deprecated bool   `yaml:"deprecated"`
}

// DBConfig holds the optional Postgres market source.
// An empty Host disables it.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether a database is configured.
func (db DBConfig) Enabled() bool {
	return db.Host != ""
}

// HealthConfig holds the health HTTP server settings.
type HealthConfig struct {
	Port int `yaml:"port"` // 0 disables the server
}

// ErrorReplies reports whether failures are answered with an error payload.
func (d DispatchConfig) ErrorReplies() bool {
	if d.ReplyErrors == nil {
		return DefaultReplyErrors
	}
	return *d.ReplyErrors
}
