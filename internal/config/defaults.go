package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID     = "serum-gateway"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultBind           = "tcp://*:6900"
	DefaultOutboxCapacity = 1024
	DefaultSendTimeout    = 5 * time.Second
	DefaultMaxInFlight    = 256
	DefaultOverloadPolicy = "wait"
	DefaultHandlerTimeout = 30 * time.Second
	DefaultMaxRequestAge  = 60 * time.Second
	DefaultReplyErrors    = true
	DefaultDrainTimeout   = 10 * time.Second
	DefaultRPCURL         = "https://solana-api.projectserum.com"
	DefaultCommitment     = "recent"
	DefaultLedgerTimeout  = 15 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBackoff   = 500 * time.Millisecond
	DefaultClusterSlug    = "mainnet-beta"
	DefaultTokensTimeout  = 20 * time.Second
	DefaultReloadInterval = 5 * time.Minute
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 4
	DefaultMinConns       = 1
	DefaultHealthPort     = 8080
)

// DefaultTokenListURLs are the token-list mirrors tried in order.
var DefaultTokenListURLs = []string{
	"https://cdn.jsdelivr.net/gh/solana-labs/token-list@main/src/tokens/solana.tokenlist.json",
	"https://raw.githubusercontent.com/solana-labs/token-list/main/src/tokens/solana.tokenlist.json",
}

func (c *GatewayConfig) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	// Transport defaults
	if c.Transport.Bind == "" {
		c.Transport.Bind = DefaultBind
	}
	if c.Transport.OutboxCapacity == 0 {
		c.Transport.OutboxCapacity = DefaultOutboxCapacity
	}
	if c.Transport.SendTimeout == 0 {
		c.Transport.SendTimeout = DefaultSendTimeout
	}

	// Dispatch defaults. Zero values for max_in_flight, handler_timeout and
	// max_request_age are meaningful, so only a missing policy is filled in.
	if c.Dispatch.OverloadPolicy == "" {
		c.Dispatch.OverloadPolicy = DefaultOverloadPolicy
	}
	if c.Dispatch.DrainTimeout == 0 {
		c.Dispatch.DrainTimeout = DefaultDrainTimeout
	}

	// Ledger defaults
	if c.Ledger.RPCURL == "" {
		c.Ledger.RPCURL = DefaultRPCURL
	}
	if c.Ledger.Commitment == "" {
		c.Ledger.Commitment = DefaultCommitment
	}
	if c.Ledger.Timeout == 0 {
		c.Ledger.Timeout = DefaultLedgerTimeout
	}
	if c.Ledger.MaxRetries == 0 {
		c.Ledger.MaxRetries = DefaultMaxRetries
	}
	if c.Ledger.RetryBackoff == 0 {
		c.Ledger.RetryBackoff = DefaultRetryBackoff
	}

	// Token registry defaults
	if len(c.Tokens.URLs) == 0 {
		c.Tokens.URLs = append([]string(nil), DefaultTokenListURLs...)
	}
	if c.Tokens.ClusterSlug == "" {
		c.Tokens.ClusterSlug = DefaultClusterSlug
	}
	if c.Tokens.Timeout == 0 {
		c.Tokens.Timeout = DefaultTokensTimeout
	}

	if c.Markets.ReloadInterval == 0 {
		c.Markets.ReloadInterval = DefaultReloadInterval
	}

	// Database defaults (only meaningful when enabled)
	if c.Database.Enabled() {
		if c.Database.Port == 0 {
			c.Database.Port = DefaultDBPort
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = DefaultDBSSLMode
		}
		if c.Database.MaxConns == 0 {
			c.Database.MaxConns = DefaultMaxConns
		}
		if c.Database.MinConns == 0 {
			c.Database.MinConns = DefaultMinConns
		}
	}
}

// baseConfig seeds the fields where an explicit zero in YAML means
// "disabled". The YAML decoder leaves them untouched when a key is absent.
func baseConfig() GatewayConfig {
	return GatewayConfig{
		Dispatch: DispatchConfig{
			MaxInFlight:    DefaultMaxInFlight,
			HandlerTimeout: DefaultHandlerTimeout,
			MaxRequestAge:  DefaultMaxRequestAge,
		},
		Markets: MarketsConfig{IncludeBuiltin: true},
		Health:  HealthConfig{Port: DefaultHealthPort},
	}
}

// Defaults returns a config with every default applied, for callers that
// run without a config file.
func Defaults() *GatewayConfig {
	cfg := baseConfig()
	cfg.applyDefaults()
	return &cfg
}
