package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/serum-gateway/internal/config"
)

// applicationName shows up in pg_stat_activity.
const applicationName = "serum-gateway"

// BuildConnString renders cfg as a postgres:// URL for pgxpool.
// Credentials are userinfo-escaped and IPv6 hosts are bracketed.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", applicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
