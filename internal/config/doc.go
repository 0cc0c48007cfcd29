// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// e.g. a Postgres password or a private RPC endpoint with an embedded API key.
package config
