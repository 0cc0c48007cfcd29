// Package handler implements the list, quote and depth endpoints.
//
// Every call reads fresh state from its upstreams: the token registry,
// the market registry and the ledger. Nothing is cached between requests.
package handler
