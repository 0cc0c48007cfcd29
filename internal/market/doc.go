// Package market keeps the set of Serum markets the gateway advertises.
//
// Markets come from three places, merged in order:
//   - the built-in list embedded in the binary
//   - extra markets declared in the config file
//   - the serum_markets table, when a database is configured
//
// A later source overrides an earlier one for the same address. Only the
// database source is reloaded after startup.
package market
