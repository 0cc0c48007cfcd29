// Package database manages the optional PostgreSQL pool.
//
// The gateway reads additional Serum markets from the serum_markets table
// when a database host is configured. It never writes requests or quotes.
package database
