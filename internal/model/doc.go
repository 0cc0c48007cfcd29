// Package model defines the request and response types exchanged with
// gateway clients.
//
// Conventions:
//   - Requests are a closed set of endpoints; anything else is rejected at decode time
//   - Prices and sizes are decimal.Decimal; depth levels serialize as JSON number pairs
//   - Quote prices serialize as fixed-decimal strings at the market's tick precision
package model
