// Package serum loads Serum DEX markets and order books from the ledger.
//
// A Market is decoded from the market state account owned by the DEX
// program. Its bids and asks accounts hold slab-encoded order books that
// are decoded on every load; nothing is cached between calls.
//
// Price and size conversion follows the DEX lot model:
//
//	price = priceLots * quoteLotSize * 10^baseDecimals / (baseLotSize * 10^quoteDecimals)
//	size  = sizeLots * baseLotSize / 10^baseDecimals
package serum
