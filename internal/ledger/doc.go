// Package ledger provides a read-only Solana JSON-RPC client.
//
// Only the account-loading calls the gateway needs are implemented:
//   - getAccountInfo
//   - getMultipleAccounts
//
// Account data is always requested base64-encoded. Transient failures
// (HTTP 5xx, 429) are retried with jittered exponential backoff.
package ledger
