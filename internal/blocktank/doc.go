// Package blocktank is a local cache of LSP order state: channel orders,
// CJIT entries, and the service info document, persisted in their own
// SQLite database separate from the activity ledger.
//
// The cache holds whatever the LSP API last returned. Nested service
// documents (channel, node, payment, invoice, discount) are stored as
// opaque JSON so new upstream fields survive a round trip unchanged.
package blocktank
