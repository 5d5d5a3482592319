// Package store is the persistence layer for the activity ledger: the
// activity tables and their tag relation, the pre-activity metadata
// reconciler, and the closed-channel ledger, all backed by a single
// SQLite database.
//
// Write semantics:
//   - Every multi-statement operation runs in one transaction; a batch
//     failure rolls back every row in the batch.
//   - Upsert (update-else-insert) is the primary idempotent write path.
//   - Inserting an activity triggers a best-effort transfer of any
//     matching pre-activity metadata; that transfer's failure is logged
//     and deliberately never propagated to the insert caller.
//
// Constraint violations (non-negative values, required non-empty
// strings, enumeration membership, the confirm-timestamp ordering
// triggers) always surface as errors and abort the enclosing
// transaction; they are never silently corrected.
package store
