// Package sync provides the incremental synchronization engine that mirrors
// the remote trading-data API into the local store.
//
// # Core Interfaces
//
//   - Manager: runs one sync cycle for one scope and enumerates scopes
//   - UserStore: credentials of users and the public symbols they follow
//
// The sync/state subpackage stores cursors and per-scope statuses, the
// sync/writer subpackage commits fetched pages, and the sync/coordinator
// subpackage schedules cycles.
//
// # Scopes
//
// A scope is the (user, collection[, symbol]) partition whose rows and
// cursor are tracked independently. Private collections have one scope per
// user. Public snapshot collections have a single shared scope, and public
// per-symbol collections have one scope per symbol followed by any
// syncable user.
//
// # Cycle
//
// Each cycle moves the scope through IDLE → FETCHING → MERGING → IDLE, or
// FAILED when the store rejects a page.
//
// Append-only collections are swept backward through the window
// [cursor, now] in pages of the collection's maxLimit rows. The cursor is
// the date up to which every remote row is stored; it starts at the later
// of the stored cursor and the newest stored row. Each page is inserted
// together with the progress of the sweep (the end of the next page and the
// newest date seen) in one transaction, so a crash or cancellation resumes
// at the next unseen page. Duplicate rows are skipped through the unique
// index of the collection. A page shorter than maxLimit closes the window
// and moves the cursor to the newest date seen.
//
// Replaceable collections are fetched whole and replace the stored rows in
// one transaction that also flags the scope as having new data.
//
// # Errors
//
// Failures are reported as *Error with a Kind:
//
//   - KindUpstreamFetch: the remote call failed; nothing is stored for the
//     page and the scope returns to IDLE for the next tick
//   - KindPersistence: the store failed; the scope is marked FAILED
//   - KindInvalidScope: the scope does not name a synced collection
//
// Cancellation is page granular: the in-flight page finishes and commits,
// then the cycle stops before requesting the next one.
package sync
