// Package feed maintains the in-memory reconciled view of current casts.
//
// The store applies normalized actions idempotently under per-hash
// last-writer-wins resolution keyed by the hub event sequence number, keeps
// tombstones for deleted casts so stale re-insertions are suppressed, and
// exposes a deterministically ordered, capped visible slice.
//
// Replaying the same action list is safe: the second pass reports zero
// added/updated/removed counts and leaves the view unchanged. This is what
// makes at-least-once delivery from the harvester tolerable.
//
// The underlying table is not size-bounded; only the visible slice is
// capped. Long-running deployments that cannot afford unbounded growth
// should bound or page the table externally.
//
// The store holds no locks: the poller's single-flight guard ensures Apply
// is never invoked concurrently with itself.
package feed
