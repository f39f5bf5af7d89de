// Package poller runs the cursor persistence loop: read durable state,
// harvest, feed the durable sink, persist the advanced state, and emit a
// structured cycle summary. Cycles are single-flight; a tick that lands
// while a cycle is still applying results is skipped.
package poller
