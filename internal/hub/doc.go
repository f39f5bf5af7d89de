// Package hub normalizes raw event pages from a Farcaster-style hub HTTP
// API into a typed action model.
//
// The hub's /v1/events endpoint returns loosely-typed JSON: events tagged by
// a type string, each carrying a nested protobuf-shaped message with its own
// discriminator, hashes encoded as hex or base64 depending on the serving
// path, and a continuation token under one of two field spellings. Nothing
// in a page can be assumed well-formed.
//
// This package therefore models the envelope as untyped values accessed
// only through total coercion helpers that never panic and never return an
// error: an individually malformed field resolves to a safe fallback and
// processing continues. The only fatal condition is a page body that is not
// parseable JSON at all (ErrMalformedPayload).
//
// Normalization produces at most two actions per embedded message:
//
//   - UpsertCast when the message is a cast add whose hash canonicalizes
//   - DeleteCast when the message carries a cast-remove body
//
// Actions whose hash cannot be recovered are dropped, never fabricated.
//
// The package is pure: no I/O, no clocks. Fetching lives in
// internal/harvest, reconciliation in internal/feed.
package hub
