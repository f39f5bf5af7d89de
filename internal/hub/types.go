package hub

// Hub event and message discriminators as they appear on the wire.
// Only merge-message events are harvested; every other event kind
// (prune, revoke, onchain) is skipped without being counted as an error.
const (
	EventTypeMergeMessage = "HUB_EVENT_TYPE_MERGE_MESSAGE"

	messageTypeCastAdd = "MESSAGE_TYPE_CAST_ADD"
)

// SourceMerge tags actions derived from a merge-message event. Recorded in
// the durable sink so rows can be traced back to the event kind that
// produced them.
const SourceMerge = "merge"

// Action is the normalized outcome of one embedded hub message: either an
// upsert or a delete of a cast. Consumers must switch exhaustively over the
// two concrete types.
type Action interface {
	isAction()
}

// UpsertCast inserts or replaces a cast, keyed by Hash.
type UpsertCast struct {
	Hash        string   // canonical 0x-prefixed lowercase hex
	FID         uint64   // owning Farcaster ID
	Timestamp   uint64   // cast creation time, seconds
	Text        string   // sanitized cast text
	Mentions    []uint64 // mentioned FIDs
	ParentFID   uint64   // 0 when the cast is not a reply
	ParentHash  string   // "" when the cast is not a reply
	Source      string
	EventID     uint64 // hub event sequence number
	BlockNumber uint64 // 0 when the event carries no block
}

func (UpsertCast) isAction() {}

// CreatedAtMillis returns the cast creation time in milliseconds, the unit
// used by the materialized view and the durable sink.
func (u UpsertCast) CreatedAtMillis() int64 {
	return int64(u.Timestamp) * 1000
}

// DeleteCast marks the cast with Hash as removed.
type DeleteCast struct {
	Hash        string
	EventID     uint64
	Source      string
	BlockNumber uint64
	Timestamp   uint64 // event timestamp, seconds
}

func (DeleteCast) isAction() {}

// Cursor is the resumable position in the hub event stream. Exactly one
// addressing mode is active at a time: a non-empty PageToken takes priority
// for the next fetch, otherwise FromEventID addresses the next unseen
// sequence number.
type Cursor struct {
	FromEventID uint64
	PageToken   string
}

// AdvancedBy reports whether next has moved strictly past c. Used as the
// anti-loop guard when aggregating pages: a page whose returned cursor does
// not advance past the cursor used to request it terminates the harvest.
func (c Cursor) AdvancedBy(next Cursor) bool {
	if next.PageToken != "" && next.PageToken != c.PageToken {
		return true
	}
	return next.FromEventID > c.FromEventID
}

// Page is one normalized page of hub events. FetchAllPages aggregates
// multiple pages into the same shape.
type Page struct {
	Actions       []Action
	ReceivedCount int // raw events in the page, recognized or not
	Cursor        Cursor
	HasMore       bool
}
