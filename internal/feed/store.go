package feed

import (
	"sort"

	"github.com/ael-dev3/Hypercast/internal/hub"
)

// Visible-cap bounds. A zero or negative cap at construction selects the
// default; anything above the ceiling is clamped.
const (
	DefaultMaxVisible = 100
	maxVisibleCeiling = 1000
)

// Cast is one materialized view row, keyed by Hash.
type Cast struct {
	Hash       string
	FID        uint64
	Text       string
	CreatedAt  int64 // unix millis
	ParentFID  uint64
	ParentHash string
	Mentions   []uint64
	Deleted    bool
	EventID    uint64
}

// ApplyCounts reports the effect of one Apply call.
type ApplyCounts struct {
	Added   int // hash not previously present
	Updated int // live record replaced by a newer event, or tombstone revived
	Removed int // record newly marked deleted
}

// Store is the authoritative in-memory record set. Not safe for concurrent
// use; callers serialize Apply via a single-flight guard.
type Store struct {
	casts      map[string]*Cast
	cursor     hub.Cursor
	maxVisible int
}

// NewStore creates a store with the given visible cap, clamped to a sane
// range.
func NewStore(maxVisible int) *Store {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}
	if maxVisible > maxVisibleCeiling {
		maxVisible = maxVisibleCeiling
	}
	return &Store{
		casts:      make(map[string]*Cast),
		maxVisible: maxVisible,
	}
}

// Apply reconciles a batch of actions in order. Per hash, an action is
// accepted only when its event ID is at or above the stored record's;
// strictly older actions are ignored. An upsert strictly newer than a
// tombstone revives the record. A delete for an unseen hash creates a
// tombstone so a later out-of-order upsert with a lower event ID stays
// suppressed.
func (s *Store) Apply(actions []hub.Action) ApplyCounts {
	var counts ApplyCounts
	for _, a := range actions {
		switch act := a.(type) {
		case hub.UpsertCast:
			s.applyUpsert(act, &counts)
		case hub.DeleteCast:
			s.applyDelete(act, &counts)
		}
	}
	return counts
}

func (s *Store) applyUpsert(act hub.UpsertCast, counts *ApplyCounts) {
	cur, ok := s.casts[act.Hash]
	if !ok {
		s.casts[act.Hash] = castFromUpsert(act)
		counts.Added++
		return
	}
	if act.EventID < cur.EventID {
		return
	}
	if cur.Deleted {
		// Revival requires a strictly newer event; an equal event ID is
		// the delete winning a same-sequence race.
		if act.EventID > cur.EventID {
			*cur = *castFromUpsert(act)
			counts.Updated++
		}
		return
	}
	newer := act.EventID > cur.EventID
	*cur = *castFromUpsert(act)
	if newer {
		counts.Updated++
	}
}

func (s *Store) applyDelete(act hub.DeleteCast, counts *ApplyCounts) {
	cur, ok := s.casts[act.Hash]
	if !ok {
		s.casts[act.Hash] = &Cast{
			Hash:    act.Hash,
			EventID: act.EventID,
			Deleted: true,
		}
		counts.Removed++
		return
	}
	if act.EventID < cur.EventID {
		return
	}
	if !cur.Deleted {
		counts.Removed++
	}
	// Tombstone: deleted flag set, other fields retained.
	cur.Deleted = true
	if act.EventID > cur.EventID {
		cur.EventID = act.EventID
	}
}

func castFromUpsert(act hub.UpsertCast) *Cast {
	return &Cast{
		Hash:       act.Hash,
		FID:        act.FID,
		Text:       act.Text,
		CreatedAt:  act.CreatedAtMillis(),
		ParentFID:  act.ParentFID,
		ParentHash: act.ParentHash,
		Mentions:   act.Mentions,
		EventID:    act.EventID,
	}
}

// VisibleRows returns the non-deleted casts in deterministic total order:
// creation time descending, then event ID descending, then FID descending.
// The result is capped to min(limit, visible cap); limit <= 0 means the
// cap. Rows are copies; mutating them does not affect the store.
func (s *Store) VisibleRows(limit int) []Cast {
	if limit <= 0 || limit > s.maxVisible {
		limit = s.maxVisible
	}

	rows := make([]Cast, 0, len(s.casts))
	for _, c := range s.casts {
		if !c.Deleted {
			rows = append(rows, *c)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt != rows[j].CreatedAt {
			return rows[i].CreatedAt > rows[j].CreatedAt
		}
		if rows[i].EventID != rows[j].EventID {
			return rows[i].EventID > rows[j].EventID
		}
		return rows[i].FID > rows[j].FID
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// Len returns the total record count, tombstones included.
func (s *Store) Len() int {
	return len(s.casts)
}

// Cursor returns the most recently accepted harvest cursor.
func (s *Store) Cursor() hub.Cursor {
	return s.cursor
}

// AdvanceCursor accepts a harvest cursor unless it is behind the current
// one. Reports whether the cursor was accepted. Mirrors the harvester's
// monotonic guard: a successful cycle never moves the cursor backward.
func (s *Store) AdvanceCursor(c hub.Cursor) bool {
	if c.FromEventID < s.cursor.FromEventID {
		return false
	}
	s.cursor = c
	return true
}
