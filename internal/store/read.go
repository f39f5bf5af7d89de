package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ael-dev3/Hypercast/internal/feed"
	"github.com/ael-dev3/Hypercast/internal/hub"
)

// ListCasts returns up to limit live casts, newest first. Ordering matches
// the in-memory feed: created_at, then event_id, then fid, all descending.
// A non-positive limit falls back to 100.
func (s *Store) ListCasts(ctx context.Context, limit int) ([]feed.Cast, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, fid, text, created_at, event_id, parent_fid, parent_hash, mentions
		FROM casts
		WHERE deleted = 0
		ORDER BY created_at DESC, event_id DESC, fid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list casts: %w", err)
	}
	defer rows.Close()

	var casts []feed.Cast
	for rows.Next() {
		var c feed.Cast
		var fid, eventID, parentFID int64
		var mentions string
		if err := rows.Scan(&c.Hash, &fid, &c.Text, &c.CreatedAt, &eventID, &parentFID, &c.ParentHash, &mentions); err != nil {
			return nil, fmt.Errorf("list casts: scan: %w", err)
		}
		c.FID = uint64(fid)
		c.EventID = uint64(eventID)
		c.ParentFID = uint64(parentFID)
		if err := json.Unmarshal([]byte(mentions), &c.Mentions); err != nil {
			return nil, fmt.Errorf("list casts: mentions for %s: %w", c.Hash, err)
		}
		casts = append(casts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list casts: %w", err)
	}
	return casts, nil
}

// CountCasts reports how many live (non-tombstoned) casts are stored.
func (s *Store) CountCasts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM casts WHERE deleted = 0
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count casts: %w", err)
	}
	return n, nil
}

// ReadCursor loads the durable harvest position for a harvester identity.
// Returns found=false with a zero cursor when no position has been
// recorded yet.
func (s *Store) ReadCursor(ctx context.Context, sourceID string) (c hub.Cursor, found bool, err error) {
	var fromEventID int64
	err = s.db.QueryRowContext(ctx, `
		SELECT from_event_id, page_token FROM harvest_cursors WHERE source_id = ?
	`, sourceID).Scan(&fromEventID, &c.PageToken)
	if errors.Is(err, sql.ErrNoRows) {
		return hub.Cursor{}, false, nil
	}
	if err != nil {
		return hub.Cursor{}, false, fmt.Errorf("read cursor: %w", err)
	}
	c.FromEventID = uint64(fromEventID)
	return c, true, nil
}
