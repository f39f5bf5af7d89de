package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ael-dev3/Hypercast/internal/hub"
)

// UpsertCast applies an upsert action to the durable cast set. Reports
// whether a new row was inserted and whether an existing row was replaced
// by a strictly newer event (including a revived tombstone).
//
// Safe to repeat with the same arguments: the stored row only changes when
// the incoming event ID is at or above the stored one, and repeat calls
// report inserted=false, updated=false.
func (s *Store) UpsertCast(ctx context.Context, act hub.UpsertCast) (inserted, updated bool, err error) {
	mentions, err := marshalMentions(act.Mentions)
	if err != nil {
		return false, false, fmt.Errorf("upsert cast: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("upsert cast: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var prevEventID int64
	var prevDeleted bool
	err = tx.QueryRowContext(ctx, `
		SELECT event_id, deleted FROM casts WHERE hash = ?
	`, act.Hash).Scan(&prevEventID, &prevDeleted)

	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, false, fmt.Errorf("upsert cast: select existing: %w", err)
	}

	eventID := int64(act.EventID)

	switch {
	case !exists:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO casts
			(hash, fid, text, created_at, event_timestamp, event_id, source,
			 parent_fid, parent_hash, block_number, mentions, deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		`,
			act.Hash,
			int64(act.FID),
			act.Text,
			act.CreatedAtMillis(),
			int64(act.Timestamp),
			eventID,
			act.Source,
			int64(act.ParentFID),
			act.ParentHash,
			int64(act.BlockNumber),
			mentions,
		)
		inserted = true

	case eventID > prevEventID:
		// Strictly newer: replace the row, reviving it if tombstoned.
		_, err = tx.ExecContext(ctx, `
			UPDATE casts SET
				fid = ?, text = ?, created_at = ?, event_timestamp = ?,
				event_id = ?, source = ?, parent_fid = ?, parent_hash = ?,
				block_number = ?, mentions = ?, deleted = 0
			WHERE hash = ?
		`,
			int64(act.FID),
			act.Text,
			act.CreatedAtMillis(),
			int64(act.Timestamp),
			eventID,
			act.Source,
			int64(act.ParentFID),
			act.ParentHash,
			int64(act.BlockNumber),
			mentions,
			act.Hash,
		)
		updated = true

	case eventID == prevEventID && !prevDeleted:
		// Replay of the event already stored: rewrite in place, report
		// nothing changed.
		_, err = tx.ExecContext(ctx, `
			UPDATE casts SET
				fid = ?, text = ?, created_at = ?, event_timestamp = ?,
				source = ?, parent_fid = ?, parent_hash = ?, block_number = ?,
				mentions = ?
			WHERE hash = ?
		`,
			int64(act.FID),
			act.Text,
			act.CreatedAtMillis(),
			int64(act.Timestamp),
			act.Source,
			int64(act.ParentFID),
			act.ParentHash,
			int64(act.BlockNumber),
			mentions,
			act.Hash,
		)

	default:
		// Older than the stored row, or equal against a tombstone: the
		// stored writer wins.
	}

	if err != nil {
		return false, false, fmt.Errorf("upsert cast: write: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, false, fmt.Errorf("upsert cast: commit: %w", err)
	}
	return inserted, updated, nil
}

// DeleteCast applies a delete action. A delete for a hash never seen
// before creates a tombstone placeholder so a later out-of-order upsert
// with a lower event ID stays suppressed. Reports whether a live row was
// newly marked deleted (or a new tombstone created).
func (s *Store) DeleteCast(ctx context.Context, act hub.DeleteCast) (removed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("delete cast: begin tx: %w", err)
	}
	defer tx.Rollback()

	var prevEventID int64
	var prevDeleted bool
	err = tx.QueryRowContext(ctx, `
		SELECT event_id, deleted FROM casts WHERE hash = ?
	`, act.Hash).Scan(&prevEventID, &prevDeleted)

	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("delete cast: select existing: %w", err)
	}

	eventID := int64(act.EventID)

	switch {
	case !exists:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO casts
			(hash, event_timestamp, event_id, source, block_number, deleted)
			VALUES (?, ?, ?, ?, ?, 1)
		`,
			act.Hash,
			int64(act.Timestamp),
			eventID,
			act.Source,
			int64(act.BlockNumber),
		)
		removed = true

	case eventID >= prevEventID:
		// Tombstone: only the deleted flag and event ID move; the last
		// known fields are retained.
		newEventID := prevEventID
		if eventID > prevEventID {
			newEventID = eventID
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE casts SET deleted = 1, event_id = ? WHERE hash = ?
		`, newEventID, act.Hash)
		removed = !prevDeleted

	default:
		// Stale delete; ignored.
	}

	if err != nil {
		return false, fmt.Errorf("delete cast: write: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("delete cast: commit: %w", err)
	}
	return removed, nil
}

// UpdateCursor durably records the harvest position for a harvester
// identity. The cursor never moves backward: a write with a lower
// from_event_id than the stored one is silently ignored, which makes the
// operation safe to repeat.
func (s *Store) UpdateCursor(ctx context.Context, sourceID string, c hub.Cursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO harvest_cursors (source_id, from_event_id, page_token, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			from_event_id = excluded.from_event_id,
			page_token = excluded.page_token,
			updated_at = excluded.updated_at
		WHERE excluded.from_event_id >= harvest_cursors.from_event_id
	`,
		sourceID,
		int64(c.FromEventID),
		c.PageToken,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("update cursor: %w", err)
	}
	return nil
}

// marshalMentions serializes the mentions list to JSON TEXT for storage.
// A nil list is stored as an empty array, not null.
func marshalMentions(mentions []uint64) (string, error) {
	if mentions == nil {
		mentions = []uint64{}
	}
	data, err := json.Marshal(mentions)
	if err != nil {
		return "", fmt.Errorf("marshal mentions: %w", err)
	}
	return string(data), nil
}
