package hub

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload reports a page body that is not parseable JSON.
// Everything below the top level is recovered field by field and never
// surfaces as an error.
var ErrMalformedPayload = errors.New("malformed payload")

// Envelope field spellings for the continuation token. The camel-case
// spelling is preferred when both are present.
const (
	pageTokenField       = "nextPageToken"
	pageTokenFieldLegacy = "next_page_token"
)

// ParsePage normalizes one raw page of hub events into actions plus
// pagination metadata.
//
// Every raw event counts toward ReceivedCount, but only merge-message
// events are considered; other kinds are skipped silently. Within a
// recognized event, the embedded message and each entry of the
// already-removed side list independently yield up to two actions (an
// upsert for a cast add, a delete for a cast-remove body).
//
// The returned cursor addresses the first unseen sequence number: one past
// the highest event ID that produced an action, or 0 when the page produced
// none. HasMore is true only when the envelope carries a non-empty
// continuation token AND the page produced at least one action — a token
// with zero actions is a dead end, not more data.
func ParsePage(raw []byte) (Page, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var envelope any
	if err := dec.Decode(&envelope); err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	env := asMap(envelope)
	events := asSlice(env["events"])

	page := Page{ReceivedCount: len(events)}
	var maxEventID uint64

	for _, raw := range events {
		ev := asMap(raw)
		if ev == nil || asString(ev["type"]) != EventTypeMergeMessage {
			continue
		}

		eventID := coerceUint(ev["id"], 0)
		block := coerceUint(ev["blockNumber"], 0)

		body := asMap(ev["mergeMessageBody"])
		if body == nil {
			continue
		}

		messages := []any{body["message"]}
		messages = append(messages, asSlice(body["deletedMessages"])...)

		produced := false
		for _, msg := range messages {
			actions := extractActions(msg, eventID, block)
			if len(actions) > 0 {
				produced = true
				page.Actions = append(page.Actions, actions...)
			}
		}
		if produced && eventID > maxEventID {
			maxEventID = eventID
		}
	}

	if len(page.Actions) > 0 {
		page.Cursor.FromEventID = maxEventID + 1
	}
	page.Cursor.PageToken = pageToken(env)
	page.HasMore = page.Cursor.PageToken != "" && len(page.Actions) > 0

	return page, nil
}

// extractActions applies the two extraction rules to one embedded message:
// a cast add whose hash canonicalizes yields an upsert, and a cast-remove
// body whose target hash canonicalizes yields a delete. A single message
// can yield zero, one, or both.
func extractActions(msg any, eventID, block uint64) []Action {
	m := asMap(msg)
	if m == nil {
		return nil
	}
	data := asMap(m["data"])
	if data == nil {
		return nil
	}

	var out []Action

	if asString(data["type"]) == messageTypeCastAdd {
		if hash, ok := NormalizeHash(m["hash"]); ok {
			castBody := asMap(data["castAddBody"]) // nil map reads are safe
			up := UpsertCast{
				Hash:        hash,
				FID:         coerceUint(data["fid"], 0),
				Timestamp:   coerceUint(data["timestamp"], 0),
				Text:        coerceText(castBody["text"]),
				Mentions:    coerceUintSlice(castBody["mentions"]),
				Source:      SourceMerge,
				EventID:     eventID,
				BlockNumber: block,
			}
			if parent := asMap(castBody["parentCastId"]); parent != nil {
				if ph, ok := NormalizeHash(parent["hash"]); ok {
					up.ParentHash = ph
					up.ParentFID = coerceUint(parent["fid"], 0)
				}
			}
			out = append(out, up)
		}
	}

	if removeBody := asMap(data["castRemoveBody"]); removeBody != nil {
		if hash, ok := NormalizeHash(removeBody["targetHash"]); ok {
			out = append(out, DeleteCast{
				Hash:        hash,
				EventID:     eventID,
				Source:      SourceMerge,
				BlockNumber: block,
				Timestamp:   coerceUint(data["timestamp"], 0),
			})
		}
	}

	return out
}

// pageToken extracts the continuation token, preferring the camel-case
// spelling over the snake-case one.
func pageToken(env map[string]any) string {
	if tok := asString(env[pageTokenField]); tok != "" {
		return tok
	}
	return asString(env[pageTokenFieldLegacy])
}
