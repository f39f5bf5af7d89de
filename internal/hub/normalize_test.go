package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage_MalformedPayload(t *testing.T) {
	_, err := ParsePage([]byte("{not json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParsePage_NonObjectTopLevel(t *testing.T) {
	// Parseable but not an envelope: recovered as an empty page.
	page, err := ParsePage([]byte(`[1, 2, 3]`))
	require.NoError(t, err)
	assert.Empty(t, page.Actions)
	assert.Zero(t, page.ReceivedCount)
	assert.False(t, page.HasMore)
}

// One merge event carrying a cast add (sequence 10) plus a cast remove in
// its removed-messages side list yields exactly two actions and a cursor
// addressing sequence 11.
func TestParsePage_AddAndRemovedMessage(t *testing.T) {
	raw := []byte(`{
		"events": [
			{
				"type": "HUB_EVENT_TYPE_MERGE_MESSAGE",
				"id": 10,
				"mergeMessageBody": {
					"message": {
						"hash": "0xdeadbeef",
						"data": {
							"type": "MESSAGE_TYPE_CAST_ADD",
							"fid": 77,
							"timestamp": 1700000000,
							"castAddBody": {
								"text": "gm",
								"mentions": [3, 9]
							}
						}
					},
					"deletedMessages": [
						{
							"data": {
								"type": "MESSAGE_TYPE_CAST_REMOVE",
								"fid": 77,
								"timestamp": 1700000005,
								"castRemoveBody": {"targetHash": "0xabc"}
							}
						}
					]
				}
			}
		]
	}`)

	page, err := ParsePage(raw)
	require.NoError(t, err)

	require.Len(t, page.Actions, 2)
	assert.Equal(t, 1, page.ReceivedCount)
	assert.Equal(t, uint64(11), page.Cursor.FromEventID)
	assert.False(t, page.HasMore)

	up, ok := page.Actions[0].(UpsertCast)
	require.True(t, ok)
	assert.Equal(t, "0xdeadbeef", up.Hash)
	assert.Equal(t, uint64(77), up.FID)
	assert.Equal(t, uint64(1700000000), up.Timestamp)
	assert.Equal(t, "gm", up.Text)
	assert.Equal(t, []uint64{3, 9}, up.Mentions)
	assert.Equal(t, SourceMerge, up.Source)
	assert.Equal(t, uint64(10), up.EventID)

	del, ok := page.Actions[1].(DeleteCast)
	require.True(t, ok)
	assert.Equal(t, "0xabc", del.Hash)
	assert.Equal(t, uint64(10), del.EventID)
	assert.Equal(t, uint64(1700000005), del.Timestamp)
}

// A single embedded message may carry both a cast add and a cast-remove
// body, yielding two actions from one message.
func TestParsePage_BothRulesOneMessage(t *testing.T) {
	raw := []byte(`{
		"events": [
			{
				"type": "HUB_EVENT_TYPE_MERGE_MESSAGE",
				"id": 5,
				"mergeMessageBody": {
					"message": {
						"hash": "q83v",
						"data": {
							"type": "MESSAGE_TYPE_CAST_ADD",
							"fid": 1,
							"timestamp": 100,
							"castAddBody": {"text": "hi"},
							"castRemoveBody": {"targetHash": "3q2+7w=="}
						}
					}
				}
			}
		]
	}`)

	page, err := ParsePage(raw)
	require.NoError(t, err)
	require.Len(t, page.Actions, 2)

	up := page.Actions[0].(UpsertCast)
	assert.Equal(t, "0xabcdef", up.Hash, "base64 hash canonicalized")
	del := page.Actions[1].(DeleteCast)
	assert.Equal(t, "0xdeadbeef", del.Hash)
	assert.Equal(t, uint64(6), page.Cursor.FromEventID)
}

// Unrecognized events and unparsable nested messages count toward
// ReceivedCount but yield no actions.
func TestParsePage_UnrecognizedAndUnparsable(t *testing.T) {
	raw := []byte(`{
		"events": [
			{"type": "HUB_EVENT_TYPE_PRUNE_MESSAGE", "id": 3},
			{
				"type": "HUB_EVENT_TYPE_MERGE_MESSAGE",
				"id": 4,
				"mergeMessageBody": {"message": "not an object"}
			}
		]
	}`)

	page, err := ParsePage(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, page.ReceivedCount)
	assert.Empty(t, page.Actions)
	assert.Zero(t, page.Cursor.FromEventID)
	assert.False(t, page.HasMore)
}

// A cast add whose hash does not normalize is dropped, not fabricated.
func TestParsePage_UnrecoverableHashDropped(t *testing.T) {
	raw := []byte(`{
		"events": [
			{
				"type": "HUB_EVENT_TYPE_MERGE_MESSAGE",
				"id": 9,
				"mergeMessageBody": {
					"message": {
						"hash": "???",
						"data": {"type": "MESSAGE_TYPE_CAST_ADD", "fid": 2, "timestamp": 50}
					}
				}
			}
		]
	}`)

	page, err := ParsePage(raw)
	require.NoError(t, err)
	assert.Empty(t, page.Actions)
	assert.Zero(t, page.Cursor.FromEventID)
}

func TestParsePage_PageTokenSpellings(t *testing.T) {
	withActions := `{
		"events": [
			{
				"type": "HUB_EVENT_TYPE_MERGE_MESSAGE",
				"id": 1,
				"mergeMessageBody": {
					"message": {
						"hash": "0xaa",
						"data": {"type": "MESSAGE_TYPE_CAST_ADD", "fid": 1, "timestamp": 1}
					}
				}
			}
		],`

	t.Run("camel preferred over snake", func(t *testing.T) {
		page, err := ParsePage([]byte(withActions + `
			"nextPageToken": "camel",
			"next_page_token": "snake"
		}`))
		require.NoError(t, err)
		assert.Equal(t, "camel", page.Cursor.PageToken)
		assert.True(t, page.HasMore)
	})

	t.Run("snake accepted alone", func(t *testing.T) {
		page, err := ParsePage([]byte(withActions + `
			"next_page_token": "snake"
		}`))
		require.NoError(t, err)
		assert.Equal(t, "snake", page.Cursor.PageToken)
		assert.True(t, page.HasMore)
	})
}

// A continuation token on a page that produced no actions is a dead end,
// not a promise of more data.
func TestParsePage_TokenWithoutActionsIsDeadEnd(t *testing.T) {
	raw := []byte(`{
		"events": [{"type": "HUB_EVENT_TYPE_PRUNE_MESSAGE", "id": 2}],
		"nextPageToken": "tok"
	}`)

	page, err := ParsePage(raw)
	require.NoError(t, err)
	assert.Equal(t, "tok", page.Cursor.PageToken)
	assert.False(t, page.HasMore)
	assert.Zero(t, page.Cursor.FromEventID)
}

// Malformed numeric fields fall back instead of failing the page.
func TestParsePage_FieldFallbacks(t *testing.T) {
	raw := []byte(`{
		"events": [
			{
				"type": "HUB_EVENT_TYPE_MERGE_MESSAGE",
				"id": 20,
				"mergeMessageBody": {
					"message": {
						"hash": "0xbb",
						"data": {
							"type": "MESSAGE_TYPE_CAST_ADD",
							"fid": -44,
							"timestamp": "soon",
							"castAddBody": {"mentions": "nope", "text": 17}
						}
					}
				}
			}
		]
	}`)

	page, err := ParsePage(raw)
	require.NoError(t, err)
	require.Len(t, page.Actions, 1)

	up := page.Actions[0].(UpsertCast)
	assert.Zero(t, up.FID)
	assert.Zero(t, up.Timestamp)
	assert.Empty(t, up.Text)
	assert.Empty(t, up.Mentions)
	assert.Equal(t, uint64(21), page.Cursor.FromEventID)
}

func TestParsePage_ParentCast(t *testing.T) {
	raw := []byte(`{
		"events": [
			{
				"type": "HUB_EVENT_TYPE_MERGE_MESSAGE",
				"id": 30,
				"mergeMessageBody": {
					"message": {
						"hash": "0xcc",
						"data": {
							"type": "MESSAGE_TYPE_CAST_ADD",
							"fid": 5,
							"timestamp": 60,
							"castAddBody": {
								"text": "reply",
								"parentCastId": {"fid": 6, "hash": "0xDD"}
							}
						}
					}
				}
			}
		]
	}`)

	page, err := ParsePage(raw)
	require.NoError(t, err)
	require.Len(t, page.Actions, 1)

	up := page.Actions[0].(UpsertCast)
	assert.Equal(t, uint64(6), up.ParentFID)
	assert.Equal(t, "0xdd", up.ParentHash)
}
