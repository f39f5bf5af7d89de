package hub

import (
	"net/url"
	"strconv"
	"strings"
)

// eventsPath is the hub HTTP API path for the event stream.
const eventsPath = "/v1/events"

// BuildEventsURL constructs the fully qualified events request URL for a
// cursor. Page size is floored at 1. A non-empty page token takes priority
// and suppresses the sequence-number parameter entirely; otherwise
// from_event_id addresses the next unseen sequence number.
func BuildEventsURL(endpoint string, c Cursor, pageSize int, reverse bool) string {
	if pageSize < 1 {
		pageSize = 1
	}

	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	if reverse {
		q.Set("reverse", "1")
	}
	if c.PageToken != "" {
		q.Set("pageToken", c.PageToken)
	} else {
		q.Set("from_event_id", strconv.FormatUint(c.FromEventID, 10))
	}

	return strings.TrimRight(endpoint, "/") + eventsPath + "?" + q.Encode()
}
