// Package harvest performs bounded fetch-and-normalize round trips against
// a hub's event API and aggregates pages up to a page budget.
package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ael-dev3/Hypercast/internal/hub"
)

// maxErrBody bounds how much of a failing response body is kept for
// diagnostics.
const maxErrBody = 512

const defaultTimeout = 10 * time.Second

// Config describes one hub event source.
type Config struct {
	Endpoint string // base hub URL, e.g. http://hub.example:2281
	PageSize int
	Reverse  bool
	Timeout  time.Duration // per-page fetch budget; defaultTimeout when zero
	Client   *http.Client  // http.DefaultClient when nil
}

func (c Config) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

// TransportError reports a failed page fetch: a timeout, a connection
// failure, or a non-success HTTP status. Body carries at most maxErrBody
// bytes of the response for diagnostics.
type TransportError struct {
	URL    string
	Status int // 0 when the request never produced a response
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("hub returned %d for %s: %s", e.Status, e.URL, e.Body)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a multi-page harvest: the aggregated page plus
// how many pages were fetched.
type Result struct {
	Page  hub.Page
	Pages int
}

// FetchPage performs one bounded fetch-and-normalize round trip. The fetch
// is cancelled solely via its timeout; there is no mid-fetch external
// cancellation beyond ctx.
func FetchPage(ctx context.Context, cfg Config, cursor hub.Cursor) (hub.Page, error) {
	u := hub.BuildEventsURL(cfg.Endpoint, cursor, cfg.PageSize, cfg.Reverse)

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return hub.Page{}, &TransportError{URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cfg.client().Do(req)
	if err != nil {
		return hub.Page{}, &TransportError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return hub.Page{}, &TransportError{URL: u, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return hub.Page{}, &TransportError{
			URL:    u,
			Status: resp.StatusCode,
			Body:   truncateBody(body),
		}
	}

	return hub.ParsePage(body)
}

// FetchAllPages drives sequential page fetches from start until a
// termination condition: the page budget is reached, the page declared no
// further data, the returned cursor failed to advance past the cursor used
// to request it, or an empty page arrived without a continuation token.
//
// Actions accumulate across pages in receipt order and are not
// deduplicated; that is the reconciliation store's job. Any error aborts
// the whole aggregation — no partial cursor advance. On success the
// aggregate's cursor is the last cursor successfully used or produced,
// never silently advanced past unconfirmed data.
func FetchAllPages(ctx context.Context, cfg Config, start hub.Cursor, maxPages int) (Result, error) {
	if maxPages < 1 {
		maxPages = 1
	}

	agg := hub.Page{Cursor: start}
	cursor := start
	pages := 0

	for pages < maxPages {
		page, err := FetchPage(ctx, cfg, cursor)
		if err != nil {
			return Result{}, err
		}
		pages++

		agg.Actions = append(agg.Actions, page.Actions...)
		agg.ReceivedCount += page.ReceivedCount
		agg.HasMore = page.HasMore
		if produced(page.Cursor) {
			agg.Cursor = page.Cursor
		} else {
			agg.Cursor = cursor
		}

		if !page.HasMore {
			break
		}
		if !cursor.AdvancedBy(page.Cursor) {
			break
		}
		if page.ReceivedCount == 0 && page.Cursor.PageToken == "" {
			break
		}
		cursor = page.Cursor
	}

	return Result{Page: agg, Pages: pages}, nil
}

func produced(c hub.Cursor) bool {
	return c.FromEventID > 0 || c.PageToken != ""
}

func truncateBody(body []byte) string {
	if len(body) > maxErrBody {
		body = body[:maxErrBody]
	}
	return string(body)
}
