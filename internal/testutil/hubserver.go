// Package testutil provides shared test helpers.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// ScriptedHub is an httptest-backed hub that serves a fixed sequence of
// responses, one per request, and records the query parameters it saw.
// After the script is exhausted it serves empty pages.
//
// Pages within one harvest are fetched strictly sequentially, so the
// scripted order is the page order.
type ScriptedHub struct {
	mu        sync.Mutex
	responses []scriptedResponse
	served    int
	requests  []url.Values

	srv *httptest.Server
}

type scriptedResponse struct {
	status int
	body   string
}

// NewScriptedHub creates a hub scripted with the given page bodies, each
// served with status 200.
func NewScriptedHub(pages ...string) *ScriptedHub {
	h := &ScriptedHub{}
	for _, p := range pages {
		h.AddPage(p)
	}
	h.srv = httptest.NewServer(http.HandlerFunc(h.handle))
	return h
}

// AddPage appends a 200 response to the script.
func (h *ScriptedHub) AddPage(body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, scriptedResponse{status: http.StatusOK, body: body})
}

// AddError appends a non-success response to the script.
func (h *ScriptedHub) AddError(status int, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, scriptedResponse{status: status, body: body})
}

// URL returns the hub's base URL.
func (h *ScriptedHub) URL() string {
	return h.srv.URL
}

// Requests returns the query parameters of every request served so far.
func (h *ScriptedHub) Requests() []url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]url.Values, len(h.requests))
	copy(out, h.requests)
	return out
}

// Close shuts the underlying server down.
func (h *ScriptedHub) Close() {
	h.srv.Close()
}

func (h *ScriptedHub) handle(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.requests = append(h.requests, r.URL.Query())
	resp := scriptedResponse{status: http.StatusOK, body: `{"events": []}`}
	if h.served < len(h.responses) {
		resp = h.responses[h.served]
	}
	h.served++
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}
