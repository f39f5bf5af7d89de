package poller

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ael-dev3/Hypercast/internal/hub"
)

// State is the durable poller position, one JSON object on disk. The event
// ID is string-encoded so the file survives consumers that round-trip JSON
// numbers through float64.
type State struct {
	FromEventID string `json:"fromEventId"`
	PageToken   string `json:"pageToken,omitempty"`
}

// Cursor converts the persisted state to a harvest cursor. A missing or
// unparseable FromEventID maps to zero.
func (s State) Cursor() hub.Cursor {
	id, err := strconv.ParseUint(s.FromEventID, 10, 64)
	if err != nil {
		id = 0
	}
	return hub.Cursor{FromEventID: id, PageToken: s.PageToken}
}

// StateFromCursor converts a harvest cursor back to its durable form.
func StateFromCursor(c hub.Cursor) State {
	return State{
		FromEventID: strconv.FormatUint(c.FromEventID, 10),
		PageToken:   c.PageToken,
	}
}

// LoadState reads the durable state at path. A missing file, unreadable
// file, or malformed JSON all mean "start from zero"; none of them is an
// error.
func LoadState(path string) State {
	zero := State{FromEventID: "0"}
	if path == "" {
		return zero
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return zero
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return zero
	}
	if s.FromEventID == "" {
		s.FromEventID = "0"
	}
	return s
}

// SaveState writes the durable state atomically (temp file plus rename) so
// a crash mid-write never leaves a truncated file behind.
func SaveState(path string, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
