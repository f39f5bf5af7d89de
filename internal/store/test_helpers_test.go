package store

import (
	"path/filepath"
	"testing"

	"github.com/ael-dev3/Hypercast/internal/hub"
)

// createTestStore creates a fresh on-disk store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestUpsert creates an upsert action with minimal required fields.
func createTestUpsert(hash string, fid, eventID uint64) hub.UpsertCast {
	return hub.UpsertCast{
		Hash:      hash,
		FID:       fid,
		Timestamp: eventID, // distinct per event, keeps ordering obvious
		Text:      "hello",
		Mentions:  []uint64{},
		Source:    hub.SourceMerge,
		EventID:   eventID,
	}
}

func createTestDelete(hash string, eventID uint64) hub.DeleteCast {
	return hub.DeleteCast{
		Hash:    hash,
		EventID: eventID,
		Source:  hub.SourceMerge,
	}
}
