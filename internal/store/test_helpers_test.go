package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/nilvalls/TTHTauTau-Roast/internal/testutil"
)

// createTestStore creates a store in a temp dir with deterministic IDs and
// timestamps.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDGenerator()),
		WithClock(testutil.NewDeterministicClock().Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
