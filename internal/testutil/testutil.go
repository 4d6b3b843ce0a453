// Package testutil provides shared test helpers for setting up stores
// and snapshot providers.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/arnstad/mnemo/internal/snapshot"
	"github.com/arnstad/mnemo/internal/store"
)

// Logger returns a discard logger for tests.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestProvider creates a file snapshot provider in a temp directory
// that is automatically cleaned up.
func TestProvider(t *testing.T) *snapshot.File {
	t.Helper()
	provider, err := snapshot.NewFile(filepath.Join(t.TempDir(), "snapshot.json"))
	if err != nil {
		t.Fatal(err)
	}
	return provider
}

// TestStore creates a loaded Store backed by a temp file snapshot.
func TestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	st := store.New(TestProvider(t), Logger(), opts...)
	if err := st.Load(); err != nil {
		t.Fatal(err)
	}
	return st
}
