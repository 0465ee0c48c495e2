package testutil

import (
	"context"
	"testing"

	"github.com/journey-copilot/journey-copilot/internal/llm"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

// SetupTestStore creates a test database and returns the store.
// Uses t.TempDir() for automatic cleanup on test completion.
func SetupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := tmpDir + "/test.db"

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// StaticGenerator replies with text to every request and remembers the last
// one it saw.
type StaticGenerator struct {
	Text string
	Err  error
	Last llm.Request
	N    int
}

func (g *StaticGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.Last = req
	g.N++
	if g.Err != nil {
		return "", &llm.GenerationError{Provider: "static", Err: g.Err}
	}
	return g.Text, nil
}

func (g *StaticGenerator) Name() string { return "static" }
