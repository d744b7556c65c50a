package service_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"studydeck/internal/service"
	"studydeck/internal/storage"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testContext returns a context for testing.
// The default logger is already set to discard in init().
func testContext() context.Context {
	return context.Background()
}

type testEnv struct {
	stores service.Stores
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return &testEnv{stores: service.NewStores(db), dir: dir}
}

// seedDocument creates a ready document with one chunk per content.
func (e *testEnv) seedDocument(t *testing.T, title string, contents ...string) *storage.DocumentRecord {
	t.Helper()
	ctx := testContext()

	doc := &storage.DocumentRecord{
		Title:    title,
		FileName: title + ".txt",
		FilePath: filepath.Join(e.dir, title+".txt"),
		FileHash: "hash-" + title,
	}
	if err := e.stores.Documents.Create(ctx, doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	chunks := make([]storage.ChunkRecord, len(contents))
	for i, c := range contents {
		chunks[i] = storage.ChunkRecord{DocumentID: doc.ID, ChunkIndex: i, Content: c}
	}
	text := strings.Join(contents, "\n\n")
	if err := e.stores.Documents.MarkReady(ctx, doc.ID, text, chunks); err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}

	doc.Status = storage.StatusReady
	doc.ExtractedText = text
	return doc
}

// seedProcessing creates a document that has not finished processing.
func (e *testEnv) seedProcessing(t *testing.T, title string) *storage.DocumentRecord {
	t.Helper()
	doc := &storage.DocumentRecord{Title: title, FileName: title + ".pdf", FileHash: "hash-" + title}
	if err := e.stores.Documents.Create(testContext(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return doc
}
