package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"studydeck/internal/storage"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(_ context.Context, data []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.text != "" {
		return s.text, nil
	}
	return string(data), nil
}

type testPipeline struct {
	*Pipeline
	docs   *storage.DocumentRepo
	chunks *storage.ChunkRepo
	dir    string
}

func newTestPipeline(t *testing.T, extractor TextExtractor) *testPipeline {
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

	uploads := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(uploads, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	chunker, err := NewChunker(ChunkerConfig{ChunkSize: 5, Overlap: 1})
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	docs := storage.NewDocumentRepo(db)
	return &testPipeline{
		Pipeline: NewPipeline(docs, extractor, chunker, uploads),
		docs:     docs,
		chunks:   storage.NewChunkRepo(db),
		dir:      uploads,
	}
}

func TestPipeline_StoreAndProcess(t *testing.T) {
	p := newTestPipeline(t, stubExtractor{})
	ctx := context.Background()

	doc, err := p.Store(ctx, Upload{
		FileName: "../../etc/Lecture One.TXT",
		Data:     []byte("one two three four five six seven"),
	})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if doc.Title != "Lecture One" {
		t.Errorf("Title = %q, want %q", doc.Title, "Lecture One")
	}
	if doc.FileName != "Lecture One.TXT" {
		t.Errorf("FileName = %q, want base name only", doc.FileName)
	}
	if filepath.Dir(doc.FilePath) != p.dir || !strings.HasSuffix(doc.FilePath, ".txt") {
		t.Errorf("FilePath = %q, want file inside %q", doc.FilePath, p.dir)
	}
	if doc.Status != storage.StatusProcessing {
		t.Errorf("Status = %q, want processing", doc.Status)
	}

	if err := p.Process(ctx, doc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	stored, err := p.docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != storage.StatusReady {
		t.Errorf("Status = %q, want ready", stored.Status)
	}

	chunks, err := p.chunks.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	want := []string{"one two three four five", "five six seven"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %d, want %d", len(chunks), len(want))
	}
	for i, c := range chunks {
		if c.Content != want[i] || c.ChunkIndex != i || c.PageNumber != 0 {
			t.Errorf("chunk %d = %+v, want content %q", i, c, want[i])
		}
	}
}

func TestPipeline_Store_ExplicitTitle(t *testing.T) {
	p := newTestPipeline(t, stubExtractor{})

	doc, err := p.Store(context.Background(), Upload{Title: "  Biology 101 ", FileName: "b.pdf", Data: []byte("x")})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if doc.Title != "Biology 101" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.FileHash != HashContent([]byte("x")) || doc.FileSize != 1 {
		t.Errorf("hash/size = %s/%d", doc.FileHash, doc.FileSize)
	}
}

func TestPipeline_Process_Failures(t *testing.T) {
	tests := []struct {
		name      string
		extractor TextExtractor
		wantMsg   string
	}{
		{
			name:      "extraction error",
			extractor: stubExtractor{err: errors.New("pdf service down")},
			wantMsg:   "pdf service down",
		},
		{
			name:      "whitespace only",
			extractor: stubExtractor{text: "   \n\n  "},
			wantMsg:   "no chunks generated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, tt.extractor)
			ctx := context.Background()

			doc, err := p.Store(ctx, Upload{FileName: "x.pdf", Data: []byte("%PDF")})
			if err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			err = p.Process(ctx, doc)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("Process() error = %v, want containing %q", err, tt.wantMsg)
			}

			stored, _ := p.docs.GetByID(ctx, doc.ID)
			if stored.Status != storage.StatusFailed {
				t.Errorf("Status = %q, want failed", stored.Status)
			}
			if !strings.Contains(stored.ErrorMessage, tt.wantMsg) {
				t.Errorf("ErrorMessage = %q", stored.ErrorMessage)
			}
		})
	}
}

func TestPipeline_IngestFile_SkipsDuplicates(t *testing.T) {
	p := newTestPipeline(t, stubExtractor{})
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, []byte("alpha beta gamma"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	first, skipped, err := p.IngestFile(ctx, src)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if skipped || first.Status != storage.StatusReady {
		t.Fatalf("first IngestFile() skipped=%v status=%q", skipped, first.Status)
	}

	again, skipped, err := p.IngestFile(ctx, src)
	if err != nil {
		t.Fatalf("second IngestFile() error = %v", err)
	}
	if !skipped || again.ID != first.ID {
		t.Errorf("second IngestFile() skipped=%v id=%s, want skip of %s", skipped, again.ID, first.ID)
	}

	// Changed content is a new document
	if err := os.WriteFile(src, []byte("alpha beta gamma delta"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	changed, skipped, err := p.IngestFile(ctx, src)
	if err != nil {
		t.Fatalf("third IngestFile() error = %v", err)
	}
	if skipped || changed.ID == first.ID {
		t.Error("modified file should be ingested as a new document")
	}

	if _, _, err := p.IngestFile(ctx, filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("IngestFile() of a missing file should fail")
	}
}
