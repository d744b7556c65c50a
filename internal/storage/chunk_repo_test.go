package storage

import (
	"context"
	"errors"
	"testing"
)

func TestChunkRepo_ListByDocument(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	doc := createTestDocument(t, docs, "ordered")
	// Inserted out of order on purpose
	chunks := []ChunkRecord{
		{ChunkIndex: 2, Content: "third"},
		{ChunkIndex: 0, Content: "first"},
		{ChunkIndex: 1, Content: "second"},
	}
	if err := docs.MarkReady(ctx, doc.ID, "first second third", chunks); err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}

	got, err := repo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("ListByDocument() returned %d chunks, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.Content != want[i] || c.ChunkIndex != i || c.DocumentID != doc.ID {
			t.Errorf("chunk %d = %+v", i, c)
		}
	}

	n, err := repo.CountByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("CountByDocument() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountByDocument() = %d, want 3", n)
	}
}

func TestChunkRepo_ListByDocument_Empty(t *testing.T) {
	repo := NewChunkRepo(newTestDB(t))

	got, err := repo.ListByDocument(context.Background(), "no-such-document")
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListByDocument() = %v, want empty slice", got)
	}
}

func TestChunkRepo_GetByID(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	doc := createTestDocument(t, docs, "lookup")
	chunks := []ChunkRecord{{ID: "chunk-1", ChunkIndex: 0, Content: "Chunk text"}}
	if err := docs.MarkReady(ctx, doc.ID, "Chunk text", chunks); err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr error
	}{
		{name: "existing chunk", id: "chunk-1", want: "Chunk text"},
		{name: "missing chunk", id: "chunk-404", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByID(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetByID() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetByID() error = %v", err)
			}
			if got.Content != tt.want {
				t.Errorf("GetByID() content = %q, want %q", got.Content, tt.want)
			}
		})
	}
}

func TestChunkRepo_ForeignKey(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Exec("INSERT INTO chunks (id, document_id, chunk_index, content) VALUES ('c', 'missing-doc', 0, 'x')")
	if err == nil {
		t.Error("inserting a chunk for a missing document should violate the foreign key")
	}
}
