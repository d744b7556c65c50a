package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func createTestDocument(t *testing.T, repo *DocumentRepo, title string) *DocumentRecord {
	t.Helper()
	doc := &DocumentRecord{
		Title:    title,
		FileName: title + ".pdf",
		FilePath: "/uploads/" + title + ".pdf",
		FileSize: 1024,
		FileHash: "hash-" + title,
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return doc
}

func TestDocumentRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	doc := createTestDocument(t, repo, "biology")
	if doc.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if doc.Status != StatusProcessing {
		t.Errorf("Status = %q, want %q", doc.Status, StatusProcessing)
	}

	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "biology" || got.FileSize != 1024 || got.FileHash != "hash-biology" {
		t.Errorf("GetByID() = %+v", got)
	}
	if !got.UploadDate.Equal(doc.UploadDate) {
		t.Errorf("UploadDate = %v, want %v", got.UploadDate, doc.UploadDate)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_MarkReady(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	chunkRepo := NewChunkRepo(db)
	ctx := context.Background()

	doc := createTestDocument(t, repo, "physics")
	chunks := []ChunkRecord{
		{ChunkIndex: 0, Content: "first"},
		{ChunkIndex: 1, Content: "second"},
	}
	if err := repo.MarkReady(ctx, doc.ID, "first second", chunks); err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}
	if chunks[0].ID == "" || chunks[0].DocumentID != doc.ID {
		t.Errorf("MarkReady() should fill chunk IDs, got %+v", chunks[0])
	}

	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != StatusReady || got.ExtractedText != "first second" {
		t.Errorf("after MarkReady: status=%q text=%q", got.Status, got.ExtractedText)
	}

	// Re-processing replaces chunks rather than appending
	if err := repo.MarkReady(ctx, doc.ID, "only", []ChunkRecord{{ChunkIndex: 0, Content: "only"}}); err != nil {
		t.Fatalf("MarkReady() second call error = %v", err)
	}
	stored, err := chunkRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(stored) != 1 || stored[0].Content != "only" {
		t.Errorf("chunks after re-processing = %+v", stored)
	}

	if err := repo.MarkReady(ctx, "missing", "x", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkReady(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_MarkReady_RollsBackOnDuplicateIndex(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	doc := createTestDocument(t, repo, "chem")
	chunks := []ChunkRecord{
		{ChunkIndex: 0, Content: "a"},
		{ChunkIndex: 0, Content: "b"},
	}
	if err := repo.MarkReady(ctx, doc.ID, "a b", chunks); err == nil {
		t.Fatal("MarkReady() with duplicate chunk index should fail")
	}

	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != StatusProcessing {
		t.Errorf("status after failed MarkReady = %q, want %q", got.Status, StatusProcessing)
	}
}

func TestDocumentRepo_MarkFailed(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	doc := createTestDocument(t, repo, "history")
	if err := repo.MarkFailed(ctx, doc.ID, "no text extracted"); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}
	got, _ := repo.GetByID(ctx, doc.ID)
	if got.Status != StatusFailed || got.ErrorMessage != "no text extracted" {
		t.Errorf("after MarkFailed: %+v", got)
	}
}

func TestDocumentRepo_ListAndRecent(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	older := createTestDocument(t, repo, "older")
	newer := createTestDocument(t, repo, "newer")

	if _, err := db.Exec("INSERT INTO flashcard_sets (id, document_id, created_at) VALUES ('s1', ?, ?)",
		older.ID, formatTime(clock)); err != nil {
		t.Fatalf("insert flashcard set: %v", err)
	}

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != newer.ID {
		t.Fatalf("List() order = %v, want newest first", docs)
	}
	if docs[1].FlashcardCount != 1 || docs[1].QuizCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", docs[1].FlashcardCount, docs[1].QuizCount)
	}

	if err := repo.Touch(ctx, older.ID); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	recent, err := repo.ListRecent(ctx, 1)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(recent) != 1 || recent[0].ID != older.ID {
		t.Errorf("ListRecent() = %v, want the touched document", recent)
	}

	if err := repo.Touch(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Touch(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_List_Empty(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	docs, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("List() = %v, want empty slice", docs)
	}
}

func TestDocumentRepo_FindByFileHash(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	doc := createTestDocument(t, repo, "notes")

	got, err := repo.FindByFileHash(ctx, "notes.pdf", "hash-notes")
	if err != nil {
		t.Fatalf("FindByFileHash() error = %v", err)
	}
	if got.ID != doc.ID {
		t.Errorf("FindByFileHash() ID = %s, want %s", got.ID, doc.ID)
	}

	if _, err := repo.FindByFileHash(ctx, "notes.pdf", "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByFileHash(other hash) error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	doc := createTestDocument(t, repo, "cascade")
	if err := repo.MarkReady(ctx, doc.ID, "text", []ChunkRecord{{ChunkIndex: 0, Content: "text"}}); err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}
	if err := NewQuizRepo(db).Create(ctx, &QuizRecord{DocumentID: doc.ID, Title: "q"}); err != nil {
		t.Fatalf("Create quiz error = %v", err)
	}
	if err := NewChatRepo(db).Append(ctx, &ChatMessageRecord{DocumentID: doc.ID, Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := repo.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	for _, table := range []string{"chunks", "quizzes", "chat_messages"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s rows after delete = %d, want 0", table, n)
		}
	}

	if err := repo.Delete(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
