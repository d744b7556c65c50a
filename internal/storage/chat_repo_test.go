package storage

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestChatRepo_AppendAndList(t *testing.T) {
	db := newTestDB(t)
	doc := createTestDocument(t, NewDocumentRepo(db), "chat")
	repo := NewChatRepo(db)
	ctx := context.Background()

	// Same timestamp for both messages: ordering must follow insertion
	fixed := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	user := &ChatMessageRecord{DocumentID: doc.ID, Role: RoleUser, Content: "What is ATP?"}
	assistant := &ChatMessageRecord{DocumentID: doc.ID, Role: RoleAssistant, Content: "Energy.", RelevantChunks: []int{2, 0}}
	if err := repo.Append(ctx, user, assistant); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := repo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByDocument() = %d messages, want 2", len(got))
	}
	if got[0].Role != RoleUser || got[1].Role != RoleAssistant {
		t.Errorf("roles = %s,%s", got[0].Role, got[1].Role)
	}
	if !reflect.DeepEqual(got[1].RelevantChunks, []int{2, 0}) {
		t.Errorf("RelevantChunks = %v, want [2 0]", got[1].RelevantChunks)
	}
	if got[0].RelevantChunks == nil || len(got[0].RelevantChunks) != 0 {
		t.Errorf("user message RelevantChunks = %v, want empty", got[0].RelevantChunks)
	}
	if !got[0].CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, fixed)
	}
}

func TestChatRepo_ListByDocument_Empty(t *testing.T) {
	repo := NewChatRepo(newTestDB(t))

	got, err := repo.ListByDocument(context.Background(), "none")
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListByDocument() = %v, want empty slice", got)
	}
}

func TestProgressRepo_Totals(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	progress := NewProgressRepo(db)

	totals, err := progress.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if totals != (Totals{}) {
		t.Errorf("empty Totals() = %+v", totals)
	}

	doc := createTestDocument(t, NewDocumentRepo(db), "progress")
	flashcards := NewFlashcardRepo(db)
	set := createTestSet(t, flashcards, doc.ID, "q1", "q2", "q3")
	if _, err := flashcards.Review(ctx, set.Cards[0].ID, time.Now()); err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if _, err := flashcards.ToggleStar(ctx, set.Cards[1].ID); err != nil {
		t.Fatalf("ToggleStar() error = %v", err)
	}

	quizzes := NewQuizRepo(db)
	for i, score := range []int{80, 50, -1} {
		q := &QuizRecord{DocumentID: doc.ID, Title: "q", Questions: testQuestions()}
		if err := quizzes.Create(ctx, q); err != nil {
			t.Fatalf("Create() %d error = %v", i, err)
		}
		if score >= 0 {
			if err := quizzes.SaveResult(ctx, q.ID, nil, score, time.Now()); err != nil {
				t.Fatalf("SaveResult() error = %v", err)
			}
		}
	}

	totals, err = progress.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	want := Totals{
		Documents:          1,
		FlashcardSets:      1,
		Flashcards:         3,
		ReviewedFlashcards: 1,
		StarredFlashcards:  1,
		Quizzes:            3,
		CompletedQuizzes:   2,
		AverageScore:       65,
	}
	if totals != want {
		t.Errorf("Totals() = %+v, want %+v", totals, want)
	}
}
