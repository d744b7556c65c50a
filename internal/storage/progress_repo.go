package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_progress_store.go -package=mocks studydeck/internal/storage ProgressStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ProgressStore aggregates study activity across all documents.
type ProgressStore interface {
	Totals(ctx context.Context) (Totals, error)
}

// ProgressRepo implements ProgressStore.
type ProgressRepo struct {
	db *sql.DB
}

// NewProgressRepo creates a new ProgressRepo.
func NewProgressRepo(db *sql.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// Totals counts documents, flashcards and quizzes. AverageScore is the mean
// score of completed quizzes, 0 when none are completed.
func (r *ProgressRepo) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM documents),
		(SELECT COUNT(*) FROM flashcard_sets),
		(SELECT COUNT(*) FROM flashcards),
		(SELECT COUNT(*) FROM flashcards WHERE review_count > 0),
		(SELECT COUNT(*) FROM flashcards WHERE is_starred = 1),
		(SELECT COUNT(*) FROM quizzes),
		(SELECT COUNT(*) FROM quizzes WHERE completed_at IS NOT NULL),
		(SELECT AVG(score) FROM quizzes WHERE completed_at IS NOT NULL)`,
	).Scan(&t.Documents, &t.FlashcardSets, &t.Flashcards, &t.ReviewedFlashcards,
		&t.StarredFlashcards, &t.Quizzes, &t.CompletedQuizzes, &avg)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to query totals: %w", err)
	}
	if avg.Valid {
		t.AverageScore = avg.Float64
	}
	return t, nil
}
