package service

import (
	"context"
	"math"

	"studydeck/internal/storage"
)

// recentLimit is how many recent documents and quizzes the dashboard shows.
const recentLimit = 5

// Dashboard summarizes study progress across all documents.
type Dashboard struct {
	Totals          storage.Totals
	AverageScore    int
	RecentDocuments []storage.DocumentRecord
	RecentQuizzes   []storage.QuizRecord
}

// ProgressService reports study progress.
type ProgressService interface {
	// Dashboard returns totals and recent activity.
	Dashboard(ctx context.Context) (Dashboard, error)
}

type progressService struct {
	stores Stores
}

// NewProgressService creates a new ProgressService.
func NewProgressService(stores Stores) ProgressService {
	return &progressService{stores: stores}
}

func (s *progressService) Dashboard(ctx context.Context) (Dashboard, error) {
	totals, err := s.stores.Progress.Totals(ctx)
	if err != nil {
		return Dashboard{}, WrapError(err, "failed to count progress")
	}
	docs, err := s.stores.Documents.ListRecent(ctx, recentLimit)
	if err != nil {
		return Dashboard{}, WrapError(err, "failed to list recent documents")
	}
	quizzes, err := s.stores.Quizzes.ListRecent(ctx, recentLimit)
	if err != nil {
		return Dashboard{}, WrapError(err, "failed to list recent quizzes")
	}

	return Dashboard{
		Totals:          totals,
		AverageScore:    int(math.Round(totals.AverageScore)),
		RecentDocuments: docs,
		RecentQuizzes:   quizzes,
	}, nil
}
