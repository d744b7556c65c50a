package service

import (
	"context"
	"time"

	"studydeck/internal/contextutil"
	"studydeck/internal/storage"
)

// FlashcardService manages generated flashcard sets.
type FlashcardService interface {
	// ListSets returns every flashcard set, newest first.
	ListSets(ctx context.Context) ([]storage.FlashcardSetRecord, error)
	// ListByDocument returns the flashcard sets of a document, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]storage.FlashcardSetRecord, error)
	// Review records one review of a card.
	Review(ctx context.Context, cardID string) (*storage.FlashcardRecord, error)
	// ToggleStar flips the starred flag of a card.
	ToggleStar(ctx context.Context, cardID string) (*storage.FlashcardRecord, error)
	// DeleteSet removes a flashcard set.
	DeleteSet(ctx context.Context, setID string) error
}

type flashcardService struct {
	stores Stores
	now    func() time.Time
}

// NewFlashcardService creates a new FlashcardService.
func NewFlashcardService(stores Stores) FlashcardService {
	return &flashcardService{stores: stores, now: time.Now}
}

func (s *flashcardService) ListSets(ctx context.Context) ([]storage.FlashcardSetRecord, error) {
	sets, err := s.stores.Flashcards.ListSets(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list flashcard sets")
	}
	return sets, nil
}

func (s *flashcardService) ListByDocument(ctx context.Context, documentID string) ([]storage.FlashcardSetRecord, error) {
	if _, err := s.stores.Documents.GetByID(ctx, documentID); err != nil {
		return nil, lookupError(err, "document", documentID)
	}
	sets, err := s.stores.Flashcards.ListSetsByDocument(ctx, documentID)
	if err != nil {
		return nil, WrapError(err, "failed to list flashcard sets")
	}
	return sets, nil
}

func (s *flashcardService) Review(ctx context.Context, cardID string) (*storage.FlashcardRecord, error) {
	card, err := s.stores.Flashcards.Review(ctx, cardID, s.now())
	if err != nil {
		return nil, lookupError(err, "flashcard", cardID)
	}
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "flashcard reviewed", "card_id", cardID, "review_count", card.ReviewCount)
	return card, nil
}

func (s *flashcardService) ToggleStar(ctx context.Context, cardID string) (*storage.FlashcardRecord, error) {
	card, err := s.stores.Flashcards.ToggleStar(ctx, cardID)
	if err != nil {
		return nil, lookupError(err, "flashcard", cardID)
	}
	return card, nil
}

func (s *flashcardService) DeleteSet(ctx context.Context, setID string) error {
	if err := s.stores.Flashcards.DeleteSet(ctx, setID); err != nil {
		return lookupError(err, "flashcard set", setID)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "flashcard set deleted", "set_id", setID)
	return nil
}
