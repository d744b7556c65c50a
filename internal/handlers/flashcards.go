package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"studydeck/internal/service"
	"studydeck/internal/storage"
)

// FlashcardHandler handles HTTP requests for flashcards.
type FlashcardHandler struct {
	flashcards service.FlashcardService
}

// NewFlashcardHandler creates a new FlashcardHandler.
func NewFlashcardHandler(flashcards service.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{flashcards: flashcards}
}

// FlashcardResponse represents a single flashcard.
//
// swagger:model FlashcardResponse
type FlashcardResponse struct {
	ID           string  `json:"id"`
	Question     string  `json:"question"`
	Answer       string  `json:"answer"`
	Difficulty   string  `json:"difficulty"`
	LastReviewed *string `json:"lastReviewed"`
	ReviewCount  int     `json:"reviewCount"`
	IsStarred    bool    `json:"isStarred"`
}

// FlashcardSetResponse represents a flashcard set with its cards.
//
// swagger:model FlashcardSetResponse
type FlashcardSetResponse struct {
	ID         string              `json:"id"`
	DocumentID string              `json:"documentId"`
	CreatedAt  string              `json:"createdAt"`
	Cards      []FlashcardResponse `json:"cards"`
}

func toFlashcardResponse(c *storage.FlashcardRecord) FlashcardResponse {
	return FlashcardResponse{
		ID:           c.ID,
		Question:     c.Question,
		Answer:       c.Answer,
		Difficulty:   c.Difficulty,
		LastReviewed: formatOptionalTime(c.LastReviewed),
		ReviewCount:  c.ReviewCount,
		IsStarred:    c.IsStarred,
	}
}

func toFlashcardSetResponse(set storage.FlashcardSetRecord) FlashcardSetResponse {
	cards := make([]FlashcardResponse, len(set.Cards))
	for i := range set.Cards {
		cards[i] = toFlashcardResponse(&set.Cards[i])
	}
	return FlashcardSetResponse{
		ID:         set.ID,
		DocumentID: set.DocumentID,
		CreatedAt:  formatTime(set.CreatedAt),
		Cards:      cards,
	}
}

func toFlashcardSetResponses(sets []storage.FlashcardSetRecord) []FlashcardSetResponse {
	resp := make([]FlashcardSetResponse, len(sets))
	for i, set := range sets {
		resp[i] = toFlashcardSetResponse(set)
	}
	return resp
}

// ListSets returns every flashcard set.
func (h *FlashcardHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sets, err := h.flashcards.ListSets(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list flashcard sets")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toFlashcardSetResponses(sets))
}

// ListByDocument returns the flashcard sets of a document.
func (h *FlashcardHandler) ListByDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sets, err := h.flashcards.ListByDocument(ctx, chi.URLParam(r, "documentId"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list flashcard sets")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toFlashcardSetResponses(sets))
}

// Review records a review of a card.
func (h *FlashcardHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	card, err := h.flashcards.Review(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to review flashcard")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toFlashcardResponse(card))
}

// ToggleStar flips the starred flag of a card.
func (h *FlashcardHandler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	card, err := h.flashcards.ToggleStar(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to star flashcard")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toFlashcardResponse(card))
}

// DeleteSet removes a flashcard set.
func (h *FlashcardHandler) DeleteSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.flashcards.DeleteSet(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete flashcard set")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
