package handlers

import (
	"net/http"

	"studydeck/internal/service"
)

// ProgressHandler handles HTTP requests for the progress dashboard.
type ProgressHandler struct {
	progress service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progress service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// OverviewResponse holds the dashboard totals.
type OverviewResponse struct {
	TotalDocuments     int `json:"totalDocuments"`
	TotalFlashcardSets int `json:"totalFlashcardSets"`
	TotalFlashcards    int `json:"totalFlashcards"`
	ReviewedFlashcards int `json:"reviewedFlashcards"`
	StarredFlashcards  int `json:"starredFlashcards"`
	TotalQuizzes       int `json:"totalQuizzes"`
	CompletedQuizzes   int `json:"completedQuizzes"`
	AverageScore       int `json:"averageScore"`
}

// RecentQuizResponse is a recent quiz on the dashboard.
type RecentQuizResponse struct {
	ID          string  `json:"id"`
	DocumentID  string  `json:"documentId"`
	Title       string  `json:"title"`
	Score       int     `json:"score"`
	CompletedAt *string `json:"completedAt"`
	CreatedAt   string  `json:"createdAt"`
}

// DashboardResponse is the progress dashboard.
//
// swagger:model DashboardResponse
type DashboardResponse struct {
	Overview        OverviewResponse     `json:"overview"`
	RecentDocuments []DocumentResponse   `json:"recentDocuments"`
	RecentQuizzes   []RecentQuizResponse `json:"recentQuizzes"`
}

// Dashboard returns totals and recent activity.
func (h *ProgressHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := h.progress.Dashboard(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load dashboard")
		return
	}

	docs := make([]DocumentResponse, len(d.RecentDocuments))
	for i := range d.RecentDocuments {
		docs[i] = toDocumentResponse(&d.RecentDocuments[i])
	}
	quizzes := make([]RecentQuizResponse, len(d.RecentQuizzes))
	for i, q := range d.RecentQuizzes {
		quizzes[i] = RecentQuizResponse{
			ID:          q.ID,
			DocumentID:  q.DocumentID,
			Title:       q.Title,
			Score:       q.Score,
			CompletedAt: formatOptionalTime(q.CompletedAt),
			CreatedAt:   formatTime(q.CreatedAt),
		}
	}

	writeJSON(ctx, w, http.StatusOK, DashboardResponse{
		Overview: OverviewResponse{
			TotalDocuments:     d.Totals.Documents,
			TotalFlashcardSets: d.Totals.FlashcardSets,
			TotalFlashcards:    d.Totals.Flashcards,
			ReviewedFlashcards: d.Totals.ReviewedFlashcards,
			StarredFlashcards:  d.Totals.StarredFlashcards,
			TotalQuizzes:       d.Totals.Quizzes,
			CompletedQuizzes:   d.Totals.CompletedQuizzes,
			AverageScore:       d.AverageScore,
		},
		RecentDocuments: docs,
		RecentQuizzes:   quizzes,
	})
}
