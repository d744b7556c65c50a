package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"studydeck/internal/handlers"
	"studydeck/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Documents      service.DocumentService
	Study          service.StudyService
	Flashcards     service.FlashcardService
	Quizzes        service.QuizService
	Progress       service.ProgressService
	MaxUploadBytes int64
	HealthChecks   []handlers.HealthCheck
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Request ID first so the request logger can carry it
	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	// Add CORS middleware
	r.Use(CORS)

	documentHandler := handlers.NewDocumentHandler(deps.Documents, deps.MaxUploadBytes)
	aiHandler := handlers.NewAIHandler(deps.Study)
	flashcardHandler := handlers.NewFlashcardHandler(deps.Flashcards)
	quizHandler := handlers.NewQuizHandler(deps.Quizzes)
	progressHandler := handlers.NewProgressHandler(deps.Progress)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks...)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", documentHandler.Upload)
			r.Get("/", documentHandler.List)
			r.Get("/{id}", documentHandler.Get)
			r.Get("/{id}/chunks", documentHandler.Chunks)
			r.Get("/{id}/stats", documentHandler.Stats)
			r.Delete("/{id}", documentHandler.Delete)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/generate-flashcards", aiHandler.GenerateFlashcards)
			r.Post("/generate-quiz", aiHandler.GenerateQuiz)
			r.Post("/generate-summary", aiHandler.GenerateSummary)
			r.Post("/chat", aiHandler.Chat)
			r.Post("/explain-concept", aiHandler.ExplainConcept)
			r.Get("/chat-history/{documentId}", aiHandler.ChatHistory)
		})

		r.Route("/flashcards", func(r chi.Router) {
			r.Get("/", flashcardHandler.ListSets)
			r.Get("/document/{documentId}", flashcardHandler.ListByDocument)
			r.Post("/{id}/review", flashcardHandler.Review)
			r.Put("/{id}/star", flashcardHandler.ToggleStar)
			r.Delete("/{id}", flashcardHandler.DeleteSet)
		})

		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/document/{documentId}", quizHandler.ListByDocument)
			r.Get("/{id}", quizHandler.Get)
			r.Post("/{id}/submit", quizHandler.Submit)
			r.Get("/{id}/results", quizHandler.Results)
			r.Delete("/{id}", quizHandler.Delete)
		})

		r.Get("/progress/dashboard", progressHandler.Dashboard)
	})

	return r
}
