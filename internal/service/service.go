package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks studydeck/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_services.go -package=mocks studydeck/internal/service DocumentService,StudyService,FlashcardService,QuizService,ProgressService

import (
	"context"
	"database/sql"

	"studydeck/internal/storage"
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// Chat sends a message to the LLM and returns the reply.
	Chat(ctx context.Context, message string) (string, error)
}

// Stores groups the repositories the services read and write.
type Stores struct {
	Documents  storage.DocumentStore
	Chunks     storage.ChunkStore
	Flashcards storage.FlashcardStore
	Quizzes    storage.QuizStore
	Chats      storage.ChatStore
	Progress   storage.ProgressStore
}

// NewStores creates SQLite-backed stores on db.
func NewStores(db *sql.DB) Stores {
	return Stores{
		Documents:  storage.NewDocumentRepo(db),
		Chunks:     storage.NewChunkRepo(db),
		Flashcards: storage.NewFlashcardRepo(db),
		Quizzes:    storage.NewQuizRepo(db),
		Chats:      storage.NewChatRepo(db),
		Progress:   storage.NewProgressRepo(db),
	}
}
