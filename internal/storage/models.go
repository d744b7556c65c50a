package storage

import "time"

// Document statuses.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DocumentRecord represents an uploaded document in the database.
type DocumentRecord struct {
	ID            string // UUID
	Title         string
	FileName      string // Original file name as uploaded
	FilePath      string // Location of the stored file
	FileSize      int64
	FileHash      string // SHA256 hex string of file content
	ExtractedText string
	Status        string // processing, ready or failed
	ErrorMessage  string // Set when Status is failed
	UploadDate    time.Time
	LastAccessed  time.Time
}

// DocumentSummary is a document listing entry with its study material counts.
type DocumentSummary struct {
	DocumentRecord
	FlashcardCount int
	QuizCount      int
}

// ChunkRecord represents a chunk of a document's extracted text.
type ChunkRecord struct {
	ID         string // UUID
	DocumentID string // Foreign key to documents.id
	ChunkIndex int    // Index within document (starts at 0)
	PageNumber int
	Content    string
}

// FlashcardSetRecord is a generated batch of flashcards for one document.
type FlashcardSetRecord struct {
	ID         string
	DocumentID string
	CreatedAt  time.Time
	Cards      []FlashcardRecord
}

// FlashcardRecord is a single flashcard within a set.
type FlashcardRecord struct {
	ID           string
	SetID        string
	Position     int
	Question     string
	Answer       string
	Difficulty   string
	LastReviewed *time.Time
	ReviewCount  int
	IsStarred    bool
}

// QuizQuestion is a stored multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

// UserAnswer is a recorded answer to one quiz question.
type UserAnswer struct {
	QuestionIndex  int       `json:"question_index"`
	SelectedAnswer string    `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// QuizRecord represents a generated quiz and, once submitted, its result.
type QuizRecord struct {
	ID             string
	DocumentID     string
	Title          string
	Questions      []QuizQuestion // Stored as JSON
	UserAnswers    []UserAnswer   // Stored as JSON
	Score          int            // Percentage 0-100
	TotalQuestions int
	CompletedAt    *time.Time // Nil until submitted
	CreatedAt      time.Time
}

// ChatMessageRecord is one turn of the chat history of a document.
type ChatMessageRecord struct {
	ID             string
	DocumentID     string
	Role           string
	Content        string
	RelevantChunks []int // Chunk indexes used to answer (assistant only)
	CreatedAt      time.Time
}

// Totals holds the aggregate counts shown on the progress dashboard.
type Totals struct {
	Documents          int
	FlashcardSets      int
	Flashcards         int
	ReviewedFlashcards int
	StarredFlashcards  int
	Quizzes            int
	CompletedQuizzes   int
	AverageScore       float64
}
