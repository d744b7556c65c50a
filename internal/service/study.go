package service

import (
	"context"
	"fmt"
	"strings"

	"studydeck/internal/contextutil"
	"studydeck/internal/markdown"
	"studydeck/internal/rag"
	"studydeck/internal/storage"
)

// MaxGenerateCount caps how many flashcards or questions one request may ask for.
const MaxGenerateCount = 50

// Summary is a generated document summary.
type Summary struct {
	DocumentID string
	Title      string
	Text       string
	HTML       string
}

// ChatReply is the answer to a question about a document.
type ChatReply struct {
	Question string
	Answer   string
	HTML     string
	// RelevantChunks holds the indexes of the chunks the answer was built from.
	RelevantChunks []int
}

// ConceptExplanation is the explanation of a concept found in a document.
type ConceptExplanation struct {
	Concept        string
	Explanation    string
	HTML           string
	Context        string
	RelevantChunks []int
}

// StudyService generates study material from ready documents with the LLM.
type StudyService interface {
	// GenerateFlashcards generates and stores a flashcard set. count 0 uses the default.
	GenerateFlashcards(ctx context.Context, documentID string, count int) (*storage.FlashcardSetRecord, error)
	// GenerateQuiz generates and stores a quiz. count 0 uses the default, an empty title is derived from the document.
	GenerateQuiz(ctx context.Context, documentID string, count int, title string) (*storage.QuizRecord, error)
	// Summarize summarizes a document.
	Summarize(ctx context.Context, documentID string) (Summary, error)
	// Chat answers a question from the most relevant chunks and records the exchange.
	Chat(ctx context.Context, documentID, question string) (ChatReply, error)
	// ExplainConcept explains a concept from the most relevant chunks.
	ExplainConcept(ctx context.Context, documentID, concept string) (ConceptExplanation, error)
	// ChatHistory returns the recorded chat of a document in order.
	ChatHistory(ctx context.Context, documentID string) ([]storage.ChatMessageRecord, error)
}

// studyService implements StudyService.
type studyService struct {
	stores   Stores
	engine   rag.Engine
	markdown *markdown.Converter
}

// NewStudyService creates a new StudyService.
func NewStudyService(stores Stores, llmClient LLMClient, ranker *rag.Ranker, md *markdown.Converter) StudyService {
	return &studyService{
		stores:   stores,
		engine:   rag.NewEngine(llmClient, ranker),
		markdown: md,
	}
}

func (s *studyService) GenerateFlashcards(ctx context.Context, documentID string, count int) (*storage.FlashcardSetRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	count, err := generateCount(count, rag.DefaultFlashcardCount)
	if err != nil {
		return nil, err
	}
	doc, err := s.readyDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	cards, err := s.engine.Flashcards(ctx, doc.ExtractedText, count)
	if err != nil {
		return nil, externalError(err, "llm call failed")
	}

	set := &storage.FlashcardSetRecord{
		DocumentID: doc.ID,
		Cards:      make([]storage.FlashcardRecord, len(cards)),
	}
	for i, c := range cards {
		set.Cards[i] = storage.FlashcardRecord{
			Question:   c.Question,
			Answer:     c.Answer,
			Difficulty: c.Difficulty,
		}
	}
	if err := s.stores.Flashcards.CreateSet(ctx, set); err != nil {
		return nil, WrapError(err, "failed to save flashcards")
	}

	logger.InfoContext(ctx, "flashcards generated", "document_id", doc.ID, "requested", count, "cards", len(set.Cards))
	return set, nil
}

func (s *studyService) GenerateQuiz(ctx context.Context, documentID string, count int, title string) (*storage.QuizRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	count, err := generateCount(count, rag.DefaultQuizCount)
	if err != nil {
		return nil, err
	}
	doc, err := s.readyDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	questions, err := s.engine.Quiz(ctx, doc.ExtractedText, count)
	if err != nil {
		return nil, externalError(err, "llm call failed")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = doc.Title + " - Quiz"
	}
	quiz := &storage.QuizRecord{
		DocumentID: doc.ID,
		Title:      title,
		Questions:  make([]storage.QuizQuestion, len(questions)),
	}
	for i, q := range questions {
		quiz.Questions[i] = storage.QuizQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Difficulty:    q.Difficulty,
		}
	}
	if err := s.stores.Quizzes.Create(ctx, quiz); err != nil {
		return nil, WrapError(err, "failed to save quiz")
	}

	logger.InfoContext(ctx, "quiz generated", "document_id", doc.ID, "quiz_id", quiz.ID, "questions", quiz.TotalQuestions)
	return quiz, nil
}

func (s *studyService) Summarize(ctx context.Context, documentID string) (Summary, error) {
	doc, err := s.readyDocument(ctx, documentID)
	if err != nil {
		return Summary{}, err
	}

	text, err := s.engine.Summarize(ctx, doc.ExtractedText)
	if err != nil {
		return Summary{}, externalError(err, "llm call failed")
	}

	return Summary{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Text:       text,
		HTML:       s.renderHTML(ctx, text),
	}, nil
}

func (s *studyService) Chat(ctx context.Context, documentID, question string) (ChatReply, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question = strings.TrimSpace(question)
	if question == "" {
		return ChatReply{}, &ValidationError{Field: "question", Message: "is required"}
	}
	doc, err := s.readyDocument(ctx, documentID)
	if err != nil {
		return ChatReply{}, err
	}
	chunks, err := s.rankableChunks(ctx, doc.ID)
	if err != nil {
		return ChatReply{}, err
	}

	answer, err := s.engine.Answer(ctx, chunks, question)
	if err != nil {
		return ChatReply{}, externalError(err, "llm call failed")
	}

	indexes := rag.ChunkIndexes(answer.Chunks)
	err = s.stores.Chats.Append(ctx,
		&storage.ChatMessageRecord{DocumentID: doc.ID, Role: storage.RoleUser, Content: question},
		&storage.ChatMessageRecord{DocumentID: doc.ID, Role: storage.RoleAssistant, Content: answer.Text, RelevantChunks: indexes},
	)
	if err != nil {
		return ChatReply{}, WrapError(err, "failed to save chat history")
	}

	logger.InfoContext(ctx, "chat request processed successfully",
		"document_id", doc.ID,
		"question_length", len(question),
		"reply_length", len(answer.Text),
		"relevant_chunks", indexes,
	)
	return ChatReply{
		Question:       question,
		Answer:         answer.Text,
		HTML:           s.renderHTML(ctx, answer.Text),
		RelevantChunks: indexes,
	}, nil
}

func (s *studyService) ExplainConcept(ctx context.Context, documentID, concept string) (ConceptExplanation, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return ConceptExplanation{}, &ValidationError{Field: "concept", Message: "is required"}
	}
	doc, err := s.readyDocument(ctx, documentID)
	if err != nil {
		return ConceptExplanation{}, err
	}
	chunks, err := s.rankableChunks(ctx, doc.ID)
	if err != nil {
		return ConceptExplanation{}, err
	}

	explanation, err := s.engine.Explain(ctx, chunks, concept)
	if err != nil {
		return ConceptExplanation{}, externalError(err, "llm call failed")
	}

	return ConceptExplanation{
		Concept:        concept,
		Explanation:    explanation.Text,
		HTML:           s.renderHTML(ctx, explanation.Text),
		Context:        explanation.Context,
		RelevantChunks: rag.ChunkIndexes(explanation.Chunks),
	}, nil
}

func (s *studyService) ChatHistory(ctx context.Context, documentID string) ([]storage.ChatMessageRecord, error) {
	if _, err := s.stores.Documents.GetByID(ctx, documentID); err != nil {
		return nil, lookupError(err, "document", documentID)
	}
	messages, err := s.stores.Chats.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, WrapError(err, "failed to list chat history")
	}
	if messages == nil {
		messages = []storage.ChatMessageRecord{}
	}
	return messages, nil
}

// readyDocument loads a document that has finished processing.
func (s *studyService) readyDocument(ctx context.Context, id string) (*storage.DocumentRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "documentId", Message: "is required"}
	}
	doc, err := s.stores.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "document", id)
	}
	if doc.Status != storage.StatusReady {
		return nil, fmt.Errorf("document %s is %s: %w", id, doc.Status, ErrNotReady)
	}
	return doc, nil
}

func (s *studyService) rankableChunks(ctx context.Context, documentID string) ([]rag.Chunk, error) {
	records, err := s.stores.Chunks.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, WrapError(err, "failed to list chunks")
	}
	chunks := make([]rag.Chunk, len(records))
	for i, r := range records {
		chunks[i] = rag.Chunk{
			ID:         r.ID,
			Content:    r.Content,
			ChunkIndex: r.ChunkIndex,
			PageNumber: r.PageNumber,
		}
	}
	return chunks, nil
}

// renderHTML renders LLM markdown. A rendering failure leaves HTML empty.
func (s *studyService) renderHTML(ctx context.Context, text string) string {
	html, err := s.markdown.ToHTML(text)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to render markdown", "error", err)
		return ""
	}
	return html
}

func generateCount(count, def int) (int, error) {
	switch {
	case count == 0:
		return def, nil
	case count < 0:
		return 0, &ValidationError{Field: "count", Message: "must be positive"}
	case count > MaxGenerateCount:
		return 0, &ValidationError{Field: "count", Message: fmt.Sprintf("must be at most %d", MaxGenerateCount)}
	}
	return count, nil
}
