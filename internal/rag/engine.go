package rag

import (
	"context"
	"fmt"
	"strings"

	"studydeck/internal/contextutil"
)

// Generator produces a completion for a single prompt.
type Generator interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Engine grounds LLM generation in a document's text and chunks.
type Engine interface {
	// Answer ranks chunks against question and answers from the top ones.
	Answer(ctx context.Context, chunks []Chunk, question string) (Answer, error)
	// Explain ranks chunks against concept and explains it from the top ones.
	Explain(ctx context.Context, chunks []Chunk, concept string) (Explanation, error)
	// Summarize summarizes the document text.
	Summarize(ctx context.Context, text string) (string, error)
	// Flashcards generates up to count flashcards from the document text.
	Flashcards(ctx context.Context, text string, count int) ([]GeneratedCard, error)
	// Quiz generates up to count multiple-choice questions from the document text.
	Quiz(ctx context.Context, text string, count int) ([]GeneratedQuestion, error)
}

type ragEngine struct {
	generator Generator
	ranker    *Ranker
}

// NewEngine creates a new RAG engine.
func NewEngine(generator Generator, ranker *Ranker) Engine {
	return &ragEngine{
		generator: generator,
		ranker:    ranker,
	}
}

func (e *ragEngine) Answer(ctx context.Context, chunks []Chunk, question string) (Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	relevant := e.ranker.FindRelevantChunks(chunks, question, 0)
	logger.InfoContext(ctx, "chunks ranked for question",
		"total_chunks", len(chunks),
		"selected", ChunkIndexes(relevant),
	)

	chatContext := BuildChatContext(relevant)
	logger.DebugContext(ctx, "chat context built", "context_length", len(chatContext))

	text, err := e.generator.Chat(ctx, ChatPrompt(question, chatContext))
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return Answer{}, fmt.Errorf("failed to answer question: %w", err)
	}

	logger.InfoContext(ctx, "received LLM answer", "answer_length", len(text))
	return Answer{Text: text, Chunks: relevant}, nil
}

func (e *ragEngine) Explain(ctx context.Context, chunks []Chunk, concept string) (Explanation, error) {
	logger := contextutil.LoggerFromContext(ctx)

	relevant := e.ranker.FindRelevantChunks(chunks, concept, 0)
	excerpt := Truncate(JoinChunkContents(relevant), MaxExplainContextLength)
	logger.InfoContext(ctx, "chunks ranked for concept",
		"concept", concept,
		"selected", ChunkIndexes(relevant),
		"context_length", len(excerpt),
	)

	text, err := e.generator.Chat(ctx, ExplainPrompt(concept, excerpt))
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return Explanation{}, fmt.Errorf("failed to explain concept: %w", err)
	}

	return Explanation{Text: text, Context: excerpt, Chunks: relevant}, nil
}

func (e *ragEngine) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	summary, err := e.generator.Chat(ctx, SummaryPrompt(text))
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get LLM response", "error", err)
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	return summary, nil
}

func (e *ragEngine) Flashcards(ctx context.Context, text string, count int) ([]GeneratedCard, error) {
	if count <= 0 {
		count = DefaultFlashcardCount
	}
	if strings.TrimSpace(text) == "" {
		return []GeneratedCard{}, nil
	}

	output, err := e.generator.Chat(ctx, FlashcardPrompt(text, count))
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get LLM response", "error", err)
		return nil, fmt.Errorf("failed to generate flashcards: %w", err)
	}

	cards := ParseFlashcards(output, count)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "flashcards parsed",
		"requested", count,
		"parsed", len(cards),
	)
	return cards, nil
}

func (e *ragEngine) Quiz(ctx context.Context, text string, count int) ([]GeneratedQuestion, error) {
	if count <= 0 {
		count = DefaultQuizCount
	}
	if strings.TrimSpace(text) == "" {
		return []GeneratedQuestion{}, nil
	}

	output, err := e.generator.Chat(ctx, QuizPrompt(text, count))
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get LLM response", "error", err)
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}

	questions := ParseQuiz(output, count)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "quiz questions parsed",
		"requested", count,
		"parsed", len(questions),
	)
	return questions, nil
}
