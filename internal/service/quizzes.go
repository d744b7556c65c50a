package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"studydeck/internal/contextutil"
	"studydeck/internal/storage"
)

// AnswerInput is one submitted answer.
type AnswerInput struct {
	QuestionIndex  int
	SelectedAnswer string
}

// QuestionResult pairs a question with the answer given to it.
type QuestionResult struct {
	Question       string
	Options        []string
	CorrectAnswer  string
	SelectedAnswer string // Empty when unanswered
	IsCorrect      bool
	Explanation    string
}

// QuizResult is the graded outcome of a completed quiz.
type QuizResult struct {
	Quiz    *storage.QuizRecord
	Correct int
	Details []QuestionResult
}

// QuizService manages generated quizzes and their submissions.
type QuizService interface {
	// ListByDocument returns the quizzes of a document, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]storage.QuizRecord, error)
	// Get returns a quiz.
	Get(ctx context.Context, id string) (*storage.QuizRecord, error)
	// Submit grades and records answers. A quiz can be submitted once.
	Submit(ctx context.Context, id string, answers []AnswerInput) (*storage.QuizRecord, error)
	// Results returns the graded outcome of a completed quiz.
	Results(ctx context.Context, id string) (*QuizResult, error)
	// Delete removes a quiz.
	Delete(ctx context.Context, id string) error
}

type quizService struct {
	stores Stores
	now    func() time.Time
}

// NewQuizService creates a new QuizService.
func NewQuizService(stores Stores) QuizService {
	return &quizService{stores: stores, now: time.Now}
}

func (s *quizService) ListByDocument(ctx context.Context, documentID string) ([]storage.QuizRecord, error) {
	if _, err := s.stores.Documents.GetByID(ctx, documentID); err != nil {
		return nil, lookupError(err, "document", documentID)
	}
	quizzes, err := s.stores.Quizzes.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, WrapError(err, "failed to list quizzes")
	}
	return quizzes, nil
}

func (s *quizService) Get(ctx context.Context, id string) (*storage.QuizRecord, error) {
	quiz, err := s.stores.Quizzes.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "quiz", id)
	}
	return quiz, nil
}

func (s *quizService) Submit(ctx context.Context, id string, answers []AnswerInput) (*storage.QuizRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(answers) == 0 {
		return nil, &ValidationError{Field: "answers", Message: "is required"}
	}
	quiz, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quiz.CompletedAt != nil {
		return nil, fmt.Errorf("quiz %s already completed: %w", id, ErrConflict)
	}

	now := s.now()
	graded, correct := gradeAnswers(quiz.Questions, answers, now)
	score := Score(correct, len(quiz.Questions))

	if err := s.stores.Quizzes.SaveResult(ctx, id, graded, score, now); err != nil {
		if errors.Is(err, storage.ErrAlreadyCompleted) {
			return nil, fmt.Errorf("quiz %s already completed: %w", id, ErrConflict)
		}
		return nil, lookupError(err, "quiz", id)
	}

	quiz.UserAnswers = graded
	quiz.Score = score
	quiz.CompletedAt = &now

	logger.InfoContext(ctx, "quiz submitted", "quiz_id", id, "correct", correct, "total", len(quiz.Questions), "score", score)
	return quiz, nil
}

func (s *quizService) Results(ctx context.Context, id string) (*QuizResult, error) {
	quiz, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quiz.CompletedAt == nil {
		return nil, fmt.Errorf("quiz %s has not been completed: %w", id, ErrConflict)
	}

	byIndex := make(map[int]storage.UserAnswer, len(quiz.UserAnswers))
	for _, a := range quiz.UserAnswers {
		byIndex[a.QuestionIndex] = a
	}

	result := &QuizResult{Quiz: quiz, Details: make([]QuestionResult, len(quiz.Questions))}
	for i, q := range quiz.Questions {
		answer := byIndex[i]
		result.Details[i] = QuestionResult{
			Question:       q.Question,
			Options:        q.Options,
			CorrectAnswer:  q.CorrectAnswer,
			SelectedAnswer: answer.SelectedAnswer,
			IsCorrect:      answer.IsCorrect,
			Explanation:    q.Explanation,
		}
		if answer.IsCorrect {
			result.Correct++
		}
	}
	return result, nil
}

func (s *quizService) Delete(ctx context.Context, id string) error {
	if err := s.stores.Quizzes.Delete(ctx, id); err != nil {
		return lookupError(err, "quiz", id)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "quiz deleted", "quiz_id", id)
	return nil
}

// gradeAnswers keeps the first answer per in-range question index and counts
// the correct ones.
func gradeAnswers(questions []storage.QuizQuestion, answers []AnswerInput, at time.Time) ([]storage.UserAnswer, int) {
	graded := make([]storage.UserAnswer, 0, len(answers))
	seen := make(map[int]bool, len(answers))
	correct := 0
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(questions) || seen[a.QuestionIndex] {
			continue
		}
		seen[a.QuestionIndex] = true
		isCorrect := a.SelectedAnswer == questions[a.QuestionIndex].CorrectAnswer
		if isCorrect {
			correct++
		}
		graded = append(graded, storage.UserAnswer{
			QuestionIndex:  a.QuestionIndex,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      isCorrect,
			AnsweredAt:     at,
		})
	}
	return graded, correct
}

// Score returns correct/total as a rounded percentage. An empty quiz scores 0.
func Score(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
