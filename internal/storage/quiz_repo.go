package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_quiz_store.go -package=mocks studydeck/internal/storage QuizStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyCompleted is returned when saving a result for a quiz that already has one.
var ErrAlreadyCompleted = errors.New("quiz already completed")

// QuizStore defines the interface for quiz storage operations.
type QuizStore interface {
	// Create inserts a new quiz. ID, TotalQuestions and CreatedAt are filled in.
	Create(ctx context.Context, quiz *QuizRecord) error
	// GetByID gets a quiz by ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*QuizRecord, error)
	// ListByDocument returns the quizzes of a document, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]QuizRecord, error)
	// ListRecent returns up to limit quizzes, newest first.
	ListRecent(ctx context.Context, limit int) ([]QuizRecord, error)
	// SaveResult records answers and score once. Returns ErrAlreadyCompleted on a second call.
	SaveResult(ctx context.Context, id string, answers []UserAnswer, score int, completedAt time.Time) error
	// Delete removes a quiz. Returns ErrNotFound if not found.
	Delete(ctx context.Context, id string) error
}

// QuizRepo provides methods for quiz operations.
// It implements the QuizStore interface.
type QuizRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewQuizRepo creates a new QuizRepo.
func NewQuizRepo(db *sql.DB) *QuizRepo {
	return &QuizRepo{db: db, now: time.Now}
}

const quizColumns = "id, document_id, title, questions, user_answers, score, total_questions, completed_at, created_at"

func scanQuiz(row rowScanner) (*QuizRecord, error) {
	var q QuizRecord
	var questions, answers, createdAt string
	var completedAt sql.NullString
	if err := row.Scan(&q.ID, &q.DocumentID, &q.Title, &questions, &answers, &q.Score,
		&q.TotalQuestions, &completedAt, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(questions), &q.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode quiz questions: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &q.UserAnswers); err != nil {
		return nil, fmt.Errorf("failed to decode quiz answers: %w", err)
	}
	if q.UserAnswers == nil {
		q.UserAnswers = []UserAnswer{}
	}

	var err error
	if q.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts a new quiz.
func (r *QuizRepo) Create(ctx context.Context, quiz *QuizRecord) error {
	if quiz.ID == "" {
		quiz.ID = uuid.New().String()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = r.now()
	}
	if quiz.Questions == nil {
		quiz.Questions = []QuizQuestion{}
	}
	if quiz.UserAnswers == nil {
		quiz.UserAnswers = []UserAnswer{}
	}
	quiz.TotalQuestions = len(quiz.Questions)

	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode quiz questions: %w", err)
	}
	answers, err := json.Marshal(quiz.UserAnswers)
	if err != nil {
		return fmt.Errorf("failed to encode quiz answers: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO quizzes ("+quizColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		quiz.ID, quiz.DocumentID, quiz.Title, string(questions), string(answers), quiz.Score,
		quiz.TotalQuestions, formatNullTime(quiz.CompletedAt), formatTime(quiz.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert quiz: %w", err)
	}
	return nil
}

// GetByID gets a quiz by ID. Returns ErrNotFound if not found.
func (r *QuizRepo) GetByID(ctx context.Context, id string) (*QuizRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+quizColumns+" FROM quizzes WHERE id = ?", id)
	quiz, err := scanQuiz(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz: %w", err)
	}
	return quiz, nil
}

// ListByDocument returns the quizzes of a document, newest first.
func (r *QuizRepo) ListByDocument(ctx context.Context, documentID string) ([]QuizRecord, error) {
	return r.list(ctx,
		"SELECT "+quizColumns+" FROM quizzes WHERE document_id = ? ORDER BY created_at DESC",
		documentID,
	)
}

// ListRecent returns up to limit quizzes, newest first.
func (r *QuizRepo) ListRecent(ctx context.Context, limit int) ([]QuizRecord, error) {
	return r.list(ctx, "SELECT "+quizColumns+" FROM quizzes ORDER BY created_at DESC LIMIT ?", limit)
}

func (r *QuizRepo) list(ctx context.Context, query string, args ...any) ([]QuizRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quizzes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	quizzes := []QuizRecord{}
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quizzes = append(quizzes, *quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return quizzes, nil
}

// SaveResult records answers and score for a quiz that has not been completed yet.
func (r *QuizRepo) SaveResult(ctx context.Context, id string, answers []UserAnswer, score int, completedAt time.Time) error {
	if answers == nil {
		answers = []UserAnswer{}
	}
	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode quiz answers: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE quizzes SET user_answers = ?, score = ?, completed_at = ? WHERE id = ? AND completed_at IS NULL",
		string(encoded), score, formatTime(completedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to save quiz result: %w", err)
	}

	if err := requireAffected(res); err != ErrNotFound {
		return err
	}
	// Nothing updated: either missing or already completed.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyCompleted
}

// Delete removes a quiz.
func (r *QuizRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM quizzes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return requireAffected(res)
}
