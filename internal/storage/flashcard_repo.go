package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_flashcard_store.go -package=mocks studydeck/internal/storage FlashcardStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FlashcardStore defines the interface for flashcard storage operations.
type FlashcardStore interface {
	// CreateSet inserts a set and its cards. IDs, positions and CreatedAt are filled in.
	CreateSet(ctx context.Context, set *FlashcardSetRecord) error
	// ListSets returns every set with its cards, newest first.
	ListSets(ctx context.Context) ([]FlashcardSetRecord, error)
	// ListSetsByDocument returns the sets of one document with their cards, newest first.
	ListSetsByDocument(ctx context.Context, documentID string) ([]FlashcardSetRecord, error)
	// GetCard gets a card by ID. Returns ErrNotFound if not found.
	GetCard(ctx context.Context, cardID string) (*FlashcardRecord, error)
	// Review increments the review count and sets last_reviewed. Returns the updated card.
	Review(ctx context.Context, cardID string, at time.Time) (*FlashcardRecord, error)
	// ToggleStar flips the starred flag. Returns the updated card.
	ToggleStar(ctx context.Context, cardID string) (*FlashcardRecord, error)
	// DeleteSet removes a set and its cards. Returns ErrNotFound if not found.
	DeleteSet(ctx context.Context, setID string) error
}

// FlashcardRepo provides methods for flashcard operations.
// It implements the FlashcardStore interface.
type FlashcardRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewFlashcardRepo creates a new FlashcardRepo.
func NewFlashcardRepo(db *sql.DB) *FlashcardRepo {
	return &FlashcardRepo{db: db, now: time.Now}
}

// CreateSet inserts a set and its cards in one transaction.
func (r *FlashcardRepo) CreateSet(ctx context.Context, set *FlashcardSetRecord) error {
	if set.ID == "" {
		set.ID = uuid.New().String()
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = r.now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO flashcard_sets (id, document_id, created_at) VALUES (?, ?, ?)",
		set.ID, set.DocumentID, formatTime(set.CreatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert flashcard set: %w", err)
	}

	for i := range set.Cards {
		card := &set.Cards[i]
		if card.ID == "" {
			card.ID = uuid.New().String()
		}
		card.SetID = set.ID
		card.Position = i
		if card.Difficulty == "" {
			card.Difficulty = "medium"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flashcards (id, set_id, position, question, answer, difficulty, last_reviewed, review_count, is_starred)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			card.ID, card.SetID, card.Position, card.Question, card.Answer, card.Difficulty,
			formatNullTime(card.LastReviewed), card.ReviewCount, card.IsStarred,
		); err != nil {
			return fmt.Errorf("failed to insert flashcard: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSets returns every set with its cards, newest first.
func (r *FlashcardRepo) ListSets(ctx context.Context) ([]FlashcardSetRecord, error) {
	return r.listSets(ctx, "SELECT id, document_id, created_at FROM flashcard_sets ORDER BY created_at DESC")
}

// ListSetsByDocument returns the sets of one document, newest first.
func (r *FlashcardRepo) ListSetsByDocument(ctx context.Context, documentID string) ([]FlashcardSetRecord, error) {
	return r.listSets(ctx,
		"SELECT id, document_id, created_at FROM flashcard_sets WHERE document_id = ? ORDER BY created_at DESC",
		documentID,
	)
}

func (r *FlashcardRepo) listSets(ctx context.Context, query string, args ...any) ([]FlashcardSetRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flashcard sets: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	sets := []FlashcardSetRecord{}
	for rows.Next() {
		var set FlashcardSetRecord
		var createdAt string
		if err := rows.Scan(&set.ID, &set.DocumentID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan flashcard set: %w", err)
		}
		if set.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	_ = rows.Close()

	for i := range sets {
		cards, err := r.listCards(ctx, sets[i].ID)
		if err != nil {
			return nil, err
		}
		sets[i].Cards = cards
	}

	return sets, nil
}

const flashcardColumns = "id, set_id, position, question, answer, difficulty, last_reviewed, review_count, is_starred"

func scanFlashcard(row rowScanner) (*FlashcardRecord, error) {
	var card FlashcardRecord
	var lastReviewed sql.NullString
	if err := row.Scan(&card.ID, &card.SetID, &card.Position, &card.Question, &card.Answer,
		&card.Difficulty, &lastReviewed, &card.ReviewCount, &card.IsStarred); err != nil {
		return nil, err
	}
	var err error
	if card.LastReviewed, err = parseNullTime(lastReviewed); err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *FlashcardRepo) listCards(ctx context.Context, setID string) ([]FlashcardRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+flashcardColumns+" FROM flashcards WHERE set_id = ? ORDER BY position",
		setID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flashcards: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	cards := []FlashcardRecord{}
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return cards, nil
}

// GetCard gets a card by ID. Returns ErrNotFound if not found.
func (r *FlashcardRepo) GetCard(ctx context.Context, cardID string) (*FlashcardRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+flashcardColumns+" FROM flashcards WHERE id = ?", cardID)
	card, err := scanFlashcard(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query flashcard: %w", err)
	}
	return card, nil
}

// Review increments the review count and sets last_reviewed.
func (r *FlashcardRepo) Review(ctx context.Context, cardID string, at time.Time) (*FlashcardRecord, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE flashcards SET review_count = review_count + 1, last_reviewed = ? WHERE id = ?",
		formatTime(at), cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to review flashcard: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return r.GetCard(ctx, cardID)
}

// ToggleStar flips the starred flag.
func (r *FlashcardRepo) ToggleStar(ctx context.Context, cardID string) (*FlashcardRecord, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE flashcards SET is_starred = CASE is_starred WHEN 0 THEN 1 ELSE 0 END WHERE id = ?",
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle star: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return r.GetCard(ctx, cardID)
}

// DeleteSet removes a set and its cards.
func (r *FlashcardRepo) DeleteSet(ctx context.Context, setID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM flashcard_sets WHERE id = ?", setID)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard set: %w", err)
	}
	return requireAffected(res)
}
