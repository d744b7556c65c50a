package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_store.go -package=mocks studydeck/internal/storage ChatStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChatStore defines the interface for chat history operations.
type ChatStore interface {
	// Append stores messages in order in one transaction.
	Append(ctx context.Context, messages ...*ChatMessageRecord) error
	// ListByDocument returns a document's chat history in insertion order.
	ListByDocument(ctx context.Context, documentID string) ([]ChatMessageRecord, error)
}

// ChatRepo provides methods for chat history operations.
// It implements the ChatStore interface.
type ChatRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewChatRepo creates a new ChatRepo.
func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db, now: time.Now}
}

// Append stores messages in order in one transaction.
func (r *ChatRepo) Append(ctx context.Context, messages ...*ChatMessageRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, m := range messages {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = r.now()
		}
		if m.RelevantChunks == nil {
			m.RelevantChunks = []int{}
		}
		chunks, err := json.Marshal(m.RelevantChunks)
		if err != nil {
			return fmt.Errorf("failed to encode relevant chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (id, document_id, role, content, relevant_chunks, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.DocumentID, m.Role, m.Content, string(chunks), formatTime(m.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert chat message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListByDocument returns a document's chat history in insertion order.
// Returns an empty slice when there is no history.
func (r *ChatRepo) ListByDocument(ctx context.Context, documentID string) ([]ChatMessageRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, document_id, role, content, relevant_chunks, created_at
		 FROM chat_messages WHERE document_id = ? ORDER BY seq`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	messages := []ChatMessageRecord{}
	for rows.Next() {
		var m ChatMessageRecord
		var chunks, createdAt string
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.Role, &m.Content, &chunks, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		if err := json.Unmarshal([]byte(chunks), &m.RelevantChunks); err != nil {
			return nil, fmt.Errorf("failed to decode relevant chunks: %w", err)
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return messages, nil
}
