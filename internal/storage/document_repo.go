package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks studydeck/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Create inserts a new document. ID, status and timestamps are filled in when empty.
	Create(ctx context.Context, doc *DocumentRecord) error
	// GetByID gets a document by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	// List returns all documents, newest upload first, with flashcard and quiz counts.
	List(ctx context.Context) ([]DocumentSummary, error)
	// ListRecent returns up to limit documents ordered by last access, most recent first.
	ListRecent(ctx context.Context, limit int) ([]DocumentRecord, error)
	// FindByFileHash finds a document by original file name and content hash.
	// Returns ErrNotFound if none exists.
	FindByFileHash(ctx context.Context, fileName, hash string) (*DocumentRecord, error)
	// MarkReady stores the extracted text and chunks and sets the status to ready.
	MarkReady(ctx context.Context, id, text string, chunks []ChunkRecord) error
	// MarkFailed sets the status to failed with a reason.
	MarkFailed(ctx context.Context, id, reason string) error
	// Touch updates last_accessed to now.
	Touch(ctx context.Context, id string) error
	// Delete removes a document and, by cascade, everything generated from it.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db, now: time.Now}
}

const documentColumns = `id, title, file_name, file_path, file_size, file_hash, extracted_text,
	status, error_message, upload_date, last_accessed`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, extra ...any) (*DocumentRecord, error) {
	var doc DocumentRecord
	var uploadDate, lastAccessed string
	dest := []any{
		&doc.ID, &doc.Title, &doc.FileName, &doc.FilePath, &doc.FileSize, &doc.FileHash,
		&doc.ExtractedText, &doc.Status, &doc.ErrorMessage, &uploadDate, &lastAccessed,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if doc.UploadDate, err = parseTime(uploadDate); err != nil {
		return nil, err
	}
	if doc.LastAccessed, err = parseTime(lastAccessed); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create inserts a new document.
func (r *DocumentRepo) Create(ctx context.Context, doc *DocumentRecord) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = StatusProcessing
	}
	now := r.now()
	if doc.UploadDate.IsZero() {
		doc.UploadDate = now
	}
	if doc.LastAccessed.IsZero() {
		doc.LastAccessed = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.FileName, doc.FilePath, doc.FileSize, doc.FileHash, doc.ExtractedText,
		doc.Status, doc.ErrorMessage, formatTime(doc.UploadDate), formatTime(doc.LastAccessed),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID gets a document by its ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// List returns all documents, newest upload first, with flashcard and quiz counts.
// Returns an empty slice if there are none.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+`,
			(SELECT COUNT(*) FROM flashcard_sets fs WHERE fs.document_id = documents.id),
			(SELECT COUNT(*) FROM quizzes q WHERE q.document_id = documents.id)
		 FROM documents
		 ORDER BY upload_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []DocumentSummary{}
	for rows.Next() {
		var flashcards, quizzes int
		doc, err := scanDocument(rows, &flashcards, &quizzes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, DocumentSummary{
			DocumentRecord: *doc,
			FlashcardCount: flashcards,
			QuizCount:      quizzes,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// ListRecent returns up to limit documents ordered by last access.
func (r *DocumentRepo) ListRecent(ctx context.Context, limit int) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY last_accessed DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []DocumentRecord{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// FindByFileHash finds a document by original file name and content hash.
func (r *DocumentRepo) FindByFileHash(ctx context.Context, fileName, hash string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE file_name = ? AND file_hash = ? LIMIT 1`,
		fileName, hash,
	)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document by hash: %w", err)
	}
	return doc, nil
}

// MarkReady replaces the document's chunks and marks it ready in one transaction.
// Chunk IDs are generated when empty.
func (r *DocumentRepo) MarkReady(ctx context.Context, id, text string, chunks []ChunkRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET extracted_text = ?, status = ?, error_message = '' WHERE id = ?`,
		text, StatusReady, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete chunks by document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (id, document_id, chunk_index, page_number, content) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.DocumentID = id
		if _, err := stmt.ExecContext(ctx, c.ID, id, c.ChunkIndex, c.PageNumber, c.Content); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MarkFailed sets the status to failed with a reason.
func (r *DocumentRepo) MarkFailed(ctx context.Context, id, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error_message = ? WHERE id = ?`,
		StatusFailed, reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark document failed: %w", err)
	}
	return requireAffected(res)
}

// Touch updates last_accessed to now.
func (r *DocumentRepo) Touch(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET last_accessed = ? WHERE id = ?`,
		formatTime(r.now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch document: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a document. Returns ErrNotFound if it does not exist.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return requireAffected(res)
}

// requireAffected maps a zero-row update or delete to ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
