package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"studydeck/internal/contextutil"
	"studydeck/internal/storage"
)

// TextExtractor extracts plain text from a file's content.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// Pipeline turns uploaded files into ready documents: it stores the file,
// extracts its text, chunks it and persists the chunks.
type Pipeline struct {
	documents storage.DocumentStore
	extractor TextExtractor
	chunker   *Chunker
	uploadDir string
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(documents storage.DocumentStore, extractor TextExtractor, chunker *Chunker, uploadDir string) *Pipeline {
	return &Pipeline{
		documents: documents,
		extractor: extractor,
		chunker:   chunker,
		uploadDir: uploadDir,
	}
}

// Upload is a file to ingest.
type Upload struct {
	// Title defaults to the file name without extension.
	Title    string
	FileName string
	Data     []byte
}

// HashContent returns the hex SHA-256 of data.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Store writes the file under the upload directory and creates its document
// record in the processing state. Process must be called to make it ready.
func (p *Pipeline) Store(ctx context.Context, up Upload) (*storage.DocumentRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	fileName := filepath.Base(up.FileName)
	title := strings.TrimSpace(up.Title)
	if title == "" {
		title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}

	id := uuid.New().String()
	path := filepath.Join(p.uploadDir, id+strings.ToLower(filepath.Ext(fileName)))
	if err := os.WriteFile(path, up.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &storage.DocumentRecord{
		ID:       id,
		Title:    title,
		FileName: fileName,
		FilePath: path,
		FileSize: int64(len(up.Data)),
		FileHash: HashContent(up.Data),
		Status:   storage.StatusProcessing,
	}
	if err := p.documents.Create(ctx, doc); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	logger.InfoContext(ctx, "document stored", "document_id", doc.ID, "file_name", fileName, "size", doc.FileSize)
	return doc, nil
}

// Process extracts and chunks a stored document. On failure the document is
// marked failed and the error is returned.
func (p *Pipeline) Process(ctx context.Context, doc *storage.DocumentRecord) error {
	logger := contextutil.LoggerFromContext(ctx).With("document_id", doc.ID)

	err := p.process(ctx, doc)
	if err == nil {
		return nil
	}

	logger.ErrorContext(ctx, "document processing failed", "error", err)
	if markErr := p.documents.MarkFailed(ctx, doc.ID, err.Error()); markErr != nil {
		logger.ErrorContext(ctx, "failed to mark document failed", "error", markErr)
		return errors.Join(err, markErr)
	}
	return err
}

func (p *Pipeline) process(ctx context.Context, doc *storage.DocumentRecord) error {
	logger := contextutil.LoggerFromContext(ctx)

	data, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", doc.FilePath, err)
	}

	text, err := p.extractor.Extract(ctx, data, doc.FileName)
	if err != nil {
		return fmt.Errorf("failed to extract text: %w", err)
	}

	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks generated from %s", doc.FileName)
	}

	records := make([]storage.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = storage.ChunkRecord{
			DocumentID: doc.ID,
			ChunkIndex: c.ChunkIndex,
			PageNumber: c.PageNumber,
			Content:    c.Content,
		}
	}

	if err := p.documents.MarkReady(ctx, doc.ID, text, records); err != nil {
		return fmt.Errorf("failed to save chunks: %w", err)
	}

	doc.Status = storage.StatusReady
	doc.ExtractedText = text
	logger.InfoContext(ctx, "document processed",
		"document_id", doc.ID,
		"chunks", len(chunks),
		"text_length", len(text),
	)
	return nil
}

// IngestFile stores and processes a file from disk synchronously. A file whose
// name and content hash match an existing document is skipped and that
// document is returned with skipped set.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (doc *storage.DocumentRecord, skipped bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	fileName := filepath.Base(path)
	existing, err := p.documents.FindByFileHash(ctx, fileName, HashContent(data))
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to check existing document: %w", err)
	}

	doc, err = p.Store(ctx, Upload{FileName: fileName, Data: data})
	if err != nil {
		return nil, false, err
	}
	if err := p.Process(ctx, doc); err != nil {
		return doc, false, err
	}
	return doc, false, nil
}
