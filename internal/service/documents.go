package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"studydeck/internal/contextutil"
	"studydeck/internal/indexer"
	"studydeck/internal/storage"
)

// UploadRequest represents an uploaded file in the domain layer.
type UploadRequest struct {
	Title    string
	FileName string
	Data     []byte
}

// DocumentConfig holds the upload limits and chunking settings of DocumentService.
type DocumentConfig struct {
	// MaxUploadBytes rejects larger files. 0 means no limit.
	MaxUploadBytes int64
	// Extensions lists the accepted file extensions, lower case with the dot.
	Extensions []string
	// Chunker is the chunking configuration reported by Stats.
	Chunker indexer.ChunkerConfig
}

// DocumentService manages uploaded documents.
type DocumentService interface {
	// Upload stores a file and starts text extraction and chunking in the background.
	// The returned document is in the processing state.
	Upload(ctx context.Context, req UploadRequest) (*storage.DocumentRecord, error)
	// List returns all documents, newest first.
	List(ctx context.Context) ([]storage.DocumentSummary, error)
	// Get returns a document and records the access.
	Get(ctx context.Context, id string) (*storage.DocumentRecord, error)
	// Chunks returns the chunks of a document in order.
	Chunks(ctx context.Context, id string) ([]storage.ChunkRecord, error)
	// Stats returns word statistics of a document's chunks.
	Stats(ctx context.Context, id string) (indexer.ChunkStats, error)
	// Delete removes a document, its file and everything generated from it.
	Delete(ctx context.Context, id string) error
	// Wait blocks until background processing started by Upload has finished.
	Wait()
}

// documentService implements DocumentService.
type documentService struct {
	stores   Stores
	pipeline *indexer.Pipeline
	cfg      DocumentConfig
	wg       sync.WaitGroup
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(stores Stores, pipeline *indexer.Pipeline, cfg DocumentConfig) DocumentService {
	return &documentService{
		stores:   stores,
		pipeline: pipeline,
		cfg:      cfg,
	}
}

// Upload validates and stores the file, then processes it in the background.
func (s *documentService) Upload(ctx context.Context, req UploadRequest) (*storage.DocumentRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := s.validateUpload(req); err != nil {
		logger.WarnContext(ctx, "rejected upload", "file_name", req.FileName, "error", err)
		return nil, err
	}

	doc, err := s.pipeline.Store(ctx, indexer.Upload{
		Title:    req.Title,
		FileName: req.FileName,
		Data:     req.Data,
	})
	if err != nil {
		return nil, WrapError(err, "failed to store upload")
	}

	// Processing outlives the request; keep the logger but drop the deadline.
	bg := contextutil.Detach(ctx)
	record := *doc
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Process logs the failure and marks the document failed.
		_ = s.pipeline.Process(bg, &record)
	}()

	logger.InfoContext(ctx, "document uploaded", "document_id", doc.ID, "title", doc.Title)
	return doc, nil
}

func (s *documentService) validateUpload(req UploadRequest) error {
	if strings.TrimSpace(req.FileName) == "" {
		return &ValidationError{Field: "file", Message: "is required"}
	}
	if len(req.Data) == 0 {
		return &ValidationError{Field: "file", Message: "is empty"}
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(req.Data)) > s.cfg.MaxUploadBytes {
		return &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("exceeds maximum size of %d MB", s.cfg.MaxUploadBytes/(1<<20)),
		}
	}
	ext := strings.ToLower(filepath.Ext(req.FileName))
	if !slices.Contains(s.cfg.Extensions, ext) {
		return &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("unsupported file type %q (supported: %s)", ext, strings.Join(s.cfg.Extensions, ", ")),
		}
	}
	return nil
}

func (s *documentService) List(ctx context.Context) ([]storage.DocumentSummary, error) {
	docs, err := s.stores.Documents.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*storage.DocumentRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := s.stores.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "document", id)
	}
	if err := s.stores.Documents.Touch(ctx, id); err != nil {
		logger.WarnContext(ctx, "failed to update last accessed", "document_id", id, "error", err)
	}
	return doc, nil
}

func (s *documentService) Chunks(ctx context.Context, id string) ([]storage.ChunkRecord, error) {
	if _, err := s.stores.Documents.GetByID(ctx, id); err != nil {
		return nil, lookupError(err, "document", id)
	}
	chunks, err := s.stores.Chunks.ListByDocument(ctx, id)
	if err != nil {
		return nil, WrapError(err, "failed to list chunks")
	}
	return chunks, nil
}

func (s *documentService) Stats(ctx context.Context, id string) (indexer.ChunkStats, error) {
	chunks, err := s.Chunks(ctx, id)
	if err != nil {
		return indexer.ChunkStats{}, err
	}
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}
	return indexer.ComputeChunkStats(contents, s.cfg.Chunker), nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := s.stores.Documents.GetByID(ctx, id)
	if err != nil {
		return lookupError(err, "document", id)
	}
	if err := s.stores.Documents.Delete(ctx, id); err != nil {
		return WrapError(err, "failed to delete document")
	}
	if err := os.Remove(doc.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnContext(ctx, "failed to remove document file", "path", doc.FilePath, "error", err)
	}

	logger.InfoContext(ctx, "document deleted", "document_id", id)
	return nil
}

func (s *documentService) Wait() {
	s.wg.Wait()
}
