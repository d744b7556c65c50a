package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"studydeck/internal/contextutil"
	"studydeck/internal/service"
	"studydeck/internal/storage"
)

// multipartOverhead is the allowance for multipart headers on top of the file size.
const multipartOverhead = 1 << 20

// DocumentHandler handles HTTP requests for documents.
type DocumentHandler struct {
	documents      service.DocumentService
	maxUploadBytes int64
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documents service.DocumentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{
		documents:      documents,
		maxUploadBytes: maxUploadBytes,
	}
}

// DocumentResponse represents a document.
//
// swagger:model DocumentResponse
type DocumentResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	UploadDate   string `json:"uploadDate"`
	LastAccessed string `json:"lastAccessed"`

	// Only set on listings
	FlashcardCount *int `json:"flashcardCount,omitempty"`
	QuizCount      *int `json:"quizCount,omitempty"`

	// Only set on detail
	ExtractedText string `json:"extractedText,omitempty"`
}

// ChunkResponse represents a stored chunk.
type ChunkResponse struct {
	ID         string `json:"id"`
	ChunkIndex int    `json:"chunkIndex"`
	PageNumber int    `json:"pageNumber"`
	Content    string `json:"content"`
}

func toDocumentResponse(doc *storage.DocumentRecord) DocumentResponse {
	return DocumentResponse{
		ID:           doc.ID,
		Title:        doc.Title,
		FileName:     doc.FileName,
		FileSize:     doc.FileSize,
		Status:       doc.Status,
		ErrorMessage: doc.ErrorMessage,
		UploadDate:   formatTime(doc.UploadDate),
		LastAccessed: formatTime(doc.LastAccessed),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// Upload handles multipart document uploads.
//
// swagger:route POST /api/documents/upload uploadDocument
//
// # Upload a document
//
// Stores a PDF, text or markdown file and starts text extraction and chunking
// in the background. The document is returned in the processing state.
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'201':
//	  description: Document stored
//	  schema:
//	    "$ref": "#/definitions/DocumentResponse"
//	'400':
//	  description: Missing, empty or unsupported file
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'413':
//	  description: File too large
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnContext(ctx, "upload too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "missing file in upload", "error", err)
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read uploaded file", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	doc, err := h.documents.Upload(ctx, service.UploadRequest{
		Title:    r.FormValue("title"),
		FileName: header.Filename,
		Data:     data,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to upload document")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, toDocumentResponse(doc))
}

// List returns all documents with their study material counts.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.documents.List(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list documents")
		return
	}

	resp := make([]DocumentResponse, len(docs))
	for i := range docs {
		resp[i] = toDocumentResponse(&docs[i].DocumentRecord)
		resp[i].FlashcardCount = &docs[i].FlashcardCount
		resp[i].QuizCount = &docs[i].QuizCount
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Get returns one document including its extracted text.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, err := h.documents.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get document")
		return
	}

	resp := toDocumentResponse(doc)
	resp.ExtractedText = doc.ExtractedText
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Chunks returns the chunks of a document in order.
func (h *DocumentHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chunks, err := h.documents.Chunks(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list chunks")
		return
	}

	resp := make([]ChunkResponse, len(chunks))
	for i, c := range chunks {
		resp[i] = ChunkResponse{
			ID:         c.ID,
			ChunkIndex: c.ChunkIndex,
			PageNumber: c.PageNumber,
			Content:    c.Content,
		}
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Stats returns chunk word statistics of a document.
func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.documents.Stats(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to compute chunk stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

// Delete removes a document and everything generated from it.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.documents.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
