package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"studydeck/internal/indexer"
	"studydeck/internal/service"
	"studydeck/internal/service/mocks"
	"studydeck/internal/storage"
)

func multipartUpload(t *testing.T, fileName string, content []byte, title string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		_, _ = part.Write(content)
	}
	if title != "" {
		_ = mw.WriteField("title", title)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDocumentHandler_Upload(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockDocs := mocks.NewMockDocumentService(ctrl)
	handler := NewDocumentHandler(mockDocs, 1<<20)

	uploaded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mockDocs.EXPECT().
		Upload(gomock.Any(), service.UploadRequest{Title: "Week 1", FileName: "notes.txt", Data: []byte("hello")}).
		Return(&storage.DocumentRecord{
			ID:           "doc-1",
			Title:        "Week 1",
			FileName:     "notes.txt",
			FileSize:     5,
			Status:       storage.StatusProcessing,
			UploadDate:   uploaded,
			LastAccessed: uploaded,
		}, nil)

	w := httptest.NewRecorder()
	handler.Upload(w, multipartUpload(t, "notes.txt", []byte("hello"), "Week 1"))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var resp DocumentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if resp.ID != "doc-1" || resp.Status != "processing" || resp.UploadDate != "2024-03-01T12:00:00Z" {
		t.Errorf("response = %+v", resp)
	}
	if resp.FlashcardCount != nil || resp.ExtractedText != "" {
		t.Errorf("upload response should not carry listing or detail fields: %+v", resp)
	}
}

func TestDocumentHandler_Upload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		mockSetup  func(*mocks.MockDocumentService)
		wantStatus int
	}{
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/documents/upload", bytes.NewBufferString("{}"))
			},
			mockSetup:  func(*mocks.MockDocumentService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing file field",
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, "", nil, "title only")
			},
			mockSetup:  func(*mocks.MockDocumentService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "rejected by service",
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, "slides.pptx", []byte("x"), "")
			},
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().
					Upload(gomock.Any(), gomock.Any()).
					Return(nil, &service.ValidationError{Field: "file", Message: "unsupported file type"})
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDocs := mocks.NewMockDocumentService(ctrl)
			tt.mockSetup(mockDocs)

			w := httptest.NewRecorder()
			NewDocumentHandler(mockDocs, 1<<20).Upload(w, tt.req(t))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestDocumentHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockDocs := mocks.NewMockDocumentService(ctrl)

	mockDocs.EXPECT().List(gomock.Any()).Return([]storage.DocumentSummary{
		{DocumentRecord: storage.DocumentRecord{ID: "a", Title: "A", Status: storage.StatusReady}, FlashcardCount: 2, QuizCount: 1},
		{DocumentRecord: storage.DocumentRecord{ID: "b", Title: "B", Status: storage.StatusFailed, ErrorMessage: "no text"}},
	}, nil)

	w := httptest.NewRecorder()
	NewDocumentHandler(mockDocs, 0).List(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp []DocumentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("len = %d, want 2", len(resp))
	}
	if resp[0].FlashcardCount == nil || *resp[0].FlashcardCount != 2 || *resp[0].QuizCount != 1 {
		t.Errorf("first = %+v", resp[0])
	}
	if resp[1].ErrorMessage != "no text" || *resp[1].FlashcardCount != 0 {
		t.Errorf("second = %+v", resp[1])
	}
}

func TestDocumentHandler_Get(t *testing.T) {
	tests := []struct {
		name       string
		mockSetup  func(*mocks.MockDocumentService)
		wantStatus int
		wantText   string
	}{
		{
			name: "found",
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Get(gomock.Any(), "doc-1").
					Return(&storage.DocumentRecord{ID: "doc-1", ExtractedText: "full text"}, nil)
			},
			wantStatus: http.StatusOK,
			wantText:   "full text",
		},
		{
			name: "not found",
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Get(gomock.Any(), "doc-1").
					Return(nil, fmt.Errorf("document doc-1: %w", service.ErrNotFound))
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDocs := mocks.NewMockDocumentService(ctrl)
			tt.mockSetup(mockDocs)

			req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil), "id", "doc-1")
			w := httptest.NewRecorder()
			NewDocumentHandler(mockDocs, 0).Get(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantText != "" {
				var resp DocumentResponse
				_ = json.NewDecoder(w.Body).Decode(&resp)
				if resp.ExtractedText != tt.wantText {
					t.Errorf("ExtractedText = %q", resp.ExtractedText)
				}
			}
		})
	}
}

func TestDocumentHandler_ChunksStatsDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockDocs := mocks.NewMockDocumentService(ctrl)
	handler := NewDocumentHandler(mockDocs, 0)

	mockDocs.EXPECT().Chunks(gomock.Any(), "doc-1").Return([]storage.ChunkRecord{
		{ID: "c0", ChunkIndex: 0, Content: "first"},
		{ID: "c1", ChunkIndex: 1, Content: "second"},
	}, nil)
	mockDocs.EXPECT().Stats(gomock.Any(), "doc-1").Return(indexer.ChunkStats{Chunks: 2, TotalWords: 2}, nil)
	mockDocs.EXPECT().Delete(gomock.Any(), "doc-1").Return(nil)

	w := httptest.NewRecorder()
	handler.Chunks(w, withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", "doc-1"))
	var chunks []ChunkResponse
	if err := json.NewDecoder(w.Body).Decode(&chunks); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(chunks) != 2 || chunks[1].ChunkIndex != 1 || chunks[1].Content != "second" {
		t.Errorf("chunks = %+v", chunks)
	}

	w = httptest.NewRecorder()
	handler.Stats(w, withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", "doc-1"))
	var stats indexer.ChunkStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if stats.Chunks != 2 {
		t.Errorf("stats = %+v", stats)
	}

	w = httptest.NewRecorder()
	handler.Delete(w, withURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), "id", "doc-1"))
	if w.Code != http.StatusNoContent {
		t.Errorf("Delete status = %d, want 204", w.Code)
	}
}
