package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"studydeck/internal/service"
	"studydeck/internal/storage"
)

// AIHandler handles HTTP requests for LLM-backed study workflows.
type AIHandler struct {
	study service.StudyService
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(study service.StudyService) *AIHandler {
	return &AIHandler{study: study}
}

// GenerateRequest is the payload of flashcard and quiz generation.
//
// swagger:model GenerateRequest
type GenerateRequest struct {
	DocumentID string `json:"documentId"`
	// Number of items to generate. 0 uses the default.
	Count int `json:"count,omitempty"`
	// Quiz title. Only used for quizzes.
	Title string `json:"title,omitempty"`
}

// DocumentRequest is a payload naming only a document.
type DocumentRequest struct {
	DocumentID string `json:"documentId"`
}

// ChatRequest represents the HTTP request payload for chat.
//
// swagger:model ChatRequest
type ChatRequest struct {
	DocumentID string `json:"documentId"`
	Question   string `json:"question"`
}

// ChatResponse represents the HTTP response payload for chat.
//
// swagger:model ChatResponse
type ChatResponse struct {
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	HTML           string `json:"html"`
	RelevantChunks []int  `json:"relevantChunks"`
}

// ExplainRequest is the payload of concept explanation.
type ExplainRequest struct {
	DocumentID string `json:"documentId"`
	Concept    string `json:"concept"`
}

// ExplainResponse is a concept explanation.
type ExplainResponse struct {
	Concept        string `json:"concept"`
	Explanation    string `json:"explanation"`
	HTML           string `json:"html"`
	Context        string `json:"context"`
	RelevantChunks []int  `json:"relevantChunks"`
}

// SummaryResponse is a document summary.
type SummaryResponse struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	HTML       string `json:"html"`
}

// ChatMessageResponse is one message of the chat history.
type ChatMessageResponse struct {
	ID             string `json:"id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	RelevantChunks []int  `json:"relevantChunks"`
	Timestamp      string `json:"timestamp"`
}

// GenerateFlashcards generates a flashcard set from a document.
//
// swagger:route POST /api/ai/generate-flashcards generateFlashcards
//
// # Generate flashcards
//
// Asks the LLM for question/answer cards built from the document text and
// stores them as a new set.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'201':
//	  description: Flashcard set created
//	  schema:
//	    "$ref": "#/definitions/FlashcardSetResponse"
//	'404':
//	  description: Document not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'409':
//	  description: Document not ready
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: LLM unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AIHandler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	set, err := h.study.GenerateFlashcards(ctx, req.DocumentID, req.Count)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to generate flashcards")
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toFlashcardSetResponse(*set))
}

// GenerateQuiz generates a multiple-choice quiz from a document.
func (h *AIHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quiz, err := h.study.GenerateQuiz(ctx, req.DocumentID, req.Count, req.Title)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to generate quiz")
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toQuizResponse(quiz))
}

// GenerateSummary summarizes a document.
func (h *AIHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req DocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	summary, err := h.study.Summarize(ctx, req.DocumentID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to generate summary")
		return
	}
	writeJSON(ctx, w, http.StatusOK, SummaryResponse{
		DocumentID: summary.DocumentID,
		Title:      summary.Title,
		Summary:    summary.Text,
		HTML:       summary.HTML,
	})
}

// Chat answers a question about a document.
//
// swagger:route POST /api/ai/chat chatWithDocument
//
// # Ask a question about a document
//
// Ranks the document chunks against the question and answers from the most
// relevant ones. The exchange is added to the chat history.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer with the chunk indexes it was grounded in
//	  schema:
//	    "$ref": "#/definitions/ChatResponse"
//	'400':
//	  description: Missing question or document
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: LLM unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.study.Chat(ctx, req.DocumentID, req.Question)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}
	writeJSON(ctx, w, http.StatusOK, ChatResponse{
		Question:       reply.Question,
		Answer:         reply.Answer,
		HTML:           reply.HTML,
		RelevantChunks: nonNilInts(reply.RelevantChunks),
	})
}

// ExplainConcept explains a concept from a document.
func (h *AIHandler) ExplainConcept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ExplainRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	explanation, err := h.study.ExplainConcept(ctx, req.DocumentID, req.Concept)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to explain concept")
		return
	}
	writeJSON(ctx, w, http.StatusOK, ExplainResponse{
		Concept:        explanation.Concept,
		Explanation:    explanation.Explanation,
		HTML:           explanation.HTML,
		Context:        explanation.Context,
		RelevantChunks: nonNilInts(explanation.RelevantChunks),
	})
}

// ChatHistory returns the chat history of a document.
func (h *AIHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	messages, err := h.study.ChatHistory(ctx, chi.URLParam(r, "documentId"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get chat history")
		return
	}

	resp := make([]ChatMessageResponse, len(messages))
	for i, m := range messages {
		resp[i] = toChatMessageResponse(m)
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

func toChatMessageResponse(m storage.ChatMessageRecord) ChatMessageResponse {
	return ChatMessageResponse{
		ID:             m.ID,
		Role:           m.Role,
		Content:        m.Content,
		RelevantChunks: nonNilInts(m.RelevantChunks),
		Timestamp:      formatTime(m.CreatedAt),
	}
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
