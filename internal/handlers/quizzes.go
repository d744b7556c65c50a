package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"studydeck/internal/service"
	"studydeck/internal/storage"
)

// QuizHandler handles HTTP requests for quizzes.
type QuizHandler struct {
	quizzes service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizzes service.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

// QuestionResponse is a quiz question.
type QuestionResponse struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

// UserAnswerResponse is a recorded answer.
type UserAnswerResponse struct {
	QuestionIndex  int    `json:"questionIndex"`
	SelectedAnswer string `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	AnsweredAt     string `json:"answeredAt"`
}

// QuizResponse represents a quiz.
//
// swagger:model QuizResponse
type QuizResponse struct {
	ID             string               `json:"id"`
	DocumentID     string               `json:"documentId"`
	Title          string               `json:"title"`
	Questions      []QuestionResponse   `json:"questions"`
	UserAnswers    []UserAnswerResponse `json:"userAnswers"`
	Score          int                  `json:"score"`
	TotalQuestions int                  `json:"totalQuestions"`
	CompletedAt    *string              `json:"completedAt"`
	CreatedAt      string               `json:"createdAt"`
}

// SubmitRequest is the payload of a quiz submission.
//
// swagger:model SubmitRequest
type SubmitRequest struct {
	Answers []struct {
		QuestionIndex  int    `json:"questionIndex"`
		SelectedAnswer string `json:"selectedAnswer"`
	} `json:"answers"`
}

// QuestionResultResponse is a graded question.
type QuestionResultResponse struct {
	QuestionIndex  int      `json:"questionIndex"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswer  string   `json:"correctAnswer"`
	SelectedAnswer string   `json:"selectedAnswer"`
	IsCorrect      bool     `json:"isCorrect"`
	Explanation    string   `json:"explanation"`
}

// QuizResultResponse is the graded outcome of a quiz.
//
// swagger:model QuizResultResponse
type QuizResultResponse struct {
	QuizID         string                   `json:"quizId"`
	Title          string                   `json:"title"`
	Score          int                      `json:"score"`
	Correct        int                      `json:"correctAnswers"`
	TotalQuestions int                      `json:"totalQuestions"`
	CompletedAt    *string                  `json:"completedAt"`
	Results        []QuestionResultResponse `json:"results"`
}

func toQuizResponse(q *storage.QuizRecord) QuizResponse {
	questions := make([]QuestionResponse, len(q.Questions))
	for i, qq := range q.Questions {
		questions[i] = QuestionResponse{
			Question:      qq.Question,
			Options:       qq.Options,
			CorrectAnswer: qq.CorrectAnswer,
			Explanation:   qq.Explanation,
			Difficulty:    qq.Difficulty,
		}
	}
	answers := make([]UserAnswerResponse, len(q.UserAnswers))
	for i, a := range q.UserAnswers {
		answers[i] = UserAnswerResponse{
			QuestionIndex:  a.QuestionIndex,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      a.IsCorrect,
			AnsweredAt:     formatTime(a.AnsweredAt),
		}
	}
	return QuizResponse{
		ID:             q.ID,
		DocumentID:     q.DocumentID,
		Title:          q.Title,
		Questions:      questions,
		UserAnswers:    answers,
		Score:          q.Score,
		TotalQuestions: q.TotalQuestions,
		CompletedAt:    formatOptionalTime(q.CompletedAt),
		CreatedAt:      formatTime(q.CreatedAt),
	}
}

// ListByDocument returns the quizzes of a document.
func (h *QuizHandler) ListByDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	quizzes, err := h.quizzes.ListByDocument(ctx, chi.URLParam(r, "documentId"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list quizzes")
		return
	}

	resp := make([]QuizResponse, len(quizzes))
	for i := range quizzes {
		resp[i] = toQuizResponse(&quizzes[i])
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Get returns a quiz.
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	quiz, err := h.quizzes.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get quiz")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toQuizResponse(quiz))
}

// Submit grades a quiz submission.
//
// swagger:route POST /api/quizzes/{id}/submit submitQuiz
//
// # Submit quiz answers
//
// Answers with an out-of-range question index are ignored. A quiz can only be
// submitted once.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Graded quiz
//	  schema:
//	    "$ref": "#/definitions/QuizResponse"
//	'404':
//	  description: Quiz not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'409':
//	  description: Quiz already completed
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answers := make([]service.AnswerInput, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = service.AnswerInput{
			QuestionIndex:  a.QuestionIndex,
			SelectedAnswer: a.SelectedAnswer,
		}
	}

	quiz, err := h.quizzes.Submit(ctx, chi.URLParam(r, "id"), answers)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to submit quiz")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toQuizResponse(quiz))
}

// Results returns the graded outcome of a completed quiz.
func (h *QuizHandler) Results(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.quizzes.Results(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get quiz results")
		return
	}

	details := make([]QuestionResultResponse, len(result.Details))
	for i, d := range result.Details {
		details[i] = QuestionResultResponse{
			QuestionIndex:  i,
			Question:       d.Question,
			Options:        d.Options,
			CorrectAnswer:  d.CorrectAnswer,
			SelectedAnswer: d.SelectedAnswer,
			IsCorrect:      d.IsCorrect,
			Explanation:    d.Explanation,
		}
	}
	writeJSON(ctx, w, http.StatusOK, QuizResultResponse{
		QuizID:         result.Quiz.ID,
		Title:          result.Quiz.Title,
		Score:          result.Quiz.Score,
		Correct:        result.Correct,
		TotalQuestions: result.Quiz.TotalQuestions,
		CompletedAt:    formatOptionalTime(result.Quiz.CompletedAt),
		Results:        details,
	})
}

// Delete removes a quiz.
func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.quizzes.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete quiz")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
