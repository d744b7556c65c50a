package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"studydeck/internal/markdown"
	"studydeck/internal/rag"
	"studydeck/internal/service"
	"studydeck/internal/service/mocks"
	"studydeck/internal/storage"
)

func newStudyService(t *testing.T, env *testEnv) (service.StudyService, *mocks.MockLLMClient) {
	t.Helper()
	ctrl := gomock.NewController(t)

	ranker, err := rag.NewRanker(rag.RankerConfig{MaxChunks: 2, StopWords: rag.DefaultStopWords()})
	if err != nil {
		t.Fatalf("NewRanker() error = %v", err)
	}
	mockLLMClient := mocks.NewMockLLMClient(ctrl)
	return service.NewStudyService(env.stores, mockLLMClient, ranker, markdown.New()), mockLLMClient
}

func TestStudyService_GenerateFlashcards(t *testing.T) {
	env := newTestEnv(t)
	svc, mockLLMClient := newStudyService(t, env)
	doc := env.seedDocument(t, "biology", "Mitochondria produce energy.", "Ribosomes build proteins.")

	mockLLMClient.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "Generate exactly 2 flashcards") {
				t.Errorf("prompt does not ask for 2 cards: %q", prompt)
			}
			if !strings.Contains(prompt, "Ribosomes build proteins.") {
				t.Errorf("prompt does not carry the document text")
			}
			return "Q: What produces energy?\nA: Mitochondria\nD: easy\n---\n" +
				"Q: What builds proteins?\nA: Ribosomes\nD: unknown\n---\n" +
				"Q: Extra card?\nA: Dropped", nil
		})

	set, err := svc.GenerateFlashcards(testContext(), doc.ID, 2)
	if err != nil {
		t.Fatalf("GenerateFlashcards() error = %v", err)
	}
	if len(set.Cards) != 2 {
		t.Fatalf("GenerateFlashcards() cards = %d, want 2", len(set.Cards))
	}
	if set.Cards[0].Difficulty != "easy" || set.Cards[1].Difficulty != "medium" {
		t.Errorf("difficulties = %q, %q", set.Cards[0].Difficulty, set.Cards[1].Difficulty)
	}

	stored, err := env.stores.Flashcards.ListSetsByDocument(testContext(), doc.ID)
	if err != nil {
		t.Fatalf("ListSetsByDocument() error = %v", err)
	}
	if len(stored) != 1 || len(stored[0].Cards) != 2 || stored[0].Cards[1].Question != "What builds proteins?" {
		t.Errorf("stored sets = %+v", stored)
	}
}

func TestStudyService_GenerateFlashcards_Errors(t *testing.T) {
	env := newTestEnv(t)
	svc, mockLLMClient := newStudyService(t, env)
	ready := env.seedDocument(t, "ready", "Some text.")
	pending := env.seedProcessing(t, "pending")

	tests := []struct {
		name       string
		documentID string
		count      int
		mockSetup  func()
		checkErr   func(error) bool
	}{
		{
			name:       "missing document id",
			documentID: "",
			mockSetup:  func() {},
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "documentId"
			},
		},
		{
			name:       "negative count",
			documentID: ready.ID,
			count:      -1,
			mockSetup:  func() {},
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "count"
			},
		},
		{
			name:       "count above limit",
			documentID: ready.ID,
			count:      service.MaxGenerateCount + 1,
			mockSetup:  func() {},
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "count"
			},
		},
		{
			name:       "unknown document",
			documentID: "missing",
			mockSetup:  func() {},
			checkErr:   func(err error) bool { return errors.Is(err, service.ErrNotFound) },
		},
		{
			name:       "document still processing",
			documentID: pending.ID,
			mockSetup:  func() {},
			checkErr:   func(err error) bool { return errors.Is(err, service.ErrNotReady) },
		},
		{
			name:       "LLM failure",
			documentID: ready.ID,
			mockSetup: func() {
				mockLLMClient.EXPECT().
					Chat(gomock.Any(), gomock.Any()).
					Return("", errors.New("connection refused"))
			},
			checkErr: func(err error) bool { return errors.Is(err, service.ErrExternalService) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			_, err := svc.GenerateFlashcards(testContext(), tt.documentID, tt.count)
			if err == nil || !tt.checkErr(err) {
				t.Errorf("GenerateFlashcards() error = %v", err)
			}
		})
	}
}

func TestStudyService_GenerateFlashcards_EmptyOutput(t *testing.T) {
	env := newTestEnv(t)
	svc, mockLLMClient := newStudyService(t, env)
	doc := env.seedDocument(t, "notes", "Short text.")

	mockLLMClient.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		Return("I cannot help with that.", nil)

	set, err := svc.GenerateFlashcards(testContext(), doc.ID, 0)
	if err != nil {
		t.Fatalf("GenerateFlashcards() error = %v", err)
	}
	if len(set.Cards) != 0 {
		t.Errorf("GenerateFlashcards() cards = %d, want 0", len(set.Cards))
	}
}

func TestStudyService_GenerateQuiz(t *testing.T) {
	env := newTestEnv(t)
	svc, mockLLMClient := newStudyService(t, env)
	doc := env.seedDocument(t, "Chemistry", "Water is H2O.")

	output := "Q: What is water?\nO1: H2O\nO2: CO2\nO3: O2\nO4: NaCl\nC: H2O\nE: Two hydrogens, one oxygen.\nD: easy\n---\n" +
		"Q: Incomplete?\nO1: a\nO2: b\nC: a"

	mockLLMClient.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		Return(output, nil).
		Times(2)

	quiz, err := svc.GenerateQuiz(testContext(), doc.ID, 0, "")
	if err != nil {
		t.Fatalf("GenerateQuiz() error = %v", err)
	}
	if quiz.Title != "Chemistry - Quiz" {
		t.Errorf("Title = %q, want default title", quiz.Title)
	}
	if quiz.TotalQuestions != 1 || quiz.Questions[0].CorrectAnswer != "H2O" || len(quiz.Questions[0].Options) != 4 {
		t.Errorf("GenerateQuiz() = %+v", quiz)
	}

	named, err := svc.GenerateQuiz(testContext(), doc.ID, 3, "  Midterm ")
	if err != nil {
		t.Fatalf("GenerateQuiz() error = %v", err)
	}
	if named.Title != "Midterm" {
		t.Errorf("Title = %q, want Midterm", named.Title)
	}

	stored, err := env.stores.Quizzes.GetByID(testContext(), quiz.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Questions[0].Explanation != "Two hydrogens, one oxygen." {
		t.Errorf("stored question = %+v", stored.Questions[0])
	}
}

func TestStudyService_Summarize(t *testing.T) {
	env := newTestEnv(t)
	svc, mockLLMClient := newStudyService(t, env)
	doc := env.seedDocument(t, "history", "Rome was not built in a day.")

	mockLLMClient.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		Return("## Summary\n\n**Rome** took time.", nil)

	summary, err := svc.Summarize(testContext(), doc.ID)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Text != "## Summary\n\n**Rome** took time." {
		t.Errorf("Text = %q", summary.Text)
	}
	if !strings.Contains(summary.HTML, "<h2>Summary</h2>") || !strings.Contains(summary.HTML, "<strong>Rome</strong>") {
		t.Errorf("HTML = %q", summary.HTML)
	}
	if summary.Title != "history" || summary.DocumentID != doc.ID {
		t.Errorf("Summarize() = %+v", summary)
	}
}

func TestStudyService_Chat(t *testing.T) {
	env := newTestEnv(t)
	svc, mockLLMClient := newStudyService(t, env)
	doc := env.seedDocument(t, "astronomy",
		"The sun is a star.",
		"Photosynthesis converts light into chemical energy in plants.",
		"Mars is the fourth planet.",
	)

	mockLLMClient.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "[Chunk 1]\nPhotosynthesis converts light") {
				t.Errorf("prompt should label the relevant chunk: %q", prompt)
			}
			if !strings.Contains(prompt, "Question: What does photosynthesis convert?") {
				t.Errorf("prompt should carry the question: %q", prompt)
			}
			return "It converts light into chemical energy.", nil
		})

	reply, err := svc.Chat(testContext(), doc.ID, "  What does photosynthesis convert?  ")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply.Answer != "It converts light into chemical energy." {
		t.Errorf("Answer = %q", reply.Answer)
	}
	if len(reply.RelevantChunks) == 0 || reply.RelevantChunks[0] != 1 {
		t.Errorf("RelevantChunks = %v, want chunk 1 first", reply.RelevantChunks)
	}

	history, err := svc.ChatHistory(testContext(), doc.ID)
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("ChatHistory() = %d messages, want 2", len(history))
	}
	if history[0].Role != storage.RoleUser || history[0].Content != "What does photosynthesis convert?" {
		t.Errorf("first message = %+v", history[0])
	}
	if history[1].Role != storage.RoleAssistant || len(history[1].RelevantChunks) == 0 || history[1].RelevantChunks[0] != 1 {
		t.Errorf("second message = %+v", history[1])
	}
}

func TestStudyService_Chat_Errors(t *testing.T) {
	env := newTestEnv(t)
	svc, mockLLMClient := newStudyService(t, env)
	doc := env.seedDocument(t, "doc", "Content.")

	_, err := svc.Chat(testContext(), doc.ID, "   ")
	var validationErr *service.ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "question" {
		t.Errorf("Chat() with blank question error = %v", err)
	}

	mockLLMClient.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		Return("", errors.New("timeout"))

	if _, err := svc.Chat(testContext(), doc.ID, "What?"); !errors.Is(err, service.ErrExternalService) {
		t.Errorf("Chat() error = %v, want ErrExternalService", err)
	}

	history, err := svc.ChatHistory(testContext(), doc.ID)
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("failed chat should not be recorded, got %d messages", len(history))
	}
}

func TestStudyService_ExplainConcept(t *testing.T) {
	env := newTestEnv(t)
	svc, mockLLMClient := newStudyService(t, env)
	doc := env.seedDocument(t, "economics",
		"Inflation is a general rise in prices.",
		"Supply and demand set market prices.",
		"Unrelated text about gardening.",
	)

	mockLLMClient.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, `Explain the concept of "inflation"`) {
				t.Errorf("prompt = %q", prompt)
			}
			return "Inflation means *rising* prices.", nil
		})

	explanation, err := svc.ExplainConcept(testContext(), doc.ID, "inflation")
	if err != nil {
		t.Fatalf("ExplainConcept() error = %v", err)
	}
	if explanation.Concept != "inflation" || explanation.Explanation != "Inflation means *rising* prices." {
		t.Errorf("ExplainConcept() = %+v", explanation)
	}
	if !strings.HasPrefix(explanation.Context, "Inflation is a general rise in prices.") {
		t.Errorf("Context = %q", explanation.Context)
	}
	if len(explanation.RelevantChunks) == 0 || explanation.RelevantChunks[0] != 0 {
		t.Errorf("RelevantChunks = %v", explanation.RelevantChunks)
	}
	if !strings.Contains(explanation.HTML, "<em>rising</em>") {
		t.Errorf("HTML = %q", explanation.HTML)
	}

	if _, err := svc.ExplainConcept(testContext(), doc.ID, ""); err == nil {
		t.Error("ExplainConcept() with empty concept should fail")
	}
}

func TestStudyService_ChatHistory_Empty(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newStudyService(t, env)
	doc := env.seedDocument(t, "doc", "Content.")

	history, err := svc.ChatHistory(testContext(), doc.ID)
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Errorf("ChatHistory() = %v, want empty non-nil slice", history)
	}

	if _, err := svc.ChatHistory(testContext(), "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("ChatHistory() error = %v, want ErrNotFound", err)
	}
}
