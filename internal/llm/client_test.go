package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatHandler(t *testing.T, check func(req ChatRequest), reply string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if check != nil {
			check(req)
		}
		resp := ChatResponse{
			ID:     "test-id",
			Object: "chat.completion",
			Choices: []ChatChoice{
				{Message: Message{Role: "assistant", Content: reply}, FinishReason: "stop"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080", "test-key", "test-model")
	if client.BaseURL != "http://localhost:8080" {
		t.Errorf("NewClient() BaseURL = %v", client.BaseURL)
	}
	if client.APIKey != "test-key" || client.Model != "test-model" {
		t.Errorf("NewClient() = %+v", client)
	}
	if client.client == nil || client.client.Timeout == 0 {
		t.Error("NewClient() should configure an HTTP client with a timeout")
	}
}

func TestClient_Chat(t *testing.T) {
	tests := []struct {
		name       string
		serverResp http.HandlerFunc
		wantReply  string
		wantErr    string
	}{
		{
			name: "successful chat",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer test-key" {
					t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
				}
				chatHandler(t, func(req ChatRequest) {
					if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "Hello" {
						t.Errorf("messages = %+v", req.Messages)
					}
					if req.Model != "test-model" {
						t.Errorf("model = %q", req.Model)
					}
					if req.Temperature != DefaultTemperature {
						t.Errorf("temperature = %v", req.Temperature)
					}
				}, "Hi there!")(w, r)
			},
			wantReply: "Hi there!",
		},
		{
			name: "no choices returned",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(ChatResponse{ID: "test-id", Choices: []ChatChoice{}})
			},
			wantErr: "no choices",
		},
		{
			name: "server error",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal server error"))
			},
			wantErr: "bad status 500: internal server error",
		},
		{
			name: "openai error body",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
			},
			wantErr: "bad status 401: invalid api key",
		},
		{
			name: "malformed body",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{"))
			},
			wantErr: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.serverResp)
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			reply, err := client.Chat(context.Background(), "Hello")

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Chat() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Chat() unexpected error: %v", err)
			}
			if reply != tt.wantReply {
				t.Errorf("Chat() reply = %v, want %v", reply, tt.wantReply)
			}
		})
	}
}

func TestClient_ChatWithMessages(t *testing.T) {
	server := httptest.NewServer(chatHandler(t, func(req ChatRequest) {
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.Model != "custom-model" || req.MaxTokens != 100 {
			t.Errorf("model/max_tokens = %s/%d", req.Model, req.MaxTokens)
		}
	}, "Response"))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	messages := []Message{
		{Role: "system", Content: "You are a tutor"},
		{Role: "user", Content: "Hello"},
	}

	reply, err := client.ChatWithMessages(context.Background(), messages, ChatParams{
		Model:       "custom-model",
		MaxTokens:   100,
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("ChatWithMessages() error = %v", err)
	}
	if reply != "Response" {
		t.Errorf("ChatWithMessages() reply = %v, want Response", reply)
	}
}

func TestClient_NoAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("Authorization header should be omitted without an API key")
		}
		chatHandler(t, nil, "ok")(w, r)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, "", "m").Chat(context.Background(), "x"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"test-model"}]}`))
	}))
	defer server.Close()

	if err := NewClient(server.URL, "k", "m").Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if err := NewClient(down.URL, "k", "m").Ping(context.Background()); err == nil {
		t.Error("Ping() should fail on 503")
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(chatHandler(t, nil, "late"))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewClient(server.URL, "k", "m").Chat(ctx, "x"); err == nil {
		t.Error("Chat() with cancelled context should fail")
	}
}
