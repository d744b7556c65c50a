package llm

// Message is a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model overrides the client's default model when set.
	Model string
	// MaxTokens caps the completion length. 0 means no limit.
	MaxTokens int
	// Temperature controls randomness. 0 uses DefaultTemperature.
	Temperature float32
}

// DefaultTemperature is used when ChatParams.Temperature is zero.
const DefaultTemperature float32 = 0.7

// ChatRequest is the OpenAI-compatible chat completions payload.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

// ChatChoice is a single choice in the chat response.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse is the chat completions response.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// errorResponse is the error body OpenAI-compatible servers return.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
