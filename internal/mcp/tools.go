package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"studydeck/internal/contextutil"
	"studydeck/internal/indexer"
	"studydeck/internal/rag"
	"studydeck/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeDocumentNotFound = -32001 // No document with the given ID
	ErrorCodeDocumentNotReady = -32002 // Document is still processing or failed
)

const maxChunksLimit = 50

// handleListDocuments handles the list_documents tool invocation
func (s *Server) handleListDocuments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list documents", "error", err)
		return nil, newMCPError(ErrorCodeInternalError, "failed to list documents", nil)
	}

	items := make([]map[string]interface{}, len(docs))
	for i, d := range docs {
		items[i] = map[string]interface{}{
			"id":              d.ID,
			"title":           d.Title,
			"file_name":       d.FileName,
			"status":          d.Status,
			"flashcard_count": d.FlashcardCount,
			"quiz_count":      d.QuizCount,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"documents": items,
		"count":     len(items),
	})), nil
}

// handleChunkText handles the chunk_text tool invocation
func (s *Server) handleChunkText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or not a string",
		})
	}

	cfg := indexer.ChunkerConfig{
		ChunkSize: getIntDefault(args, "chunk_size", s.chunker.ChunkSize),
		Overlap:   getIntDefault(args, "overlap", s.chunker.Overlap),
	}
	chunker, err := indexer.NewChunker(cfg)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid chunk settings", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	chunks := chunker.Chunk(text)
	contents := make([]string, len(chunks))
	items := make([]map[string]interface{}, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
		items[i] = map[string]interface{}{
			"chunk_index": c.ChunkIndex,
			"content":     c.Content,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"chunks": items,
		"stats":  indexer.ComputeChunkStats(contents, cfg),
	})), nil
}

// handleFindRelevantChunks handles the find_relevant_chunks tool invocation
func (s *Server) handleFindRelevantChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	documentID, ok := args["document_id"].(string)
	if !ok || documentID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_id parameter is required", map[string]interface{}{
			"param":  "document_id",
			"reason": "missing or empty",
		})
	}
	query := getStringDefault(args, "query", "")

	maxChunks := getIntDefault(args, "max_chunks", s.ranker.MaxChunks())
	if maxChunks < 1 || maxChunks > maxChunksLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("max_chunks must be between 1 and %d", maxChunksLimit), map[string]interface{}{
			"param": "max_chunks",
			"value": maxChunks,
		})
	}

	doc, err := s.documents.GetByID(ctx, documentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeDocumentNotFound, "document not found", map[string]interface{}{
			"document_id": documentID,
		})
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get document", "document_id", documentID, "error", err)
		return nil, newMCPError(ErrorCodeInternalError, "failed to get document", nil)
	}
	if doc.Status != storage.StatusReady {
		return nil, newMCPError(ErrorCodeDocumentNotReady, "document is not ready", map[string]interface{}{
			"document_id": documentID,
			"status":      doc.Status,
		})
	}

	records, err := s.chunks.ListByDocument(ctx, documentID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list chunks", "document_id", documentID, "error", err)
		return nil, newMCPError(ErrorCodeInternalError, "failed to list chunks", nil)
	}
	chunks := make([]rag.Chunk, len(records))
	for i, r := range records {
		chunks[i] = rag.Chunk{
			ID:         r.ID,
			Content:    r.Content,
			ChunkIndex: r.ChunkIndex,
			PageNumber: r.PageNumber,
		}
	}

	ranked := s.ranker.FindRelevantChunks(chunks, query, maxChunks)
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"document_id": documentID,
		"query":       query,
		"terms":       s.ranker.QueryTerms(query),
		"chunks":      ranked,
	})), nil
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value.
// JSON numbers arrive as float64.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
