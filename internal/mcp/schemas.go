package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// listDocumentsTool returns the tool definition for list_documents
func listDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded study documents with their processing status",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// chunkTextTool returns the tool definition for chunk_text
func chunkTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_text",
		Description: "Split text into overlapping, paragraph-aware chunks of a bounded number of words",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to split",
				},
				"chunk_size": map[string]interface{}{
					"type":        "integer",
					"description": "Target maximum words per chunk",
					"minimum":     1,
				},
				"overlap": map[string]interface{}{
					"type":        "integer",
					"description": "Words carried from the end of one chunk into the next (smaller than chunk_size)",
					"minimum":     0,
				},
			},
			Required: []string{"text"},
		},
	}
}

// findRelevantChunksTool returns the tool definition for find_relevant_chunks
func findRelevantChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_relevant_chunks",
		Description: "Rank a document's chunks against a free-text query using keyword matching",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of a processed document",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Question or keywords",
				},
				"max_chunks": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of chunks to return",
					"minimum":     1,
					"maximum":     maxChunksLimit,
				},
			},
			Required: []string{"document_id", "query"},
		},
	}
}
