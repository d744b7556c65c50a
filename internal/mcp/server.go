// Package mcp exposes chunking and chunk ranking as MCP tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"studydeck/internal/indexer"
	"studydeck/internal/rag"
	"studydeck/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "studydeck-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Deps holds the server dependencies.
type Deps struct {
	Documents storage.DocumentStore
	Chunks    storage.ChunkStore
	Ranker    *rag.Ranker
	// Chunker holds the defaults for chunk_text when the caller omits sizes.
	Chunker indexer.ChunkerConfig
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	documents storage.DocumentStore
	chunks    storage.ChunkStore
	ranker    *rag.Ranker
	chunker   indexer.ChunkerConfig
}

// NewServer creates a new MCP server instance with all tools registered.
func NewServer(deps Deps) *Server {
	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		documents: deps.Documents,
		chunks:    deps.Chunks,
		ranker:    deps.Ranker,
		chunker:   deps.Chunker,
	}

	s.mcp.AddTool(listDocumentsTool(), s.handleListDocuments)
	s.mcp.AddTool(chunkTextTool(), s.handleChunkText)
	s.mcp.AddTool(findRelevantChunksTool(), s.handleFindRelevantChunks)

	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(_ context.Context) error {
	return server.ServeStdio(s.mcp)
}
