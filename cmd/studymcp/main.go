package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"studydeck/internal/config"
	"studydeck/internal/mcp"
	"studydeck/internal/rag"
	"studydeck/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Log to stderr (stdout reserved for MCP protocol)
	log.SetOutput(os.Stderr)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("MCP server starting", "version", mcp.ServerVersion, "driver", storage.DriverName, "build", storage.BuildMode)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	stopWords := rag.DefaultStopWords()
	if cfg.StopwordsFile != "" {
		stopWords, err = rag.LoadStopWords(cfg.StopwordsFile)
		if err != nil {
			log.Fatalf("Failed to load stop words: %v", err)
		}
	}
	ranker, err := rag.NewRanker(rag.RankerConfig{
		MaxChunks: cfg.MaxContextChunks,
		StopWords: stopWords,
	})
	if err != nil {
		log.Fatalf("Failed to create ranker: %v", err)
	}

	server := mcp.NewServer(mcp.Deps{
		Documents: storage.NewDocumentRepo(db),
		Chunks:    storage.NewChunkRepo(db),
		Ranker:    ranker,
		Chunker:   cfg.Chunker(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
		cancel()
	case err := <-errChan:
		if err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}
