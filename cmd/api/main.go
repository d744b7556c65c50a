package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studydeck/internal/config"
	"studydeck/internal/contextutil"
	"studydeck/internal/extract"
	"studydeck/internal/handlers"
	"studydeck/internal/http"
	"studydeck/internal/inbox"
	"studydeck/internal/indexer"
	"studydeck/internal/llm"
	"studydeck/internal/markdown"
	"studydeck/internal/rag"
	"studydeck/internal/service"
	"studydeck/internal/storage"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API turns uploaded study documents into flashcards, quizzes, summaries and grounded chat answers.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: StudyDeck API
//   description: |
//     Upload PDFs, text or markdown files; the backend extracts and chunks their text and uses an LLM
//     to generate flashcards, quizzes, summaries and answers grounded in the most relevant chunks.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
//   - multipart/form-data
// produces:
//   - application/json

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = contextutil.WithLogger(ctx, logger)

	// Initialize database
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
	slog.Info("Database initialized", "path", cfg.DBPath, "driver", storage.DriverName, "build", storage.BuildMode)

	stores := service.NewStores(db)

	// Ranking
	stopWords := rag.DefaultStopWords()
	if cfg.StopwordsFile != "" {
		stopWords, err = rag.LoadStopWords(cfg.StopwordsFile)
		if err != nil {
			log.Fatalf("Failed to load stop words: %v", err)
		}
		slog.Info("Stop words loaded", "path", cfg.StopwordsFile, "count", len(stopWords))
	}
	ranker, err := rag.NewRanker(rag.RankerConfig{
		MaxChunks: cfg.MaxContextChunks,
		StopWords: stopWords,
	})
	if err != nil {
		log.Fatalf("Failed to create ranker: %v", err)
	}

	// Ingestion pipeline
	md := markdown.New()
	pdfService := extract.NewPDFService(cfg.PDFServiceURL)
	extractors := extract.NewRegistry(pdfService, md)

	chunker, err := indexer.NewChunker(cfg.Chunker())
	if err != nil {
		log.Fatalf("Failed to create chunker: %v", err)
	}
	pipeline := indexer.NewPipeline(stores.Documents, extractors, chunker, cfg.UploadDir)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	documents := service.NewDocumentService(stores, pipeline, service.DocumentConfig{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Extensions:     extractors.Extensions(),
		Chunker:        cfg.Chunker(),
	})

	// Create router with dependencies
	deps := &http.Deps{
		Documents:      documents,
		Study:          service.NewStudyService(stores, llmClient, ranker, md),
		Flashcards:     service.NewFlashcardService(stores),
		Quizzes:        service.NewQuizService(stores),
		Progress:       service.NewProgressService(stores),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		HealthChecks: []handlers.HealthCheck{
			{Name: "database", Critical: true, Check: db.PingContext},
			{Name: "llm", Check: llmClient.Ping},
			{Name: "pdf_service", Check: pdfService.Ping},
		},
	}
	router := http.NewRouter(deps)

	// Watch the inbox in background after router is ready
	inboxDone := make(chan struct{})
	if cfg.InboxDir != "" {
		watcher := inbox.NewWatcher(pipeline, inbox.Config{
			Dir:        cfg.InboxDir,
			Extensions: extractors.Extensions(),
		})
		go func() {
			defer close(inboxDone)
			if err := watcher.Run(ctx); err != nil {
				slog.Error("Inbox watcher stopped", "dir", cfg.InboxDir, "error", err)
			}
		}()
	} else {
		close(inboxDone)
	}

	// Start API server
	addr := ":" + cfg.APIPort
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		log.Fatalf("API server failed to start: %v", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	// Let in-flight document processing finish before the database closes
	documents.Wait()
	<-inboxDone
	slog.Info("Server stopped")
}
