// Package inbox ingests documents dropped into a directory.
package inbox

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"studydeck/internal/contextutil"
	"studydeck/internal/storage"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// Ingester stores and processes a file from disk.
type Ingester interface {
	IngestFile(ctx context.Context, path string) (doc *storage.DocumentRecord, skipped bool, err error)
}

// Config holds inbox settings.
type Config struct {
	Dir        string
	Extensions []string // Lower-case with leading dot, e.g. ".pdf"
	Debounce   time.Duration
}

// Watcher ingests the files of an inbox directory: existing ones on start,
// new or rewritten ones as fsnotify reports them.
type Watcher struct {
	dir        string
	extensions []string
	debounce   time.Duration
	ingester   Ingester
}

// NewWatcher creates an inbox watcher.
func NewWatcher(ingester Ingester, cfg Config) *Watcher {
	exts := make([]string, len(cfg.Extensions))
	for i, e := range cfg.Extensions {
		exts[i] = strings.ToLower(e)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:        filepath.Clean(cfg.Dir),
		extensions: exts,
		debounce:   debounce,
		ingester:   ingester,
	}
}

// IngestExisting ingests every supported file already in the inbox and
// returns how many new documents were created. Per-file errors are logged.
func (w *Watcher) IngestExisting(ctx context.Context) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := w.Scan(ctx)
	if err != nil {
		return 0, err
	}

	ingested := 0
	for _, f := range files {
		if ctx.Err() != nil {
			return ingested, ctx.Err()
		}
		if w.ingest(ctx, f.AbsPath) {
			ingested++
		}
	}
	logger.InfoContext(ctx, "inbox scan complete", "dir", w.dir, "files", len(files), "ingested", ingested)
	return ingested, nil
}

// Run ingests existing files, then watches the inbox until ctx is cancelled.
// Only setup failures are returned.
func (w *Watcher) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx).With("dir", w.dir)
	ctx = contextutil.WithLogger(ctx, logger)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create inbox directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()

	if err := w.watchTree(fw, w.dir); err != nil {
		return err
	}

	if _, err := w.IngestExisting(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.ErrorContext(ctx, "inbox scan failed", "error", err)
	}

	logger.InfoContext(ctx, "watching inbox")
	w.loop(ctx, fw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	logger := contextutil.LoggerFromContext(ctx)

	// Editors and copies emit several writes per file; each path is ingested
	// once it has been quiet for the debounce interval.
	d := newDebouncer(w.debounce)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !isHidden(event.Name) {
						if err := w.watchTree(fw, event.Name); err != nil {
							logger.WarnContext(ctx, "failed to watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}
			if !w.accepts(event.Name) {
				continue
			}
			d.touch(ctx, event.Name)

		case path := <-d.ready:
			d.done(path)
			w.ingest(ctx, path)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.WarnContext(ctx, "file watcher error", "error", err)
		}
	}
}

// debouncer delivers a path on ready once it has gone quiet for delay.
// It is owned by a single goroutine.
type debouncer struct {
	delay  time.Duration
	ready  chan string
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		ready:  make(chan string),
		timers: make(map[string]*time.Timer),
	}
}

// touch starts or extends the quiet period for path.
func (d *debouncer) touch(ctx context.Context, path string) {
	if t, ok := d.timers[path]; ok {
		// A timer that already fired is delivering path; re-arming it would
		// send the path a second time.
		if t.Stop() {
			t.Reset(d.delay)
		}
		return
	}
	d.timers[path] = time.AfterFunc(d.delay, func() {
		select {
		case d.ready <- path:
		case <-ctx.Done():
		}
	})
}

// done forgets path after its delivery has been received.
func (d *debouncer) done(path string) {
	delete(d.timers, path)
}

func (d *debouncer) stop() {
	for _, t := range d.timers {
		t.Stop()
	}
}

// watchTree adds root and its visible subdirectories to the watcher.
func (w *Watcher) watchTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// ingest reports whether a new document was created.
func (w *Watcher) ingest(ctx context.Context, path string) bool {
	logger := contextutil.LoggerFromContext(ctx).With("path", path)

	doc, skipped, err := w.ingester.IngestFile(ctx, path)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "failed to ingest inbox file", "error", err)
		return false
	case skipped:
		logger.DebugContext(ctx, "inbox file already ingested", "document_id", doc.ID)
		return false
	default:
		logger.InfoContext(ctx, "inbox file ingested", "document_id", doc.ID)
		return true
	}
}
