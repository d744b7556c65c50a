// Package extract turns uploaded file bytes into plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"studydeck/internal/markdown"
)

var (
	// ErrUnsupportedType is returned for file extensions with no extractor.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoText is returned when a file yields no text at all.
	ErrNoText = errors.New("no text extracted")
)

// Extractor extracts plain text from a file's content.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// Registry dispatches to an extractor by file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry registers the PDF extractor for .pdf, plain text for .txt and
// markdown for .md and .markdown.
func NewRegistry(pdf Extractor, md *markdown.Converter) *Registry {
	mdExtractor := &Markdown{converter: md}
	return &Registry{
		byExt: map[string]Extractor{
			".pdf":      pdf,
			".txt":      PlainText{},
			".md":       mdExtractor,
			".markdown": mdExtractor,
		},
	}
}

// Supported reports whether filename has a registered extension.
func (r *Registry) Supported(filename string) bool {
	_, ok := r.byExt[ext(filename)]
	return ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for e := range r.byExt {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}

// Extract picks the extractor for filename and returns trimmed text.
// Returns ErrNoText when the extractor produced only whitespace.
func (r *Registry) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	e, ok := r.byExt[ext(filename)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}

	text, err := e.Extract(ctx, data, filename)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// PlainText extracts UTF-8 text files.
type PlainText struct{}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extract returns the file content with any BOM removed. Invalid UTF-8
// sequences are replaced.
func (PlainText) Extract(_ context.Context, data []byte, _ string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), "�"), nil
	}
	return string(data), nil
}

// Markdown extracts the plain text of markdown files.
type Markdown struct {
	converter *markdown.Converter
}

// Extract strips markdown syntax, keeping one paragraph per block.
func (m *Markdown) Extract(_ context.Context, data []byte, filename string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	return m.converter.PlainText(data, filename).Text, nil
}
