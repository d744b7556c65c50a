// Package markdown converts markdown in both directions the study backend needs:
// uploaded .md files become plain paragraphs for chunking, and LLM answers
// (which are markdown) are rendered to HTML for the frontend.
package markdown

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Converter wraps a goldmark instance with tables enabled.
// It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// New creates a new Converter.
func New() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
}

// ToHTML renders markdown to HTML. Raw HTML in the input is not passed through.
func (c *Converter) ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// Document is the plain-text view of a markdown file.
type Document struct {
	Title string
	// Text holds one block per paragraph, separated by blank lines.
	Text string
}

// PlainText strips markdown syntax. Headings, paragraphs, list items, code
// blocks and table rows each become a separate paragraph so the chunker sees
// the document's block structure.
func (c *Converter) PlainText(content []byte, filename string) Document {
	if len(bytes.TrimSpace(content)) == 0 {
		return Document{Title: titleFromFilename(filename)}
	}

	doc := c.md.Parser().Parse(text.NewReader(content))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			blocks = appendBlock(blocks, textOf(v, content))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			blocks = appendBlock(blocks, linesOf(v, content))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			blocks = appendBlock(blocks, linesOf(v, content))
			return ast.WalkSkipChildren, nil
		case *extast.TableHeader, *extast.TableRow:
			blocks = appendBlock(blocks, tableRowText(v, content))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return Document{
		Title: extractTitle(doc, content, filename),
		Text:  strings.Join(blocks, "\n\n"),
	}
}

func appendBlock(blocks []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		blocks = append(blocks, s)
	}
	return blocks
}

// extractTitle returns the first level-1 heading, else the first level-2
// heading, else a title derived from the file name.
func extractTitle(doc ast.Node, content []byte, filename string) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			headingText := textOf(heading, content)
			if heading.Level == 1 && firstH1 == "" {
				firstH1 = headingText
				return ast.WalkStop, nil
			}
			if heading.Level == 2 && firstH2 == "" {
				firstH2 = headingText
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return titleFromFilename(filename)
}

// titleFromFilename drops the extension and capitalizes each word.
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// textOf concatenates the inline text under n. Soft line breaks become spaces.
func textOf(n ast.Node, content []byte) string {
	var sb strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		case *ast.AutoLink:
			sb.Write(v.URL(content))
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}

// linesOf returns the raw lines of a code block.
func linesOf(n ast.Node, content []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(content))
	}
	return sb.String()
}

// tableRowText joins the cells of a table row with " | ".
func tableRowText(row ast.Node, content []byte) string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		cells = append(cells, textOf(cell, content))
	}
	return strings.Join(cells, " | ")
}
