// Package paste turns clipboard content into markdown and appends it to a
// document. Markdown is preferred over HTML, and HTML over plain text.
package paste

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/gubarz/mdpane/internal/log"
)

// Payload holds the clipboard flavours relevant to markdown
type Payload struct {
	Markdown string // text/markdown
	HTML     string // text/html
	Plain    string // text/plain
}

// Converter turns HTML into markdown
type Converter interface {
	Convert(html string) (string, error)
}

// Formatter formats pasted markdown, returning the input on failure
type Formatter interface {
	FormatInline(ctx context.Context, md string) string
}

// Choose picks the content to insert. ok is false when the payload has
// nothing usable.
func Choose(p Payload, conv Converter) (string, bool) {
	switch {
	case strings.TrimSpace(p.Markdown) != "":
		return p.Markdown, true
	case strings.TrimSpace(p.HTML) != "":
		// HTML with no text content converts to nothing
		md := ConvertHTML(conv, p.HTML)
		return md, md != ""
	case p.Plain != "":
		return p.Plain, true
	}
	return "", false
}

// ConvertHTML converts html with conv, returning html itself when conversion
// fails so the paste is never lost
func ConvertHTML(conv Converter, html string) string {
	if conv == nil {
		return html
	}
	md, err := conv.Convert(html)
	if err != nil {
		log.WarnErr(log.CatPaste, "html conversion failed; inserting raw html", err, "bytes", len(html))
		return html
	}
	return md
}

// Spacer returns the separator needed so appended content starts a new block
func Spacer(existing string) string {
	switch {
	case existing == "", strings.HasSuffix(existing, "\n\n"):
		return ""
	case strings.HasSuffix(existing, "\n"):
		return "\n"
	default:
		return "\n\n"
	}
}

// Append joins formatted onto existing with a blank-line separator
func Append(existing, formatted string) string {
	return existing + Spacer(existing) + formatted
}

// ============================================================================
// HTML Converter
// ============================================================================

var (
	divOpenRe  = regexp.MustCompile(`(?i)<div([^>]*)>`)
	divCloseRe = regexp.MustCompile(`(?i)</div>`)
)

// HTMLConverter converts HTML using html-to-markdown with ATX headings,
// fenced code blocks and "_" emphasis
type HTMLConverter struct {
	conv *converter.Converter
}

// NewHTMLConverter creates the default converter
func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(
					commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
					commonmark.WithCodeBlockFence("```"),
					commonmark.WithEmDelimiter("_"),
				),
			),
		),
	}
}

// Convert implements Converter. Rich-text editors wrap lines in <div>, which
// carry paragraph meaning, so they are rewritten to <p> first.
func (c *HTMLConverter) Convert(html string) (string, error) {
	html = divOpenRe.ReplaceAllString(html, "<p$1>")
	html = divCloseRe.ReplaceAllString(html, "</p>")

	md, err := c.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return md, nil
}

// ============================================================================
// Paste Handler
// ============================================================================

// Handler reads from a clipboard source and appends formatted markdown
type Handler struct {
	src    Source
	conv   Converter
	format Formatter
}

// NewHandler creates a paste handler
func NewHandler(src Source, conv Converter, format Formatter) *Handler {
	return &Handler{src: src, conv: conv, format: format}
}

// Paste returns existing with the clipboard content appended. pasted is false
// when the clipboard held nothing usable; existing is then returned as is.
func (h *Handler) Paste(ctx context.Context, existing string) (doc string, pasted bool, err error) {
	payload, err := h.src.Read()
	if err != nil {
		return existing, false, fmt.Errorf("read clipboard: %w", err)
	}

	chosen, ok := Choose(payload, h.conv)
	if !ok {
		log.Debug(log.CatPaste, "nothing to paste")
		return existing, false, nil
	}

	formatted := chosen
	if h.format != nil {
		formatted = h.format.FormatInline(ctx, chosen)
	}
	log.Debug(log.CatPaste, "pasted content", "bytes", len(formatted))
	return Append(existing, formatted), true, nil
}
