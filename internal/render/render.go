package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"

	"github.com/gubarz/mdpane/internal/log"
)

// Terminal renders markdown to ANSI text for the preview pane
type Terminal struct {
	style    string
	wrap     int
	renderer *glamour.TermRenderer
}

// NewTerminal creates a renderer with a glamour standard style
// ("dark", "light", "dracula", "notty", ...) wrapping at wrap columns
func NewTerminal(style string, wrap int) *Terminal {
	if style == "" {
		style = "dark"
	}
	return &Terminal{style: style, wrap: wrap}
}

// WithWidth returns a renderer wrapping at width. The receiver is returned
// when wrap is unchanged so the built renderer is reused.
func (t *Terminal) WithWidth(width int) *Terminal {
	if width == t.wrap {
		return t
	}
	return NewTerminal(t.style, width)
}

// Wrap returns the configured wrap width
func (t *Terminal) Wrap() int {
	return t.wrap
}

// Render converts md to styled terminal output
func (t *Terminal) Render(md string) (string, error) {
	if t.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(t.style),
			glamour.WithWordWrap(t.wrap),
		)
		if err != nil {
			return "", fmt.Errorf("failed to create renderer: %w", err)
		}
		t.renderer = r
	}

	out, err := t.renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// Fenced code is highlighted with inline styles so exported pages need no stylesheet
var htmlMarkdown = goldmark.New(goldmark.WithExtensions(
	extension.GFM,
	highlighting.NewHighlighting(highlighting.WithStyle("github")),
))

// HTML converts md to an HTML fragment using GitHub flavoured markdown with
// highlighted code blocks
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := htmlMarkdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	log.Debug(log.CatRender, "rendered html", "bytes", buf.Len())
	return buf.String(), nil
}

// Page wraps an HTML fragment in a minimal standalone document
func Page(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<article class="markdown-body">
%s</article>
</body>
</html>
`, html.EscapeString(title), body)
}
