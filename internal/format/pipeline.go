package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/gubarz/mdpane/internal/log"
	"github.com/gubarz/mdpane/internal/normalize"
)

// Pipeline runs an engine followed by the blank-line normalization pass
type Pipeline struct {
	engine     Engine
	opts       Options
	normalizer normalize.Normalizer
	normalize  bool
}

// NewPipeline creates a pipeline with normalization enabled
func NewPipeline(engine Engine, opts Options, mode normalize.Mode) *Pipeline {
	return &Pipeline{
		engine:     engine,
		opts:       opts,
		normalizer: normalize.New(mode),
		normalize:  true,
	}
}

// WithNormalize toggles the post-format blank-line pass
func (p *Pipeline) WithNormalize(enabled bool) *Pipeline {
	p.normalize = enabled
	return p
}

// Engine returns the underlying formatter
func (p *Pipeline) Engine() Engine {
	return p.engine
}

// Mode returns the normalization policy
func (p *Pipeline) Mode() normalize.Mode {
	return p.normalizer.Mode()
}

// Format runs the engine and returns its error, if any. Used for explicit
// format requests where failure should be reported.
func (p *Pipeline) Format(ctx context.Context, md string) (string, error) {
	out, err := p.engine.Format(ctx, md, p.opts)
	if err != nil {
		return "", fmt.Errorf("format markdown: %w", err)
	}
	if p.normalize {
		out = p.normalizer.Apply(out)
	}
	log.Debug(log.CatFormat, "formatted markdown",
		"engine", p.engine.Name(), "mode", p.normalizer.Mode(), "in", len(md), "out", len(out))
	return out, nil
}

// FormatInline formats md and falls back to the raw input on any engine
// failure. Used for pasted content, which must never be dropped.
func (p *Pipeline) FormatInline(ctx context.Context, md string) string {
	out, err := p.Format(ctx, md)
	if err != nil {
		log.WarnErr(log.CatFormat, "formatter failed; using raw markdown", err, "engine", p.engine.Name())
		return md
	}
	return out
}

// Changed reports whether formatting altered the document
func Changed(before, after string) bool {
	return before != after
}

// Diff returns a line-oriented diff of before and after, or "" if they match.
// Removed lines are prefixed with "-", added with "+", unchanged with " ".
func Diff(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, ln := range strings.SplitAfter(d.Text, "\n") {
			if ln == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(ln)
			if !strings.HasSuffix(ln, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}
