package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shurcooL/markdownfmt/markdown"
)

var (
	// ErrEngineUnavailable means the formatter backend cannot run on this system
	ErrEngineUnavailable = errors.New("formatter engine unavailable")
	// ErrUnknownEngine is returned by NewEngine for unrecognized names
	ErrUnknownEngine = errors.New("unknown formatter engine")
)

// Engine names accepted by NewEngine
const (
	EngineMarkdownfmt = "markdownfmt"
	EnginePrettier    = "prettier"
	EngineNone        = "none"
)

// Options mirrors the formatter settings that matter for markdown
type Options struct {
	TabWidth  int
	UseTabs   bool
	ProseWrap string // always, never, preserve
}

// DefaultOptions returns 4-space indentation with prose left as written
func DefaultOptions() Options {
	return Options{TabWidth: 4, UseTabs: false, ProseWrap: "preserve"}
}

// Engine formats markdown text
type Engine interface {
	Name() string
	Format(ctx context.Context, text string, opts Options) (string, error)
}

// NewEngine selects an engine by name. command is the executable used by the
// prettier engine.
func NewEngine(name, command string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EngineMarkdownfmt, "":
		return MarkdownfmtEngine{}, nil
	case EnginePrettier:
		return NewPrettierEngine(command), nil
	case EngineNone:
		return NopEngine{}, nil
	}
	return nil, fmt.Errorf("%w: %q (supported: %s, %s, %s)", ErrUnknownEngine, name,
		EngineMarkdownfmt, EnginePrettier, EngineNone)
}

// ============================================================================
// In-process Engines
// ============================================================================

// MarkdownfmtEngine formats in-process with markdownfmt
type MarkdownfmtEngine struct{}

// Name implements Engine
func (MarkdownfmtEngine) Name() string { return EngineMarkdownfmt }

// Format implements Engine. markdownfmt has fixed indentation and wrapping, so
// opts is ignored.
func (MarkdownfmtEngine) Format(ctx context.Context, text string, _ Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := markdown.Process("", []byte(text), nil)
	if err != nil {
		return "", fmt.Errorf("markdownfmt: %w", err)
	}
	return string(out), nil
}

// NopEngine returns its input unchanged
type NopEngine struct{}

// Name implements Engine
func (NopEngine) Name() string { return EngineNone }

// Format implements Engine
func (NopEngine) Format(_ context.Context, text string, _ Options) (string, error) {
	return text, nil
}

// ============================================================================
// Prettier Engine
// ============================================================================

// Runner executes a formatter process with text on stdin
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin string) (string, error)
	LookPath(name string) (string, error)
}

// execRunner implements Runner with os/exec
type execRunner struct{}

// Run executes the command and returns stdout
func (execRunner) Run(ctx context.Context, name string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// LookPath resolves name in PATH
func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// PrettierEngine formats by piping text through the prettier CLI
type PrettierEngine struct {
	command string
	runner  Runner
}

// NewPrettierEngine creates an engine running command (default "prettier")
func NewPrettierEngine(command string) *PrettierEngine {
	if command == "" {
		command = "prettier"
	}
	return &PrettierEngine{command: command, runner: execRunner{}}
}

// WithRunner sets a custom runner (useful for testing)
func (e *PrettierEngine) WithRunner(r Runner) *PrettierEngine {
	e.runner = r
	return e
}

// Name implements Engine
func (e *PrettierEngine) Name() string { return EnginePrettier }

// Args returns the prettier command line for opts
func (e *PrettierEngine) Args(opts Options) []string {
	args := []string{"--parser", "markdown", "--tab-width", strconv.Itoa(opts.TabWidth)}
	if opts.UseTabs {
		args = append(args, "--use-tabs")
	}
	if opts.ProseWrap != "" {
		args = append(args, "--prose-wrap", opts.ProseWrap)
	}
	return args
}

// Format implements Engine
func (e *PrettierEngine) Format(ctx context.Context, text string, opts Options) (string, error) {
	path, err := e.runner.LookPath(e.command)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found in PATH", ErrEngineUnavailable, e.command)
	}
	return e.runner.Run(ctx, path, e.Args(opts), text)
}
