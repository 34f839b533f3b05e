package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Mode selects the blank-line policy applied outside fenced code blocks
type Mode string

const (
	// ModeRemove drops every blank line outside fences
	ModeRemove Mode = "remove"
	// ModeCollapse keeps single blank lines and collapses runs to one
	ModeCollapse Mode = "collapse"
)

// DefaultMode is the policy used when nothing else is configured
const DefaultMode = ModeRemove

// ErrUnknownMode is returned by ParseMode for unrecognized names
var ErrUnknownMode = errors.New("unknown normalize mode")

// ParseMode converts a configuration string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRemove:
		return ModeRemove, nil
	case ModeCollapse:
		return ModeCollapse, nil
	}
	return "", fmt.Errorf("%w: %q (expected %q or %q)", ErrUnknownMode, s, ModeRemove, ModeCollapse)
}

// String implements fmt.Stringer
func (m Mode) String() string {
	return string(m)
}

var (
	fenceRegex    = regexp.MustCompile("^([`~]{3,})(.*)$")
	headingRegex  = regexp.MustCompile(`^(?:\s{0,3})#{1,6}\s+`)
	listItemRegex = regexp.MustCompile(`^(?:\s{0,3})(?:[-*+]\s+|\d+\.\s+)`)
	thematicRegex = regexp.MustCompile(`^(?:\s{0,3})(?:-{3,}|_{3,}|\*{3,})\s*$`)
)

// IsHeading reports whether line is an ATX heading
func IsHeading(line string) bool {
	return headingRegex.MatchString(line)
}

// IsListItem reports whether line starts a bullet or ordered list item.
// Normalize itself does not consult it.
func IsListItem(line string) bool {
	return listItemRegex.MatchString(line)
}

// IsThematicBreak reports whether line is a thematic break (---, ___, ***)
func IsThematicBreak(line string) bool {
	return thematicRegex.MatchString(line)
}

// trim strips surrounding whitespace the way editors and browsers see it:
// U+FEFF counts as whitespace, U+0085 does not.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == '\uFEFF' || (unicode.IsSpace(r) && r != '\u0085')
	})
}

// NormalizeLineEndings converts \r\n and bare \r to \n
func NormalizeLineEndings(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// ============================================================================
// Fence Scanner
// ============================================================================

// fenceState is the scanner state: outside any fence, or inside one opened
// with delim. The zero value is outside.
type fenceState struct {
	delim byte
}

func (s fenceState) inside() bool {
	return s.delim != 0
}

// lineKind is the classification of a single line against the fence state
type lineKind int

const (
	lineOrdinary lineKind = iota
	lineFenceOpen
	lineFenceClose
	lineFenceContent
)

// classifyLine returns the kind of line and the state after consuming it
func classifyLine(state fenceState, line string) (lineKind, fenceState) {
	m := fenceRegex.FindStringSubmatch(trim(line))
	switch {
	case m != nil && !state.inside():
		return lineFenceOpen, fenceState{delim: m[1][0]}
	case m != nil && m[1][0] == state.delim:
		return lineFenceClose, fenceState{}
	case state.inside():
		return lineFenceContent, state
	default:
		return lineOrdinary, state
	}
}

// ============================================================================
// Normalizer
// ============================================================================

// Normalizer removes extraneous blank lines from formatter output while
// leaving fenced code blocks untouched.
type Normalizer struct {
	mode Mode
}

// New returns a Normalizer applying mode
func New(mode Mode) Normalizer {
	return Normalizer{mode: mode}
}

// Mode returns the configured policy
func (n Normalizer) Mode() Mode {
	return n.mode
}

// Apply normalizes text with the configured policy
func (n Normalizer) Apply(text string) string {
	return Normalize(text, n.mode)
}

// Normalize applies mode to text. The result never starts or ends with a
// blank line and always ends with exactly one newline.
func Normalize(text string, mode Mode) string {
	lines := strings.Split(NormalizeLineEndings(text), "\n")
	out := make([]string, 0, len(lines))

	var state fenceState
	for i, raw := range lines {
		var kind lineKind
		kind, state = classifyLine(state, raw)
		if kind != lineOrdinary {
			out = append(out, raw)
			continue
		}

		blank := trim(raw) == ""
		if mode == ModeRemove {
			if !blank {
				out = append(out, raw)
			}
			continue
		}

		// collapse
		if !blank {
			out = append(out, raw)
			continue
		}
		next := nextNonBlank(lines, i+1)
		if len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		// Structural lines keep their single preceding blank; the check
		// matches the one above and never suppresses on its own.
		if next != "" && (IsHeading(next) || IsThematicBreak(next)) {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
		}
		out = append(out, "")
	}

	out = trimBlankEdges(out)
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

// nextNonBlank returns the first line at or after start with non-blank content
func nextNonBlank(lines []string, start int) string {
	for _, ln := range lines[start:] {
		if trim(ln) != "" {
			return ln
		}
	}
	return ""
}

// trimBlankEdges drops leading and trailing whitespace-only lines
func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && trim(lines[start]) == "" {
		start++
	}
	for end > start && trim(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
