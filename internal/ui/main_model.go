package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/mdpane/internal/format"
	"github.com/gubarz/mdpane/internal/log"
	"github.com/gubarz/mdpane/internal/paste"
	"github.com/gubarz/mdpane/internal/render"
)

const (
	renderDelay     = 50 * time.Millisecond
	formatFlash     = 500 * time.Millisecond
	copyFlash       = 300 * time.Millisecond
	splitStep       = 5
	minPanePercent  = 20
	chromeHeight    = 2 // status + help
	borderSize      = 2
	defaultSplitPct = 50
)

// ============================================================================
// Dependencies
// ============================================================================

// Saver persists the document
type Saver interface {
	Save(content string)
}

// Deps wires the editor to its collaborators
type Deps struct {
	Title    string
	Content  string
	Saver    Saver
	Pipeline *format.Pipeline
	Paste    *paste.Handler
	Sink     paste.Sink
	Renderer *render.Terminal
	Split    int
}

// ============================================================================
// Messages
// ============================================================================

// renderMsg fires after the debounce; stale sequence numbers are ignored
type renderMsg struct{ seq int }

type formatDoneMsg struct {
	before string
	out    string
	err    error
}

type pasteDoneMsg struct {
	before string
	doc    string
	pasted bool
	err    error
}

type clearStatusMsg struct{ seq int }

// ============================================================================
// Model
// ============================================================================

// paneFocus is which pane receives keys
type paneFocus int

const (
	focusEditor paneFocus = iota
	focusPreview
)

// mainModel is the split-pane editor/preview model
type mainModel struct {
	width    int
	height   int
	quitting bool

	editor  textarea.Model
	preview viewport.Model
	focus   paneFocus
	split   int // editor width in percent

	title    string
	saver    Saver
	pipeline *format.Pipeline
	paster   *paste.Handler
	sink     paste.Sink
	renderer *render.Terminal

	savedValue string // document as last loaded or saved

	renderSeq int
	statusSeq int
	status    string
	statusErr bool
}

// newMainModel creates the model with the initial document loaded
func newMainModel(d Deps) mainModel {
	ta := textarea.New()
	ta.Placeholder = "Write markdown..."
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetValue(d.Content)
	ta.Focus()

	split := d.Split
	if !validSplit(split) {
		split = defaultSplitPct
	}

	renderer := d.Renderer
	if renderer == nil {
		renderer = render.NewTerminal("dark", 80)
	}

	return mainModel{
		editor:   ta,
		preview:  viewport.New(0, 0),
		focus:    focusEditor,
		split:    split,
		title:    d.Title,
		saver:    d.Saver,
		pipeline: d.Pipeline,
		paster:   d.Paste,
		sink:     d.Sink,
		renderer: renderer,

		savedValue: ta.Value(),
	}
}

// Init implements tea.Model
func (m mainModel) Init() tea.Cmd {
	seq := m.renderSeq
	return tea.Batch(textarea.Blink, func() tea.Msg { return renderMsg{seq: seq} })
}

// Update implements tea.Model
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, m.scheduleRender()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case renderMsg:
		if msg.seq == m.renderSeq {
			m.refreshPreview()
		}
		return m, nil

	case formatDoneMsg:
		return m, m.applyFormat(msg)

	case pasteDoneMsg:
		return m, m.applyPaste(msg)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused pane, scheduling a render when
// the document changed
func (m mainModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusPreview {
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	before := m.editor.Value()
	m.editor, cmd = m.editor.Update(msg)
	if m.editor.Value() != before {
		return m, tea.Batch(cmd, m.scheduleRender())
	}
	return m, cmd
}

// handleKey processes global shortcuts. handled is false for keys that
// belong to the focused pane.
func (m *mainModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		m.saveIfChanged()
		return tea.Quit, true
	case "ctrl+f":
		return m.startFormat(), true
	case "ctrl+v":
		return m.startPaste(), true
	case "ctrl+y":
		return m.copyDocument(), true
	case "ctrl+s":
		m.save()
		return m.flash("saved", false, copyFlash), true
	case "tab":
		m.toggleFocus()
		return nil, true
	case "ctrl+left":
		m.resize(-splitStep)
		return m.scheduleRender(), true
	case "ctrl+right":
		m.resize(splitStep)
		return m.scheduleRender(), true
	}
	return nil, false
}

// ============================================================================
// Actions
// ============================================================================

// startFormat runs the pipeline off the update loop
func (m *mainModel) startFormat() tea.Cmd {
	if m.pipeline == nil {
		return m.flash("formatter not configured", true, formatFlash)
	}
	before := m.editor.Value()
	pipeline := m.pipeline
	return func() tea.Msg {
		out, err := pipeline.Format(context.Background(), before)
		return formatDoneMsg{before: before, out: out, err: err}
	}
}

// applyFormat installs the formatted text if the document did not change
// while formatting
func (m *mainModel) applyFormat(msg formatDoneMsg) tea.Cmd {
	if msg.err != nil {
		log.ErrorErr(log.CatUI, "failed to format markdown", msg.err)
		return m.flash("format failed: "+msg.err.Error(), true, formatFlash*4)
	}
	if m.editor.Value() != msg.before {
		return m.flash("document changed while formatting", true, formatFlash)
	}
	if !format.Changed(msg.before, msg.out) {
		return m.flash("✓ already formatted", false, formatFlash)
	}
	m.editor.SetValue(msg.out)
	return tea.Batch(m.flash("✓ formatted", false, formatFlash), m.scheduleRender())
}

// startPaste reads the clipboard off the update loop
func (m *mainModel) startPaste() tea.Cmd {
	if m.paster == nil {
		return m.flash("clipboard not available", true, formatFlash)
	}
	before := m.editor.Value()
	paster := m.paster
	return func() tea.Msg {
		doc, pasted, err := paster.Paste(context.Background(), before)
		return pasteDoneMsg{before: before, doc: doc, pasted: pasted, err: err}
	}
}

// applyPaste replaces the document with the appended version and leaves the
// cursor at the end
func (m *mainModel) applyPaste(msg pasteDoneMsg) tea.Cmd {
	switch {
	case msg.err != nil:
		log.ErrorErr(log.CatUI, "paste failed", msg.err)
		return m.flash("paste failed: "+msg.err.Error(), true, formatFlash*4)
	case !msg.pasted:
		return m.flash("nothing to paste", false, formatFlash)
	case m.editor.Value() != msg.before:
		return m.flash("document changed while pasting", true, formatFlash)
	}
	m.editor.SetValue(msg.doc)
	m.focus = focusEditor
	m.editor.Focus()
	return tea.Batch(m.flash("✓ pasted", false, formatFlash), m.scheduleRender())
}

// copyDocument writes the document to the clipboard sink
func (m *mainModel) copyDocument() tea.Cmd {
	if m.sink == nil {
		return m.flash("clipboard not available", true, copyFlash)
	}
	if err := m.sink.Write(m.editor.Value()); err != nil {
		log.ErrorErr(log.CatUI, "failed to copy", err)
		return m.flash("copy failed: "+err.Error(), true, formatFlash*4)
	}
	return m.flash("✓ copied", false, copyFlash)
}

// save persists the current document
func (m *mainModel) save() {
	if m.saver == nil {
		return
	}
	m.savedValue = m.editor.Value()
	m.saver.Save(m.savedValue)
}

// saveIfChanged saves only when the document differs from what was loaded or
// last saved, so opening a new file does not create it
func (m *mainModel) saveIfChanged() {
	if m.editor.Value() != m.savedValue {
		m.save()
	}
}

// flash sets a status message cleared after d
func (m *mainModel) flash(text string, isErr bool, d time.Duration) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusErr = isErr
	seq := m.statusSeq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// toggleFocus switches keyboard focus between the panes
func (m *mainModel) toggleFocus() {
	if m.focus == focusEditor {
		m.focus = focusPreview
		m.editor.Blur()
		return
	}
	m.focus = focusEditor
	m.editor.Focus()
}

// ============================================================================
// Layout and Rendering
// ============================================================================

// validSplit reports whether both panes keep more than the minimum width
func validSplit(split int) bool {
	return split > minPanePercent && 100-split > minPanePercent
}

// resize moves the divider by delta percent, refusing moves that would make
// either pane too narrow
func (m *mainModel) resize(delta int) {
	if next := m.split + delta; validSplit(next) {
		m.split = next
		m.layout()
	}
}

// paneWidths returns the outer widths of the editor and preview panes
func (m mainModel) paneWidths() (int, int) {
	left := m.width * m.split / 100
	return left, m.width - left
}

// layout sizes the widgets to fit inside the pane borders
func (m *mainModel) layout() {
	left, right := m.paneWidths()
	inner := maxInt(m.height-chromeHeight-borderSize, 1)

	m.editor.SetWidth(maxInt(left-borderSize, 1))
	m.editor.SetHeight(inner)
	m.preview.Width = maxInt(right-borderSize, 1)
	m.preview.Height = inner
}

// scheduleRender debounces preview rendering and saving
func (m *mainModel) scheduleRender() tea.Cmd {
	m.renderSeq++
	seq := m.renderSeq
	return tea.Tick(renderDelay, func(time.Time) tea.Msg {
		return renderMsg{seq: seq}
	})
}

// refreshPreview saves a changed document and re-renders the preview pane
func (m *mainModel) refreshPreview() {
	text := m.editor.Value()
	m.saveIfChanged()

	width := m.preview.Width
	if width <= 0 {
		width = m.renderer.Wrap()
	}
	m.renderer = m.renderer.WithWidth(width)

	out, err := m.renderer.Render(text)
	if err != nil {
		log.WarnErr(log.CatRender, "preview render failed", err)
		out = text
	}
	m.preview.SetContent(out)
}

// View implements tea.Model
func (m mainModel) View() string {
	if m.quitting {
		return ""
	}

	left, right := m.paneWidths()
	editorPane := styles.PaneStyle(m.focus == focusEditor).
		Width(maxInt(left-borderSize, 1)).
		Render(m.editor.View())
	previewPane := styles.PaneStyle(m.focus == focusPreview).
		Width(maxInt(right-borderSize, 1)).
		Render(m.preview.View())

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, editorPane, previewPane))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(styles.Help.Render("ctrl+f format • ctrl+v paste • ctrl+y copy • ctrl+s save • tab focus • ctrl+←/→ resize • esc quit"))
	return b.String()
}

// renderStatus renders the title and the current status flash
func (m mainModel) renderStatus() string {
	line := styles.Title.Render(m.title)
	if m.status == "" {
		return line
	}
	style := styles.Status
	if m.statusErr {
		style = styles.StatusErr
	}
	return line + "  " + style.Render(m.status)
}

// ============================================================================
// Run TUI
// ============================================================================

// getTTY returns file handles for TUI input/output
// Uses /dev/tty when stdout is piped so the editor still reaches the terminal
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	var closers []func()

	if isPiped(os.Stdout) {
		out, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			out = os.Stderr
		} else {
			closers = append(closers, func() { out.Close() })
		}

		in, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			in = os.Stdin
		} else {
			closers = append(closers, func() { in.Close() })
		}

		// Tell lipgloss to use the TTY for color detection
		lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))

		return in, out, func() {
			for _, c := range closers {
				c()
			}
		}
	}

	return os.Stdin, os.Stdout, func() {}
}

// isPiped reports whether f is known not to be a terminal. A file that
// cannot be inspected is treated as a terminal.
func isPiped(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

// Run launches the editor and returns the final document
func Run(d Deps) (string, error) {
	m := newMainModel(d)

	ttyIn, ttyOut, cleanup := getTTY()
	RefreshStyles() // Refresh after getTTY sets up the renderer
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(ttyOut), tea.WithInput(ttyIn))
	finalModel, err := p.Run()
	cleanup()

	if err != nil {
		return "", fmt.Errorf("run editor: %w", err)
	}

	result := finalModel.(mainModel)
	result.saveIfChanged()
	return result.editor.Value(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
