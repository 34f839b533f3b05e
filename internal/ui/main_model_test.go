package ui

import (
	"context"
	"errors"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/mdpane/internal/format"
	"github.com/gubarz/mdpane/internal/normalize"
	"github.com/gubarz/mdpane/internal/paste"
	"github.com/gubarz/mdpane/internal/render"
)

// recordingSaver keeps every saved document
type recordingSaver struct {
	saved []string
}

func (r *recordingSaver) Save(content string) {
	r.saved = append(r.saved, content)
}

func (r *recordingSaver) last() string {
	if len(r.saved) == 0 {
		return ""
	}
	return r.saved[len(r.saved)-1]
}

// failingEngine always returns err
type failingEngine struct{ err error }

func (failingEngine) Name() string { return "failing" }

func (f failingEngine) Format(context.Context, string, format.Options) (string, error) {
	return "", f.err
}

func newTestModel(t *testing.T, content string, saver *recordingSaver, sink *paste.MemorySink, src paste.Source) mainModel {
	t.Helper()
	pipeline := format.NewPipeline(format.NopEngine{}, format.DefaultOptions(), normalize.ModeRemove)
	deps := Deps{
		Title:    "test",
		Content:  content,
		Saver:    saver,
		Pipeline: pipeline,
		Paste:    paste.NewHandler(src, nil, pipeline),
		Renderer: render.NewTerminal("notty", 40),
	}
	if sink != nil {
		deps.Sink = sink
	}
	return update(t, newMainModel(deps), tea.WindowSizeMsg{Width: 100, Height: 30})
}

func update(t *testing.T, m mainModel, msg tea.Msg) mainModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(mainModel)
}

// press sends a key. Commands from format and paste run synchronously and
// their result is fed back; timer commands are dropped.
func press(t *testing.T, m mainModel, key tea.KeyType) mainModel {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	m = next.(mainModel)
	if cmd == nil || (key != tea.KeyCtrlF && key != tea.KeyCtrlV) {
		return m
	}
	switch msg := cmd().(type) {
	case formatDoneMsg, pasteDoneMsg:
		return update(t, m, msg)
	}
	return m
}

func TestMainModel_Layout(t *testing.T) {
	m := newTestModel(t, "", &recordingSaver{}, &paste.MemorySink{}, paste.StaticSource{})

	left, right := m.paneWidths()
	require.Equal(t, 50, left)
	require.Equal(t, 50, right)
	require.Equal(t, 48, m.preview.Width)
	require.Equal(t, 26, m.preview.Height)
}

func TestMainModel_Format(t *testing.T) {
	m := newTestModel(t, "# Title\n\n\n\nSome text\n", &recordingSaver{}, nil, paste.StaticSource{})

	m = press(t, m, tea.KeyCtrlF)
	require.Equal(t, "# Title\nSome text\n", m.editor.Value())
	require.Equal(t, "✓ formatted", m.status)
	require.False(t, m.statusErr)

	m = press(t, m, tea.KeyCtrlF)
	require.Equal(t, "✓ already formatted", m.status)
}

func TestMainModel_FormatError(t *testing.T) {
	m := newTestModel(t, "text", &recordingSaver{}, nil, paste.StaticSource{})
	m.pipeline = format.NewPipeline(failingEngine{err: errors.New("no prettier")}, format.DefaultOptions(), normalize.ModeRemove)

	m = press(t, m, tea.KeyCtrlF)
	require.Equal(t, "text", m.editor.Value())
	require.True(t, m.statusErr)
	require.Contains(t, m.status, "no prettier")
}

func TestMainModel_FormatStaleResultIgnored(t *testing.T) {
	m := newTestModel(t, "a\n\n\nb", &recordingSaver{}, nil, paste.StaticSource{})

	m = update(t, m, formatDoneMsg{before: "something else", out: "x\n"})
	require.Equal(t, "a\n\n\nb", m.editor.Value())
	require.True(t, m.statusErr)
}

func TestMainModel_Paste(t *testing.T) {
	src := paste.StaticSource{Payload: paste.Payload{Markdown: "pasted\n\n\nblock"}}
	m := newTestModel(t, "existing\n", &recordingSaver{}, nil, src)

	m = press(t, m, tea.KeyCtrlV)
	require.Equal(t, "existing\n\npasted\nblock\n", m.editor.Value())
	require.Equal(t, "✓ pasted", m.status)
	require.Equal(t, focusEditor, m.focus)
}

func TestMainModel_PasteNothing(t *testing.T) {
	m := newTestModel(t, "keep", &recordingSaver{}, nil, paste.StaticSource{})

	m = press(t, m, tea.KeyCtrlV)
	require.Equal(t, "keep", m.editor.Value())
	require.Equal(t, "nothing to paste", m.status)
}

func TestMainModel_Copy(t *testing.T) {
	sink := &paste.MemorySink{}
	m := newTestModel(t, "copy me", &recordingSaver{}, sink, paste.StaticSource{})

	m = press(t, m, tea.KeyCtrlY)
	require.Equal(t, "copy me", sink.Text)
	require.Equal(t, "✓ copied", m.status)

	m.sink = &paste.MemorySink{Err: errors.New("denied")}
	m = press(t, m, tea.KeyCtrlY)
	require.True(t, m.statusErr)
}

func TestMainModel_Resize(t *testing.T) {
	m := newTestModel(t, "", &recordingSaver{}, nil, paste.StaticSource{})

	for i := 0; i < 10; i++ {
		m = press(t, m, tea.KeyCtrlLeft)
	}
	require.Equal(t, 25, m.split)

	for i := 0; i < 20; i++ {
		m = press(t, m, tea.KeyCtrlRight)
	}
	require.Equal(t, 75, m.split)
	left, _ := m.paneWidths()
	require.Equal(t, 75, left)
}

func TestMainModel_InvalidInitialSplit(t *testing.T) {
	m := newMainModel(Deps{Split: 90})
	require.Equal(t, defaultSplitPct, m.split)
}

func TestMainModel_RenderSavesAndPreviews(t *testing.T) {
	saver := &recordingSaver{}
	m := newTestModel(t, "# Heading\n", saver, nil, paste.StaticSource{})

	// The first render previews without writing the untouched document.
	m = update(t, m, renderMsg{seq: m.renderSeq})
	require.Empty(t, saver.saved)
	require.Contains(t, m.preview.View(), "Heading")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	// A stale tick does nothing.
	m = update(t, m, renderMsg{seq: m.renderSeq - 1})
	require.Empty(t, saver.saved)

	m = update(t, m, renderMsg{seq: m.renderSeq})
	require.Equal(t, "# Heading\nx", saver.last())

	// Rendering again without edits does not save twice.
	m = update(t, m, renderMsg{seq: m.renderSeq})
	require.Len(t, saver.saved, 1)
}

func TestMainModel_ForceSave(t *testing.T) {
	saver := &recordingSaver{}
	m := newTestModel(t, "same", saver, nil, paste.StaticSource{})

	m = press(t, m, tea.KeyCtrlS)
	require.Equal(t, "same", saver.last())
	require.Equal(t, "saved", m.status)
}

func TestMainModel_TypingSchedulesRender(t *testing.T) {
	m := newTestModel(t, "ab", &recordingSaver{}, nil, paste.StaticSource{})
	seq := m.renderSeq

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.Equal(t, "abc", m.editor.Value())
	require.Greater(t, m.renderSeq, seq)
}

func TestMainModel_FocusToggle(t *testing.T) {
	m := newTestModel(t, "ab", &recordingSaver{}, nil, paste.StaticSource{})

	m = press(t, m, tea.KeyTab)
	require.Equal(t, focusPreview, m.focus)
	require.False(t, m.editor.Focused())

	// Typing with the preview focused leaves the document alone.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("z")})
	require.Equal(t, "ab", m.editor.Value())

	m = press(t, m, tea.KeyTab)
	require.Equal(t, focusEditor, m.focus)
	require.True(t, m.editor.Focused())
}

func TestMainModel_QuitSaves(t *testing.T) {
	saver := &recordingSaver{}
	m := newTestModel(t, "fina", saver, nil, paste.StaticSource{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(mainModel)
	require.True(t, m.quitting)
	require.Equal(t, "final", saver.last())
	require.IsType(t, tea.QuitMsg{}, cmd())
	require.Empty(t, m.View())
}

func TestMainModel_QuitWithoutEditsDoesNotSave(t *testing.T) {
	saver := &recordingSaver{}
	m := newTestModel(t, "", saver, nil, paste.StaticSource{})

	m = update(t, m, renderMsg{seq: m.renderSeq})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.True(t, next.(mainModel).quitting)
	require.Empty(t, saver.saved)
}

func TestIsPiped(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	require.True(t, isPiped(w))

	require.NoError(t, r.Close())
	require.NoError(t, w.Close())
	// Stat on a closed file fails and must not panic.
	require.False(t, isPiped(w))
}

func TestMainModel_StatusClears(t *testing.T) {
	m := newTestModel(t, "x", &recordingSaver{}, &paste.MemorySink{}, paste.StaticSource{})
	m = press(t, m, tea.KeyCtrlY)
	require.NotEmpty(t, m.status)

	m = update(t, m, clearStatusMsg{seq: m.statusSeq - 1})
	require.NotEmpty(t, m.status)

	m = update(t, m, clearStatusMsg{seq: m.statusSeq})
	require.Empty(t, m.status)
}

func TestValidSplit(t *testing.T) {
	require.True(t, validSplit(50))
	require.True(t, validSplit(21))
	require.False(t, validSplit(20))
	require.False(t, validSplit(80))
}
