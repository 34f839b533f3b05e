package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrite_Disabled(t *testing.T) {
	SetOutput(nil)
	// Must not panic without a logger.
	Info(CatUI, "ignored", "k", "v")
}

func TestWrite_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	Warn(CatPaste, "conversion failed", "bytes", 42, "orphan")

	line := buf.String()
	require.Contains(t, line, "[WARN] [paste] conversion failed")
	require.Contains(t, line, "bytes=42")
	require.Contains(t, line, "orphan=<missing>")
	require.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestWrite_MinLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	SetMinLevel(LevelWarn)
	Debug(CatFormat, "hidden")
	Info(CatFormat, "hidden")
	require.Empty(t, buf.String())

	ErrorErr(CatFormat, "engine failed", errors.New("boom"))
	require.Contains(t, buf.String(), "error=boom")
}

func TestWarnErr_NilError(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	WarnErr(CatStorage, "save", nil)
	require.Contains(t, buf.String(), "error=<nil>")
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LevelDebug.String())
	require.Equal(t, "ERROR", LevelError.String())
	require.Equal(t, "UNKNOWN", Level(99).String())
}
