package paste

import (
	"github.com/atotto/clipboard"
)

// Source provides clipboard content
type Source interface {
	Read() (Payload, error)
}

// Sink receives text copied out of the editor
type Sink interface {
	Write(text string) error
}

// SystemClipboard reads and writes the OS clipboard. Only text/plain is
// exposed by the platform tools, so rich content arrives as Plain.
type SystemClipboard struct{}

// Read implements Source
func (SystemClipboard) Read() (Payload, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return Payload{}, err
	}
	return Payload{Plain: text}, nil
}

// Write implements Sink
func (SystemClipboard) Write(text string) error {
	return clipboard.WriteAll(text)
}

// Available reports whether a clipboard tool was found
func (SystemClipboard) Available() bool {
	return !clipboard.Unsupported
}

// StaticSource serves a fixed payload. Used for --html/--markdown file input.
type StaticSource struct {
	Payload Payload
	Err     error
}

// Read implements Source
func (s StaticSource) Read() (Payload, error) {
	return s.Payload, s.Err
}

// MemorySink stores the last written text
type MemorySink struct {
	Text string
	Err  error
}

// Write implements Sink
func (s *MemorySink) Write(text string) error {
	if s.Err != nil {
		return s.Err
	}
	s.Text = text
	return nil
}
