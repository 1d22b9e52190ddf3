package inject

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// SystemKeystrokes types through robotgo's Unicode input path.
type SystemKeystrokes struct{}

var _ KeystrokeSynth = (*SystemKeystrokes)(nil)

// TypeText implements KeystrokeSynth.
func (SystemKeystrokes) TypeText(text string) error {
	robotgo.TypeStr(text)
	return nil
}

// SystemClipboard is the robotgo-backed system clipboard.
type SystemClipboard struct{}

var _ Clipboard = (*SystemClipboard)(nil)

// ReadAll implements Clipboard.
func (SystemClipboard) ReadAll() (string, error) {
	s, err := robotgo.ReadAll()
	if err != nil {
		return "", fmt.Errorf("inject: read clipboard: %w", err)
	}
	return s, nil
}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write clipboard: %w", err)
	}
	return nil
}

// SystemPaster sends the platform paste chord with robotgo.
type SystemPaster struct{}

var _ PasteSender = (*SystemPaster)(nil)

// SendPaste implements PasteSender.
func (SystemPaster) SendPaste() error {
	if err := robotgo.KeyTap("v", pasteModifier); err != nil {
		return fmt.Errorf("inject: paste chord: %w", err)
	}
	return nil
}
