package validate

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/samarquis/ScottWisper-sub011/internal/inject"
)

func selectAllModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

// AutomationReadback reads the focused control's value through the UI
// Automation port. Preferred when the control exposes a value pattern.
type AutomationReadback struct {
	auto inject.Automation
}

var _ Readback = (*AutomationReadback)(nil)

// NewAutomationReadback creates the automation-backed readback.
func NewAutomationReadback(auto inject.Automation) *AutomationReadback {
	return &AutomationReadback{auto: auto}
}

// ReadText implements Readback.
func (r *AutomationReadback) ReadText(ctx context.Context) (string, error) {
	v, err := r.auto.FocusedValue()
	if err != nil {
		return "", fmt.Errorf("validate: automation read-back: %w", err)
	}
	return v, nil
}

// ClipboardReadback selects all text in the focused control, copies
// it, and reads the clipboard, restoring the prior contents after.
// Works on controls without accessibility support at the cost of a
// transient clipboard disturbance.
type ClipboardReadback struct {
	clip inject.Clipboard
	wait time.Duration
}

var _ Readback = (*ClipboardReadback)(nil)

// NewClipboardReadback creates the clipboard round-trip readback.
// wait <= 0 selects the default copy settle time.
func NewClipboardReadback(clip inject.Clipboard, wait time.Duration) *ClipboardReadback {
	if wait <= 0 {
		wait = 150 * time.Millisecond
	}
	return &ClipboardReadback{clip: clip, wait: wait}
}

// ReadText implements Readback.
func (r *ClipboardReadback) ReadText(ctx context.Context) (string, error) {
	prev, err := r.clip.ReadAll()
	if err != nil {
		prev = ""
	}
	defer func() {
		_ = r.clip.WriteAll(prev)
	}()

	mod := selectAllModifier()
	if err := robotgo.KeyTap("a", mod); err != nil {
		return "", fmt.Errorf("validate: select-all chord: %w", err)
	}
	if err := robotgo.KeyTap("c", mod); err != nil {
		return "", fmt.Errorf("validate: copy chord: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(r.wait):
	}

	text, err := r.clip.ReadAll()
	if err != nil {
		return "", fmt.Errorf("validate: reading clipboard: %w", err)
	}
	return text, nil
}

// SystemFocuser activates a window by its owning process name.
type SystemFocuser struct{}

var _ Focuser = (*SystemFocuser)(nil)

// Focus implements Focuser. The application ID is the lowercase
// executable name; robotgo matches windows by process name without
// the extension.
func (SystemFocuser) Focus(applicationID string) error {
	name := strings.TrimSuffix(applicationID, ".exe")
	if err := robotgo.ActiveName(name); err != nil {
		return fmt.Errorf("validate: focusing %q: %w", applicationID, err)
	}
	return nil
}
