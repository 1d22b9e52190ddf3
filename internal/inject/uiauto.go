package inject

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/samarquis/ScottWisper-sub011/internal/target"
)

// ErrNoValuePattern reports a focused element without a settable value
// pattern.
var ErrNoValuePattern = errors.New("inject: focused element has no value pattern")

// ErrAutomationUnavailable reports a platform without UI Automation.
var ErrAutomationUnavailable = errors.New("inject: ui automation unavailable on this platform")

// Automation is the UI Automation port. On Windows it is backed by the
// COM IUIAutomation API (uia_windows.go); elsewhere every call reports
// ErrAutomationUnavailable.
type Automation interface {
	// SetFocusedValue writes text into the focused element's value
	// pattern. Returns ErrNoValuePattern when the element does not
	// expose one.
	SetFocusedValue(text string) error
	// FocusedValue reads the focused element's current value.
	FocusedValue() (string, error)
}

// UIAutomationSetValue sets the focused control's text through the
// accessibility tree. Fastest and least intrusive when the control
// exposes the value pattern; custom-drawn controls, games, and
// canvas-based editors do not.
type UIAutomationSetValue struct {
	auto Automation
}

var _ Strategy = (*UIAutomationSetValue)(nil)

// NewUIAutomationSetValue creates the UI Automation strategy.
func NewUIAutomationSetValue(auto Automation) *UIAutomationSetValue {
	return &UIAutomationSetValue{auto: auto}
}

// Name implements Strategy.
func (s *UIAutomationSetValue) Name() StrategyName { return StrategyUIAutomation }

// Attempt implements Strategy.
func (s *UIAutomationSetValue) Attempt(ctx context.Context, text string, tgt target.Application) Outcome {
	start := time.Now()

	if ctx.Err() != nil {
		return failure(0, ReasonTimeout, start)
	}

	if err := s.auto.SetFocusedValue(text); err != nil {
		return failure(0, ReasonUnsupportedControl, start)
	}

	// Controls that accept SetValue but mangle the text exist; verify
	// when the value can be read back. A read-back failure alone is not
	// treated as a delivery failure.
	if got, err := s.auto.FocusedValue(); err == nil && got != text {
		return failure(0, ReasonUnsupportedControl, start)
	}

	return success(utf8.RuneCountInString(text), start)
}
