// Package inject delivers transcribed text into the application that
// currently owns keyboard focus.
//
// No single OS input path works for every application, so delivery is
// organized as a cascade: interchangeable strategies (UI Automation
// value-set, Unicode keystroke synthesis, clipboard paste) are tried in
// an order chosen per target until one succeeds or all are exhausted.
// The Orchestrator owns the cascade; strategies are stateless and safe
// to retry against the next target.
package inject

import (
	"context"
	"errors"
	"time"

	"github.com/samarquis/ScottWisper-sub011/internal/target"
)

// StrategyName identifies one injection mechanism.
type StrategyName string

const (
	// StrategyUIAutomation sets the focused control's value through the
	// accessibility tree, bypassing input synthesis.
	StrategyUIAutomation StrategyName = "uiautomation"
	// StrategyKeystroke synthesizes one Unicode input event per
	// character.
	StrategyKeystroke StrategyName = "keystroke"
	// StrategyClipboard swaps the text onto the clipboard and sends a
	// paste chord.
	StrategyClipboard StrategyName = "clipboard"
)

// DefaultOrder is the conservative cascade used when nothing is known
// about the target: clipboard disturbance comes last.
func DefaultOrder() []StrategyName {
	return []StrategyName{StrategyUIAutomation, StrategyKeystroke, StrategyClipboard}
}

// FailureReason classifies why a strategy attempt failed.
type FailureReason string

const (
	ReasonNone               FailureReason = ""
	ReasonFocusLost          FailureReason = "focus_lost"
	ReasonPermissionDenied   FailureReason = "permission_denied"
	ReasonTimeout            FailureReason = "timeout"
	ReasonUnsupportedControl FailureReason = "unsupported_control"
	ReasonUnknown            FailureReason = "unknown"
)

// Outcome is the result of one strategy attempt.
//
// CharactersDelivered counts runes, never exceeds the request length,
// and equals it when Succeeded is true.
type Outcome struct {
	Succeeded           bool
	CharactersDelivered int
	Reason              FailureReason
	Elapsed             time.Duration
}

// Strategy is one mechanism for delivering text to a focused control.
// Implementations are stateless; a failed attempt must leave the system
// in a state where the next strategy can run safely.
type Strategy interface {
	Name() StrategyName
	Attempt(ctx context.Context, text string, tgt target.Application) Outcome
}

// Request is one unit of injection work. It is immutable once
// constructed and consumed exactly once by the Orchestrator.
type Request struct {
	// ID correlates log records; filled with a UUID when empty.
	ID   string
	Text string
	// Target, when non-nil, skips resolution. Live dictation leaves it
	// nil so focus is resolved at injection time.
	Target *target.Application
	// PreferredOrder overrides strategy selection for this request.
	PreferredOrder []StrategyName
}

// Attempt records one step of the cascade.
type Attempt struct {
	Strategy StrategyName
	Outcome  Outcome
}

// Result is the request-level outcome reported to the caller.
type Result struct {
	RequestID  string
	Succeeded  bool
	Strategy   StrategyName // winning strategy when Succeeded
	Characters int
	Attempts   []Attempt
	Target     target.Application
	// TextPreserved is set when the cascade was exhausted and the text
	// was copied to the clipboard as a last resort.
	TextPreserved bool
}

// ErrExhausted is returned when every strategy in the cascade failed.
// The dictated text is preserved (see Result.TextPreserved) so the
// transcription work is not lost.
var ErrExhausted = errors.New("inject: all strategies failed")

// ErrNoStrategies is returned when configuration disables every
// available strategy.
var ErrNoStrategies = errors.New("inject: no enabled strategies")

// failure builds a failed Outcome.
func failure(delivered int, reason FailureReason, start time.Time) Outcome {
	return Outcome{
		CharactersDelivered: delivered,
		Reason:              reason,
		Elapsed:             time.Since(start),
	}
}

// success builds a successful Outcome for a fully delivered text.
func success(delivered int, start time.Time) Outcome {
	return Outcome{
		Succeeded:           true,
		CharactersDelivered: delivered,
		Elapsed:             time.Since(start),
	}
}

// sameTarget reports whether the foreground application still matches
// the one the attempt started against. An unresolved original target
// matches anything: there is no identity to lose.
func sameTarget(now, original target.Application) bool {
	if original.Unresolved() {
		return true
	}
	return now.ProcessName == original.ProcessName
}
