package inject

import (
	"context"
	"time"

	"github.com/samarquis/ScottWisper-sub011/internal/target"
)

// KeystrokeSynth synthesizes text input events into the focused
// control. The system implementation is robotgo (see robotgo.go).
type KeystrokeSynth interface {
	// TypeText delivers text via the Unicode code-point input path,
	// independent of the active keyboard layout.
	TypeText(text string) error
}

// DirectKeystroke injects text one input event per character. Chunks
// are split on rune boundaries so surrogate pairs survive intact, and
// focus is re-checked between chunks: a chunk landing in the wrong
// window is the failure mode this strategy must catch itself.
type DirectKeystroke struct {
	synth      KeystrokeSynth
	resolver   target.Resolver
	chunkRunes int
}

var _ Strategy = (*DirectKeystroke)(nil)

// NewDirectKeystroke creates the keystroke strategy. chunkRunes <= 0
// selects the default chunk size.
func NewDirectKeystroke(synth KeystrokeSynth, resolver target.Resolver, chunkRunes int) *DirectKeystroke {
	if chunkRunes <= 0 {
		chunkRunes = 24
	}
	return &DirectKeystroke{synth: synth, resolver: resolver, chunkRunes: chunkRunes}
}

// Name implements Strategy.
func (s *DirectKeystroke) Name() StrategyName { return StrategyKeystroke }

// Attempt implements Strategy. CharactersDelivered reflects the runes
// typed before any failure, so partial delivery is visible to the
// orchestrator.
func (s *DirectKeystroke) Attempt(ctx context.Context, text string, tgt target.Application) Outcome {
	start := time.Now()
	runes := []rune(text)
	delivered := 0

	for len(runes) > 0 {
		if ctx.Err() != nil {
			return failure(delivered, ReasonTimeout, start)
		}

		n := min(s.chunkRunes, len(runes))
		if err := s.synth.TypeText(string(runes[:n])); err != nil {
			// Secured or elevated windows silently drop synthetic input.
			return failure(delivered, ReasonUnsupportedControl, start)
		}
		delivered += n
		runes = runes[n:]

		if !sameTarget(s.resolver.Resolve(), tgt) {
			return failure(delivered, ReasonFocusLost, start)
		}
	}

	return success(delivered, start)
}
