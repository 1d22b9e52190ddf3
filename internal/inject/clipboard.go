package inject

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/samarquis/ScottWisper-sub011/internal/target"
)

// Clipboard is the system clipboard port. The system implementation is
// robotgo (see robotgo.go).
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// PasteSender sends the platform paste chord (Ctrl+V) to the focused
// window.
type PasteSender interface {
	SendPaste() error
}

// ClipboardPaste swaps the text onto the system clipboard, sends a
// paste chord, and restores the prior clipboard contents on every exit
// path. The clipboard is a process-wide shared resource: the swap is
// visible to other applications for its brief lifetime, and the
// restore can race with an external clipboard writer. That race is a
// documented limitation; it is logged, never retried.
type ClipboardPaste struct {
	clip      Clipboard
	paster    PasteSender
	resolver  target.Resolver
	pasteWait time.Duration
	logger    *slog.Logger
}

var _ Strategy = (*ClipboardPaste)(nil)

// NewClipboardPaste creates the clipboard strategy. pasteWait <= 0
// selects the default wait between the paste chord and the restore.
func NewClipboardPaste(clip Clipboard, paster PasteSender, resolver target.Resolver, pasteWait time.Duration, logger *slog.Logger) *ClipboardPaste {
	if pasteWait <= 0 {
		pasteWait = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClipboardPaste{
		clip:      clip,
		paster:    paster,
		resolver:  resolver,
		pasteWait: pasteWait,
		logger:    logger,
	}
}

// Name implements Strategy.
func (s *ClipboardPaste) Name() StrategyName { return StrategyClipboard }

// Attempt implements Strategy.
func (s *ClipboardPaste) Attempt(ctx context.Context, text string, tgt target.Application) Outcome {
	start := time.Now()

	restore, err := s.swap(text)
	if err != nil {
		return failure(0, ReasonUnknown, start)
	}
	defer restore()

	if err := s.paster.SendPaste(); err != nil {
		// Plain-text-only fields and some secured windows ignore the
		// chord entirely.
		return failure(0, ReasonPermissionDenied, start)
	}

	// Give the target time to read the clipboard before restore.
	select {
	case <-ctx.Done():
		return failure(0, ReasonTimeout, start)
	case <-time.After(s.pasteWait):
	}

	if !sameTarget(s.resolver.Resolve(), tgt) {
		return failure(0, ReasonFocusLost, start)
	}

	return success(utf8.RuneCountInString(text), start)
}

// swap writes text to the clipboard and returns the restore step. The
// restore runs on success and failure alike; callers defer it
// immediately so no exit path skips it.
func (s *ClipboardPaste) swap(text string) (restore func(), err error) {
	prev, readErr := s.clip.ReadAll()
	if readErr != nil {
		// Nothing to save (empty or unreadable clipboard); restore to
		// empty rather than abort the attempt.
		s.logger.Debug("clipboard read before swap failed", "error", readErr)
		prev = ""
	}

	if err := s.clip.WriteAll(text); err != nil {
		return nil, fmt.Errorf("inject: write to clipboard: %w", err)
	}

	return func() {
		if err := s.clip.WriteAll(prev); err != nil {
			s.logger.Warn("clipboard restore failed; prior contents lost", "error", err)
		}
	}, nil
}
