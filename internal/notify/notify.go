// Package notify surfaces request-level outcomes to the user as
// desktop notifications.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// Desktop shows OS toast notifications via beeep.
type Desktop struct{}

// Notify shows a notification. Failures are returned so callers can
// log them; a missed toast never blocks the pipeline.
func (Desktop) Notify(title, message string) error {
	if err := beeep.Notify(title, message, ""); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Nop discards notifications; used when the user disables them.
type Nop struct{}

// Notify implements the same contract as Desktop and does nothing.
func (Nop) Notify(title, message string) error { return nil }
