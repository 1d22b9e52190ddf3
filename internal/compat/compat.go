// Package compat holds per-application compatibility profiles: which
// injection strategies work for an application, in what order, and any
// known quirks. Profiles are written by validation runs and read by
// live injection to bias strategy selection.
package compat

import (
	"time"
)

// Known limitation identifiers. A limitation names a lossy transform
// the application applies to injected text; the validator treats
// divergence explained by a listed limitation as acceptable.
const (
	LimitSmartQuotes        = "smart_quotes"
	LimitTrailingWhitespace = "strips_trailing_whitespace"
	LimitCRLFNewlines       = "crlf_newlines"
	LimitNoSurrogatePairs   = "no_surrogate_pairs"
)

// Profile records validated injection behavior for one application.
type Profile struct {
	// ApplicationID is the lowercase process name, e.g. "notepad.exe".
	ApplicationID string `yaml:"application_id"`
	// PreferredOrder lists strategy names most-successful-first.
	PreferredOrder []string `yaml:"preferred_order"`
	// KnownLimitations lists limitation identifiers (see Limit* consts).
	KnownLimitations []string `yaml:"known_limitations,omitempty"`
	// LastAccuracy is the overall similarity score of the last
	// validation run, in [0, 1].
	LastAccuracy    float64   `yaml:"last_accuracy"`
	LastValidatedAt time.Time `yaml:"last_validated_at"`
}

// HasLimitation reports whether the profile lists the given limitation.
func (p Profile) HasLimitation(id string) bool {
	for _, l := range p.KnownLimitations {
		if l == id {
			return true
		}
	}
	return false
}

// Store is the injectable read-mostly profile table. Implementations
// must be safe for concurrent use: validation runs update profiles
// while live injection reads them.
type Store interface {
	// Get returns the profile for an application ID, if present.
	Get(applicationID string) (Profile, bool)
	// Update inserts or replaces a profile.
	Update(p Profile) error
	// All returns every stored profile, in unspecified order.
	All() []Profile
}

// Seed returns the built-in table for common Windows applications.
// Orders and limitations reflect observed behavior; validation runs
// overwrite them with measured results.
func Seed() []Profile {
	return []Profile{
		{
			ApplicationID:  "notepad.exe",
			PreferredOrder: []string{"uiautomation", "keystroke", "clipboard"},
		},
		{
			ApplicationID:  "code.exe",
			PreferredOrder: []string{"clipboard", "keystroke", "uiautomation"},
		},
		{
			ApplicationID:  "chrome.exe",
			PreferredOrder: []string{"keystroke", "clipboard", "uiautomation"},
		},
		{
			ApplicationID:  "msedge.exe",
			PreferredOrder: []string{"keystroke", "clipboard", "uiautomation"},
		},
		{
			ApplicationID:    "winword.exe",
			PreferredOrder:   []string{"clipboard", "keystroke", "uiautomation"},
			KnownLimitations: []string{LimitSmartQuotes},
		},
		{
			ApplicationID:    "windowsterminal.exe",
			PreferredOrder:   []string{"clipboard", "keystroke", "uiautomation"},
			KnownLimitations: []string{LimitTrailingWhitespace},
		},
	}
}
