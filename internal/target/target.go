// Package target identifies the application that currently owns
// keyboard focus. The resolved identity selects an injection strategy
// profile; it is queried fresh for every injection because focus can
// change between dictation start and completion.
package target

import "strings"

// Application identifies the focused injection destination.
type Application struct {
	ProcessName string // lowercase executable name, e.g. "notepad.exe"
	WindowClass string // Win32 window class, empty off-Windows
	WindowTitle string
	// Known is set once the identity has been matched against the
	// compatibility table. The resolver leaves it false.
	Known bool
}

// ID returns the identity used as the compatibility table key.
func (a Application) ID() string {
	return a.ProcessName
}

// Unresolved reports whether the resolver could not identify a focused
// window. This is a valid state, not an error; it selects the
// conservative default strategy ordering downstream.
func (a Application) Unresolved() bool {
	return a.ProcessName == "" && a.WindowClass == "" && a.WindowTitle == ""
}

// Resolver reports the application owning the current input focus.
type Resolver interface {
	// Resolve queries the OS for the focused window. It must be cheap
	// enough to call before every injection attempt. When no window has
	// focus or the query fails it returns the zero Application.
	Resolve() Application
}

// NormalizeProcessName lowercases a process name so table lookups are
// case-insensitive ("Notepad.EXE" and "notepad.exe" are the same app).
func NormalizeProcessName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
