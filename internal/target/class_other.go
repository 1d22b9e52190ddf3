//go:build !windows

package target

// focusedWindowClass is Windows-only; other platforms have no Win32
// window class and report an empty string.
func focusedWindowClass() string {
	return ""
}
