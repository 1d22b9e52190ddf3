//go:build windows

package target

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	procGetForeground = user32.NewProc("GetForegroundWindow")
	procGetClassNameW = user32.NewProc("GetClassNameW")
)

// focusedWindowClass returns the Win32 class name of the foreground
// window, or "" when there is none.
func focusedWindowClass() string {
	hwnd, _, _ := procGetForeground.Call()
	if hwnd == 0 {
		return ""
	}

	var buf [256]uint16
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}
