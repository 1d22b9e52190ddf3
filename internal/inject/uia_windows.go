//go:build windows

package inject

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// COM identifiers from UIAutomationClient.h.
var (
	clsidCUIAutomation = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation   = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")
)

// UIA_ValuePatternId
const valuePatternID = 10002

// Vtable slots past IUnknown (QueryInterface, AddRef, Release).
const (
	slotRelease = 2
	// IUIAutomation
	slotGetFocusedElement = 8
	// IUIAutomationElement
	slotGetCurrentPattern = 16
	// IUIAutomationValuePattern
	slotSetValue        = 3
	slotGetCurrentValue = 4
)

// SystemAutomation talks to the Win32 UI Automation client API.
//
// Each call initializes COM on a locked OS thread and releases every
// interface before returning, so the type carries no COM state across
// calls and is safe to use from the orchestrator's goroutines.
type SystemAutomation struct{}

var _ Automation = (*SystemAutomation)(nil)

// NewSystemAutomation creates the Windows automation port.
func NewSystemAutomation() *SystemAutomation {
	return &SystemAutomation{}
}

// SetFocusedValue implements Automation.
func (a *SystemAutomation) SetFocusedValue(text string) error {
	return a.withFocusedValuePattern(func(pattern uintptr) error {
		bstr := ole.SysAllocString(text)
		if bstr == nil {
			return fmt.Errorf("inject: allocating BSTR")
		}
		defer ole.SysFreeString(bstr)

		if hr := comCall(pattern, slotSetValue, uintptr(unsafe.Pointer(bstr))); failed(hr) {
			return fmt.Errorf("inject: ValuePattern.SetValue: %w", ole.NewError(hr))
		}
		return nil
	})
}

// FocusedValue implements Automation.
func (a *SystemAutomation) FocusedValue() (string, error) {
	var value string
	err := a.withFocusedValuePattern(func(pattern uintptr) error {
		var bstr *uint16
		if hr := comCall(pattern, slotGetCurrentValue, uintptr(unsafe.Pointer(&bstr))); failed(hr) {
			return fmt.Errorf("inject: ValuePattern.get_CurrentValue: %w", ole.NewError(hr))
		}
		if bstr != nil {
			value = ole.BstrToString(bstr)
			ole.SysFreeString((*int16)(unsafe.Pointer(bstr)))
		}
		return nil
	})
	return value, err
}

// withFocusedValuePattern resolves the focused element's value pattern
// and passes it to fn, releasing all COM interfaces afterwards.
func (a *SystemAutomation) withFocusedValuePattern(fn func(pattern uintptr) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		// S_FALSE and mode mismatches mean COM is already up on this
		// thread; anything else is fatal.
		oleErr, ok := err.(*ole.OleError)
		if !ok || (oleErr.Code() != uintptr(ole.S_OK) && oleErr.Code() != 0x00000001 && oleErr.Code() != 0x80010106) {
			return fmt.Errorf("inject: CoInitializeEx: %w", err)
		}
	} else {
		defer ole.CoUninitialize()
	}

	unknown, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		return fmt.Errorf("inject: creating CUIAutomation: %w", err)
	}
	auto := uintptr(unsafe.Pointer(unknown))
	defer comCall(auto, slotRelease)

	var element uintptr
	if hr := comCall(auto, slotGetFocusedElement, uintptr(unsafe.Pointer(&element))); failed(hr) || element == 0 {
		return fmt.Errorf("inject: GetFocusedElement: %w", ole.NewError(hr))
	}
	defer comCall(element, slotRelease)

	var pattern uintptr
	if hr := comCall(element, slotGetCurrentPattern, uintptr(valuePatternID), uintptr(unsafe.Pointer(&pattern))); failed(hr) {
		return fmt.Errorf("inject: GetCurrentPattern: %w", ole.NewError(hr))
	}
	if pattern == 0 {
		return ErrNoValuePattern
	}
	defer comCall(pattern, slotRelease)

	return fn(pattern)
}

// comCall invokes a raw COM vtable method by slot index.
func comCall(obj uintptr, slot int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	method := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	callArgs := append([]uintptr{obj}, args...)
	hr, _, _ := syscall.SyscallN(method, callArgs...)
	return hr
}

// failed reports whether an HRESULT indicates failure.
func failed(hr uintptr) bool {
	return int32(hr) < 0
}
