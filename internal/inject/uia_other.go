//go:build !windows

package inject

// SystemAutomation is a stub off-Windows; every call reports
// ErrAutomationUnavailable so the cascade falls through to the next
// strategy.
type SystemAutomation struct{}

var _ Automation = (*SystemAutomation)(nil)

// NewSystemAutomation creates the stub automation port.
func NewSystemAutomation() *SystemAutomation {
	return &SystemAutomation{}
}

// SetFocusedValue implements Automation.
func (a *SystemAutomation) SetFocusedValue(text string) error {
	return ErrAutomationUnavailable
}

// FocusedValue implements Automation.
func (a *SystemAutomation) FocusedValue() (string, error) {
	return "", ErrAutomationUnavailable
}
