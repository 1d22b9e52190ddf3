package target

import (
	"log/slog"

	"github.com/go-vgo/robotgo"
)

// SystemResolver queries the OS foreground window through robotgo.
type SystemResolver struct {
	logger *slog.Logger
}

var _ Resolver = (*SystemResolver)(nil)

// NewSystemResolver creates a resolver. logger may be nil.
func NewSystemResolver(logger *slog.Logger) *SystemResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemResolver{logger: logger}
}

// Resolve returns the identity of the focused window, or the zero
// Application if nothing has focus.
func (r *SystemResolver) Resolve() Application {
	app := Application{
		WindowTitle: robotgo.GetTitle(),
		WindowClass: focusedWindowClass(),
	}

	pid := robotgo.GetPid()
	if pid > 0 {
		name, err := robotgo.FindName(pid)
		if err != nil {
			r.logger.Debug("resolve process name failed", "pid", pid, "error", err)
		} else {
			app.ProcessName = NormalizeProcessName(name)
		}
	}

	if app.Unresolved() {
		r.logger.Debug("no focused window resolved")
	}
	return app
}
