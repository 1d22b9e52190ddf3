// Package hotkey provides a global hotkey listener using gohook.
// It supports "hold" mode (press to start, release to stop) and
// "toggle" mode (press to start, press again to stop).
package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// EventType indicates whether a dictation session should start or stop.
type EventType int

const (
	// EventStart signals that the hotkey was activated (start recording).
	EventStart EventType = iota
	// EventStop signals that the hotkey was deactivated (stop recording).
	EventStop
)

// Event is emitted on the channel returned by Listen.
type Event struct {
	Type EventType
}

// Listener manages a global hotkey and emits start/stop events.
type Listener struct {
	keys []string
	mode string // "hold" or "toggle"
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// NewListener creates a Listener for the given key combo and mode.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "d"]).
// mode must be "hold" or "toggle".
func NewListener(keys []string, mode string) *Listener {
	return &Listener{
		keys: keys,
		mode: mode,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when Stop is called.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	if l.mode == "toggle" {
		l.registerToggle()
	} else {
		l.registerHold()
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// registerHold wires hold-to-talk: KeyDown starts, KeyUp stops.
func (l *Listener) registerHold() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		l.emit(EventStart)
	})
	hook.Register(hook.KeyUp, l.keys, func(e hook.Event) {
		l.emit(EventStop)
	})
}

// registerToggle wires toggle mode: each press flips between start
// and stop.
func (l *Listener) registerToggle() {
	var mu sync.Mutex
	active := false

	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		mu.Lock()
		defer mu.Unlock()
		if active {
			l.emit(EventStop)
		} else {
			l.emit(EventStart)
		}
		active = !active
	})
}

// emit delivers an event without blocking; if the consumer is behind,
// the activation is dropped rather than stalling the hook thread.
func (l *Listener) emit(t EventType) {
	select {
	case l.ch <- Event{Type: t}:
	default:
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
