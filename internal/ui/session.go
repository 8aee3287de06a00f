package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/interpretive-systems/prdiff/internal/logging"
)

// sessionStep is one reversible terminal mode change. engage applies it,
// release undoes it. release must tolerate being called when the
// terminal is in an unexpected state.
type sessionStep struct {
	name    string
	engage  func() error
	release func()
}

// SessionGuard moves the terminal into full-screen mode and guarantees
// the inverse on the way out. Steps are engaged in order and released in
// reverse; if engaging step N fails, only steps 0..N-1 are released.
type SessionGuard struct {
	steps    []sessionStep
	engaged  int
	released bool
	drain    func()
	log      logging.Logger
}

// NewSessionGuard builds the guard for a tcell screen. Acquire has not
// been called yet.
func NewSessionGuard(screen tcell.Screen, log logging.Logger) *SessionGuard {
	if log == nil {
		log = logging.Nop()
	}
	steps := []sessionStep{
		{
			name:    "screen",
			engage:  screen.Init,
			release: screen.Fini,
		},
		{
			name: "mouse",
			engage: func() error {
				screen.EnableMouse()
				return nil
			},
			release: screen.DisableMouse,
		},
		{
			name: "paste",
			engage: func() error {
				screen.EnablePaste()
				return nil
			},
			release: screen.DisablePaste,
		},
		{
			name: "focus",
			engage: func() error {
				screen.EnableFocus()
				return nil
			},
			release: screen.DisableFocus,
		},
	}
	return &SessionGuard{
		steps: steps,
		drain: func() { drainPendingEvents(screen) },
		log:   log,
	}
}

// Acquire engages every step in order. On failure it releases the steps
// that did succeed, in reverse, and returns the failing step's error.
func (g *SessionGuard) Acquire() error {
	for i, step := range g.steps {
		if err := step.engage(); err != nil {
			g.log.Error("session step failed", "step", step.name, "err", err)
			for j := i - 1; j >= 0; j-- {
				g.steps[j].release()
			}
			return fmt.Errorf("enter terminal session (%s): %w", step.name, err)
		}
		g.engaged = i + 1
	}
	return nil
}

// Release undoes every engaged step in reverse order. Buffered input is
// drained before the final step restores the terminal, so keys typed
// during shutdown never leak into the shell. Safe to call more than
// once.
func (g *SessionGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	for i := g.engaged - 1; i >= 0; i-- {
		if i == 0 && g.drain != nil {
			g.drain()
		}
		g.steps[i].release()
	}
	g.engaged = 0
}

// drainPendingEvents consumes whatever input is already buffered so it
// dies with the session instead of reaching the shell.
func drainPendingEvents(screen tcell.Screen) {
	for screen.HasPendingEvent() {
		if screen.PollEvent() == nil {
			return
		}
	}
}
